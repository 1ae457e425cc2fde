package location

import (
	"context"
	"time"

	"googlemaps.github.io/maps"
)

// GoogleGeolocationProvider resolves the device position through the Google
// Maps Geolocation API, using nearby WiFi access points and cell towers as
// hints. When no radio data is available the API falls back to the caller's
// IP address.
type GoogleGeolocationProvider struct {
	client  *maps.Client
	timeout time.Duration
}

// NewGoogleGeolocationProvider creates a provider backed by the Geolocation
// API with the given key.
func NewGoogleGeolocationProvider(apiKey string) (*GoogleGeolocationProvider, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GoogleGeolocationProvider{
		client:  c,
		timeout: 10 * time.Second,
	}, nil
}

// GetLocation sends a geolocation request built from whatever radio
// environment data could be scanned. Scan failures are not fatal; the
// request degrades to IP-based lookup.
func (g *GoogleGeolocationProvider) GetLocation() (Location, error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	req := &maps.GeolocationRequest{
		ConsiderIP: true,
	}

	if wifiAPs, err := getWiFiAccessPoints(ctx); err == nil {
		req.WiFiAccessPoints = wifiAPs
	}
	if cellTowers, err := getCellTowers(ctx, 0); err == nil {
		req.CellTowers = cellTowers
	}

	resp, err := g.client.Geolocate(ctx, req)
	if err != nil {
		return Location{}, err
	}

	return Location{
		Latitude:  resp.Location.Lat,
		Longitude: resp.Location.Lng,
		Accuracy:  resp.Accuracy,
	}, nil
}

// Close implements Provider.
func (g *GoogleGeolocationProvider) Close() error {
	return nil
}
