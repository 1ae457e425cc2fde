package location

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"googlemaps.github.io/maps"
)

// Radio environment scanning for the geolocation provider, shelling out to
// the NetworkManager and ModemManager CLIs. A missing tool is an error the
// provider absorbs by degrading to IP-based lookup; unparsable or
// incomplete scan output just yields fewer hints.

// getWiFiAccessPoints lists nearby WiFi access points via nmcli.
func getWiFiAccessPoints(ctx context.Context) ([]maps.WiFiAccessPoint, error) {
	output, err := runScanTool(ctx, "nmcli", "-t", "-f", "BSSID,SIGNAL", "dev", "wifi", "list")
	if err != nil {
		return nil, err
	}
	return parseAccessPoints(output), nil
}

// parseAccessPoints reads nmcli terse output, one "BSSID:SIGNAL" line per
// access point. The colons inside the BSSID are backslash-escaped, so the
// signal is whatever follows the last unescaped colon.
func parseAccessPoints(output string) []maps.WiFiAccessPoint {
	var wifiAPs []maps.WiFiAccessPoint
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		i := strings.LastIndex(line, ":")
		if i < 0 {
			continue
		}
		signal, err := strconv.Atoi(line[i+1:])
		if err != nil {
			continue
		}
		mac := strings.ReplaceAll(line[:i], `\:`, ":")
		if !isValidMAC(mac) {
			continue
		}
		wifiAPs = append(wifiAPs, maps.WiFiAccessPoint{
			MACAddress:     mac,
			SignalStrength: float64(signal),
		})
	}
	return wifiAPs
}

// getCellTowers reads the serving cell of the given modem via mmcli. A
// modem that has not registered on a network yet reports no usable cell;
// that is an empty result, not an error.
func getCellTowers(ctx context.Context, modemIndex int) ([]maps.CellTower, error) {
	output, err := runScanTool(ctx, "mmcli", "-m", strconv.Itoa(modemIndex), "--output-keyvalue")
	if err != nil {
		return nil, err
	}

	tower, ok := parseCellTower(output)
	if !ok {
		return nil, nil
	}
	return []maps.CellTower{tower}, nil
}

// parseCellTower extracts the 3GPP identifiers from mmcli key/value output.
// LAC and CID are hexadecimal; MCC and MNC are decimal and mandatory for a
// usable tower.
func parseCellTower(output string) (maps.CellTower, bool) {
	var tower maps.CellTower
	for _, line := range strings.Split(output, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "modem.3gpp.mcc":
			tower.MobileCountryCode, _ = strconv.Atoi(value)
		case "modem.3gpp.mnc":
			tower.MobileNetworkCode, _ = strconv.Atoi(value)
		case "modem.3gpp.lac":
			if lac, err := strconv.ParseInt(value, 16, 32); err == nil {
				tower.LocationAreaCode = int(lac)
			}
		case "modem.3gpp.cid":
			if cid, err := strconv.ParseInt(value, 16, 32); err == nil {
				tower.CellID = int(cid)
			}
		}
	}

	return tower, tower.MobileCountryCode != 0 && tower.MobileNetworkCode != 0
}

// runScanTool executes an external scan tool and returns its stdout.
func runScanTool(ctx context.Context, name string, args ...string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", fmt.Errorf("%s not found: %w", name, err)
	}

	output, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %w", name, err)
	}
	return string(output), nil
}

// isValidMAC checks that the MAC address looks like "00:14:22:01:23:45".
func isValidMAC(mac string) bool {
	parts := strings.Split(mac, ":")
	if len(parts) != 6 {
		return false
	}
	for _, part := range parts {
		if len(part) != 2 {
			return false
		}
		if _, err := strconv.ParseUint(part, 16, 8); err != nil {
			return false
		}
	}
	return true
}
