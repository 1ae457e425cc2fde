package location

import (
	"bufio"
	"errors"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"
)

// DeviceSensorProvider reads positions from a GPS receiver attached to a
// serial port, one NMEA sentence stream per call.
type DeviceSensorProvider struct {
	port        string
	baudRate    int
	readTimeout time.Duration
}

// NewDeviceSensorProvider creates a provider for the GPS receiver on the
// given serial port.
func NewDeviceSensorProvider(port string, baudRate int) *DeviceSensorProvider {
	return &DeviceSensorProvider{
		port:        port,
		baudRate:    baudRate,
		readTimeout: 5 * time.Second,
	}
}

// GetLocation reads NMEA sentences from the receiver until it finds a usable
// fix. GGA sentences are preferred because they carry HDOP; an RMC sentence
// with a valid fix is accepted as a fallback.
func (d *DeviceSensorProvider) GetLocation() (Location, error) {
	c := &serial.Config{Name: d.port, Baud: d.baudRate, ReadTimeout: d.readTimeout}
	s, err := serial.OpenPort(c)
	if err != nil {
		return Location{}, err
	}
	defer s.Close()

	scanner := bufio.NewScanner(s)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// Partial or corrupted sentence, keep reading.
			continue
		}

		switch v := sentence.(type) {
		case nmea.GGA:
			if v.FixQuality == nmea.Invalid {
				continue
			}
			return Location{
				Latitude:  v.Latitude,
				Longitude: v.Longitude,
				Accuracy:  float64(v.HDOP),
			}, nil
		case nmea.RMC:
			if v.Validity != nmea.ValidRMC {
				continue
			}
			return Location{
				Latitude:  v.Latitude,
				Longitude: v.Longitude,
			}, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return Location{}, err
	}

	return Location{}, errors.New("no valid GPS fix found")
}

// Close implements Provider. The port is opened per call, so there is
// nothing to release.
func (d *DeviceSensorProvider) Close() error {
	return nil
}
