package utils

import (
	"github.com/geotraq/agent/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Logging struct {
		Level string `yaml:"level"` // zerolog level: trace..panic
	} `yaml:"logging"`

	Identity struct {
		DeviceFile string `yaml:"device_file"` // Path to the device identity file
	} `yaml:"identity"`

	Permissions struct {
		GrantsFile string `yaml:"grants_file"` // Path to the persisted grant decisions
		Mode       string `yaml:"mode"`        // prompt, grant or deny
	} `yaml:"permissions"`

	Tracker struct {
		Interval        int     `yaml:"interval"`         // Seconds between location polls
		MinDistanceM    float64 `yaml:"min_distance_m"`   // Minimum displacement before a sample is accepted
		BufferSize      int     `yaml:"buffer_size"`      // Capacity of the sample channel
		DispatchWorkers int     `yaml:"dispatch_workers"` // Workers delivering samples to sinks
	} `yaml:"tracker"`

	Provider struct {
		Source            string `yaml:"source"`          // sensor, geolocation or fused
		GPSDevicePort     string `yaml:"gps_device_port"` // Serial port of the GPS receiver
		GPSDeviceBaudRate int    `yaml:"gps_baud_rate"`   // Baud rate for the GPS receiver
		MapsAPIKey        string `yaml:"maps_api_key"`    // Google Maps Geolocation API key
	} `yaml:"provider"`

	Sinks struct {
		HTTP struct {
			Enabled      bool   `yaml:"enabled"`       // Enable/disable the HTTP sink
			Endpoint     string `yaml:"endpoint"`      // URL samples are POSTed to
			Timeout      int    `yaml:"timeout"`       // Request timeout (in seconds)
			MaxAttempts  int    `yaml:"max_attempts"`  // Send attempts before a sample is dropped
			RetryBackoff int    `yaml:"retry_backoff"` // Delay between attempts (in seconds)
		} `yaml:"http"`

		MQTT struct {
			Enabled       bool   `yaml:"enabled"`        // Enable/disable the MQTT sink
			Broker        string `yaml:"broker"`         // MQTT broker address
			ClientID      string `yaml:"client_id"`      // MQTT client ID
			Topic         string `yaml:"topic"`          // Topic samples are published to
			QOS           int    `yaml:"qos"`            // MQTT QoS level
			CACertificate string `yaml:"ca_certificate"` // Path to the broker CA certificate
		} `yaml:"mqtt"`
	} `yaml:"sinks"`
}

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}
