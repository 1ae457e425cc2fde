package models

import (
	"time"
)

// LocationSample is one position report as it travels through the agent:
// stamped with the device identity and the receipt time, then handed to
// renderers and outbound sinks.
type LocationSample struct {
	DeviceID  string    `json:"device_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
}
