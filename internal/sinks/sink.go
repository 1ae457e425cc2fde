package sinks

import (
	"context"

	"github.com/geotraq/agent/internal/models"
)

// Sink delivers accepted location samples to an outbound destination.
// Send is called off the acquisition path, so a slow sink only delays its
// own deliveries.
type Sink interface {
	Name() string
	Send(ctx context.Context, sample models.LocationSample) error
	Close() error
}
