package display

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/geotraq/agent/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// fakeSource is a SampleSource backed by a plain channel.
type fakeSource struct {
	mu           sync.Mutex
	ch           chan models.LocationSample
	unsubscribed bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan models.LocationSample, 8)}
}

func (f *fakeSource) Subscribe(id string) <-chan models.LocationSample {
	return f.ch
}

func (f *fakeSource) Unsubscribe(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = true
}

// TestConsoleRenderer_RendersExactCoordinates verifies the displayed text
// reflects the sample's coordinates exactly.
func TestConsoleRenderer_RendersExactCoordinates(t *testing.T) {
	// Setup
	source := newFakeSource()
	var out strings.Builder
	renderer := NewConsoleRenderer("test", source, &out, zerolog.Nop())

	assert.NoError(t, renderer.Start())
	defer renderer.Stop()

	// Execute
	source.ch <- models.LocationSample{Latitude: 37.7749, Longitude: -122.4194}

	// Assert
	assert.Eventually(t, func() bool {
		return renderer.Last() == "37.7749, -122.4194"
	}, 2*time.Second, 10*time.Millisecond)
}

// TestConsoleRenderer_StartStop verifies the lifecycle: double start fails,
// stop unsubscribes, double stop is a no-op.
func TestConsoleRenderer_StartStop(t *testing.T) {
	// Setup
	source := newFakeSource()
	renderer := NewConsoleRenderer("test", source, &strings.Builder{}, zerolog.Nop())

	// Execute
	assert.NoError(t, renderer.Start())
	assert.Error(t, renderer.Start())

	assert.NoError(t, renderer.Stop())

	// Assert
	source.mu.Lock()
	assert.True(t, source.unsubscribed)
	source.mu.Unlock()

	assert.NoError(t, renderer.Stop())
}

// TestFormatSample covers a few coordinate shapes.
func TestFormatSample(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     string
	}{
		{37.7749, -122.4194, "37.7749, -122.4194"},
		{0, 0, "0, 0"},
		{-33.8688, 151.2093, "-33.8688, 151.2093"},
	}

	for _, tt := range tests {
		got := FormatSample(models.LocationSample{Latitude: tt.lat, Longitude: tt.lon})
		assert.Equal(t, tt.want, got)
	}
}
