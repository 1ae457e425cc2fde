package display

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/geotraq/agent/internal/models"
	"github.com/rs/zerolog"
)

// SampleSource is the part of the tracker a renderer needs: a subscription
// to the accepted sample stream.
type SampleSource interface {
	Subscribe(id string) <-chan models.LocationSample
	Unsubscribe(id string)
}

// ConsoleRenderer subscribes to the tracker and writes the coordinates of
// each sample to an io.Writer, one line per sample.
type ConsoleRenderer struct {
	id     string
	source SampleSource
	out    io.Writer
	logger zerolog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex

	lastMu sync.RWMutex
	last   string
}

// NewConsoleRenderer creates a renderer that writes samples from source to out.
func NewConsoleRenderer(id string, source SampleSource, out io.Writer, logger zerolog.Logger) *ConsoleRenderer {
	return &ConsoleRenderer{
		id:     id,
		source: source,
		out:    out,
		logger: logger,
	}
}

// Start subscribes to the sample stream and begins rendering.
func (c *ConsoleRenderer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		c.logger.Warn().Msg("ConsoleRenderer is already running")
		return errors.New("console renderer is already running")
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.running = true
	ch := c.source.Subscribe(c.id)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case sample := <-ch:
				c.render(sample)
			}
		}
	}()

	c.logger.Info().Str("subscriber_id", c.id).Msg("ConsoleRenderer started")
	return nil
}

// Stop unsubscribes and stops rendering. Stopping a stopped renderer is a
// no-op.
func (c *ConsoleRenderer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	c.source.Unsubscribe(c.id)
	c.cancel()
	c.wg.Wait()
	c.running = false

	c.logger.Info().Msg("ConsoleRenderer stopped")
	return nil
}

// Last returns the most recently rendered text.
func (c *ConsoleRenderer) Last() string {
	c.lastMu.RLock()
	defer c.lastMu.RUnlock()
	return c.last
}

func (c *ConsoleRenderer) render(sample models.LocationSample) {
	text := FormatSample(sample)

	c.lastMu.Lock()
	c.last = text
	c.lastMu.Unlock()

	fmt.Fprintln(c.out, text)
}

// FormatSample renders the coordinates of a sample as exact decimal text,
// e.g. "37.7749, -122.4194".
func FormatSample(sample models.LocationSample) string {
	return strconv.FormatFloat(sample.Latitude, 'f', -1, 64) +
		", " +
		strconv.FormatFloat(sample.Longitude, 'f', -1, 64)
}
