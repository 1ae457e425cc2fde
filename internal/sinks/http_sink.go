package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/geotraq/agent/internal/models"
	"github.com/rs/zerolog"
)

// HTTPSink POSTs each sample as JSON to a configured endpoint. Delivery is
// best effort: a failed send is retried up to maxAttempts with a fixed
// backoff, then dropped with a warning. Nothing is persisted.
type HTTPSink struct {
	endpoint     string
	client       *http.Client
	maxAttempts  int
	retryBackoff time.Duration
	logger       zerolog.Logger
}

// NewHTTPSink creates an HTTP sink for the given endpoint.
func NewHTTPSink(endpoint string, timeout time.Duration, maxAttempts int, retryBackoff time.Duration, logger zerolog.Logger) *HTTPSink {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &HTTPSink{
		endpoint:     endpoint,
		client:       &http.Client{Timeout: timeout},
		maxAttempts:  maxAttempts,
		retryBackoff: retryBackoff,
		logger:       logger,
	}
}

// Name implements Sink.
func (s *HTTPSink) Name() string {
	return "http"
}

// Send posts the sample, retrying transient failures. The returned error is
// the last attempt's failure; by then the sample has been dropped.
func (s *HTTPSink) Send(ctx context.Context, sample models.LocationSample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to serialize location sample: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(s.retryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = s.post(ctx, payload)
		if lastErr == nil {
			return nil
		}

		s.logger.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", s.maxAttempts).
			Msg("Failed to deliver location sample over HTTP")
	}

	s.logger.Warn().
		Float64("latitude", sample.Latitude).
		Float64("longitude", sample.Longitude).
		Msg("Dropping location sample after exhausting delivery attempts")
	return lastErr
}

func (s *HTTPSink) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Close implements Sink.
func (s *HTTPSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
