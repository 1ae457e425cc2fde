package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/geotraq/agent/internal/models"
	"github.com/geotraq/agent/internal/permissions"
	"github.com/geotraq/agent/internal/sinks"
	"github.com/geotraq/agent/internal/utils"
	"github.com/geotraq/agent/pkg/identity"
	"github.com/geotraq/agent/pkg/location"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

// ErrPermissionDenied is returned by Start when the user has not granted
// the fine location capability.
var ErrPermissionDenied = errors.New("location permission denied")

// Status is the tracker's lifecycle state.
type Status string

const (
	// StatusStopped means no acquisition loop is registered.
	StatusStopped Status = "stopped"
	// StatusTracking means the acquisition loop is polling the provider.
	StatusTracking Status = "tracking"
)

// TrackerState is the observable state any renderer reads: the current
// lifecycle status and the most recently accepted sample.
type TrackerState struct {
	Status     Status
	LastSample *models.LocationSample
}

// PermissionGate guards the start of tracking. Satisfied by
// *permissions.Gate.
type PermissionGate interface {
	Ensure(ctx context.Context, capability permissions.Capability) (bool, error)
}

// TrackerService acquires location samples from a provider on a fixed
// interval and forwards the accepted ones to renderers and outbound sinks.
//
// Acquisition and delivery are decoupled by a bounded sample channel: the
// acquisition loop produces into it and a single dispatch loop drains it,
// so a slow sink never delays polling. When the channel is full the oldest
// queued sample is evicted in favor of the new one.
type TrackerService struct {
	// Configuration fields
	interval        time.Duration
	minDistanceM    float64
	bufferSize      int
	dispatchWorkers int

	// Dependencies
	baseCtx    context.Context
	deviceInfo identity.DeviceInfoInterface
	gate       PermissionGate
	provider   location.Provider
	sinks      []sinks.Sink
	logger     zerolog.Logger

	// Renderer fan-out
	subscribers cmap.ConcurrentMap[string, chan models.LocationSample]

	// Internal state management
	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	pool    *utils.WorkerPool

	stateMu sync.RWMutex
	state   TrackerState
}

// NewTrackerService creates a new TrackerService instance with the provided
// configuration. ctx is the agent's lifecycle context: cancelling it aborts
// a pending permission prompt and stops the acquisition loops.
func NewTrackerService(ctx context.Context, interval time.Duration, minDistanceM float64, bufferSize, dispatchWorkers int,
	deviceInfo identity.DeviceInfoInterface, gate PermissionGate, provider location.Provider,
	sinkList []sinks.Sink, logger zerolog.Logger) *TrackerService {

	if ctx == nil {
		ctx = context.Background()
	}
	if bufferSize < 1 {
		bufferSize = 16
	}
	if dispatchWorkers < 1 {
		dispatchWorkers = 1
	}

	return &TrackerService{
		baseCtx:         ctx,
		interval:        interval,
		minDistanceM:    minDistanceM,
		bufferSize:      bufferSize,
		dispatchWorkers: dispatchWorkers,
		deviceInfo:      deviceInfo,
		gate:            gate,
		provider:        provider,
		sinks:           sinkList,
		logger:          logger,
		subscribers:     cmap.New[chan models.LocationSample](),
		state:           TrackerState{Status: StatusStopped},
	}
}

// Start transitions the tracker from Stopped to Tracking. The transition is
// guarded by the permission gate: without a grant no subscription is
// registered and the state stays Stopped.
func (t *TrackerService) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		t.logger.Warn().Msg("TrackerService is already running")
		return errors.New("tracker service is already running")
	}

	granted, err := t.gate.Ensure(t.baseCtx, permissions.FineLocation)
	if err != nil {
		return err
	}
	if !granted {
		t.logger.Warn().Msg("Location permission denied, tracking will not start")
		return ErrPermissionDenied
	}

	t.ctx, t.cancel = context.WithCancel(t.baseCtx)
	t.pool = utils.NewWorkerPool(t.dispatchWorkers)
	t.running = true
	t.setStatus(StatusTracking)

	samples := make(chan location.Location, t.bufferSize)

	t.wg.Add(2)
	go func() {
		defer t.wg.Done()
		t.runAcquisitionLoop(t.ctx, samples)
	}()
	go func() {
		defer t.wg.Done()
		t.runDispatchLoop(samples)
	}()

	t.logger.Info().
		Dur("interval", t.interval).
		Float64("min_distance_m", t.minDistanceM).
		Int("buffer_size", t.bufferSize).
		Msg("TrackerService started")
	return nil
}

// Stop transitions the tracker to Stopped and unregisters the acquisition
// loop. Stopping an already stopped tracker is a no-op.
func (t *TrackerService) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		t.logger.Debug().Msg("TrackerService is not running")
		return nil
	}

	t.cancel()
	t.wg.Wait()
	t.pool.Shutdown()
	t.pool = nil

	t.running = false
	t.setStatus(StatusStopped)

	t.logger.Info().Msg("TrackerService stopped")
	return nil
}

// State returns a snapshot of the observable tracker state.
func (t *TrackerService) State() TrackerState {
	t.stateMu.RLock()
	defer t.stateMu.RUnlock()

	snapshot := TrackerState{Status: t.state.Status}
	if t.state.LastSample != nil {
		sample := *t.state.LastSample
		snapshot.LastSample = &sample
	}
	return snapshot
}

// Subscribe registers a renderer channel under the given id. Delivery to a
// subscriber is non-blocking; a slow subscriber misses samples rather than
// stalling the pipeline.
func (t *TrackerService) Subscribe(id string) <-chan models.LocationSample {
	ch := make(chan models.LocationSample, 8)
	t.subscribers.Set(id, ch)
	return ch
}

// Unsubscribe removes the renderer channel registered under id. The channel
// is left open; a reader should stop on its own context instead of waiting
// for a close.
func (t *TrackerService) Unsubscribe(id string) {
	t.subscribers.Remove(id)
}

// runAcquisitionLoop polls the provider on the configured interval and
// pushes accepted readings into the sample channel. It owns the channel and
// closes it on exit so the dispatch loop drains and terminates.
func (t *TrackerService) runAcquisitionLoop(ctx context.Context, samples chan location.Location) {
	defer close(samples)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	var last *location.Location
	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("TrackerService acquisition loop stopping")
			return
		case <-ticker.C:
			loc, err := t.provider.GetLocation()
			if err != nil {
				t.logger.Error().Err(err).Msg("Failed to get location from provider")
				continue
			}
			if !loc.Valid() {
				t.logger.Warn().
					Float64("latitude", loc.Latitude).
					Float64("longitude", loc.Longitude).
					Msg("Skipping location reading outside coordinate range")
				continue
			}
			if last != nil && t.minDistanceM > 0 && location.DistanceMeters(*last, loc) < t.minDistanceM {
				t.logger.Debug().Msg("Skipping location reading below displacement threshold")
				continue
			}

			accepted := loc
			last = &accepted
			t.enqueue(samples, loc)
		}
	}
}

// enqueue pushes a reading into the bounded channel, evicting the oldest
// queued reading when full so the freshest position wins.
func (t *TrackerService) enqueue(samples chan location.Location, loc location.Location) {
	select {
	case samples <- loc:
		return
	default:
	}

	select {
	case <-samples:
		t.logger.Debug().Msg("Sample buffer full, evicting oldest reading")
	default:
	}

	select {
	case samples <- loc:
	default:
	}
}

// runDispatchLoop drains the sample channel, stamps each reading with the
// device identity and receipt time, updates the observable state, fans out
// to subscribers and hands one delivery per sink to the worker pool.
func (t *TrackerService) runDispatchLoop(samples <-chan location.Location) {
	for loc := range samples {
		sample := models.LocationSample{
			DeviceID:  t.deviceInfo.GetDeviceID(),
			Timestamp: time.Now(),
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Accuracy:  loc.Accuracy,
		}

		t.stateMu.Lock()
		t.state.LastSample = &sample
		t.stateMu.Unlock()

		for item := range t.subscribers.IterBuffered() {
			select {
			case item.Val <- sample:
			default:
			}
		}

		for _, sink := range t.sinks {
			sink := sink
			t.pool.Submit(func() {
				if err := sink.Send(t.ctx, sample); err != nil {
					t.logger.Error().
						Err(err).
						Str("sink", sink.Name()).
						Msg("Failed to deliver location sample")
				}
			})
		}
	}
}

// setStatus updates the observable lifecycle status.
func (t *TrackerService) setStatus(status Status) {
	t.stateMu.Lock()
	t.state.Status = status
	t.stateMu.Unlock()
}
