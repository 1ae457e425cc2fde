package service_registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/geotraq/agent/internal/display"
	"github.com/geotraq/agent/internal/permissions"
	"github.com/geotraq/agent/internal/services"
	"github.com/geotraq/agent/internal/sinks"
	"github.com/geotraq/agent/internal/utils"
	"github.com/geotraq/agent/pkg/file"
	"github.com/geotraq/agent/pkg/identity"
	"github.com/geotraq/agent/pkg/location"
	"github.com/geotraq/agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// Service is the lifecycle contract every registered service implements.
type Service interface {
	Start() error
	Stop() error
}

// ServiceRegistry manages the lifecycle of the agent's services.
type ServiceRegistry struct {
	services    map[string]Service
	serviceKeys []string // registration order
	closers     []interface{ Close() error }

	mqttClient mqtt.MQTTClient
	fileClient file.FileOperations
	gate       *permissions.Gate
	Logger     zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(mqttClient mqtt.MQTTClient, fileClient file.FileOperations,
	gate *permissions.Gate, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]Service),
		mqttClient: mqttClient,
		fileClient: fileClient,
		gate:       gate,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// StartServices initiates all registered services in order. If a service
// fails to start, already started services are stopped again.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return err
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse registration order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// Close releases resources (providers, sinks) owned by registered services.
// Called after StopServices at teardown.
func (sr *ServiceRegistry) Close() error {
	var errs []error
	for _, c := range sr.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RegisterServices builds and registers the tracker and its renderer from
// the configuration. ctx is the agent's lifecycle context handed to the
// tracker.
func (sr *ServiceRegistry) RegisterServices(ctx context.Context, config *utils.Config, deviceInfo identity.DeviceInfoInterface) error {
	provider, err := sr.buildProvider(config)
	if err != nil {
		sr.Logger.Error().Err(err).Msg("Failed to create location provider")
		return err
	}
	sr.closers = append(sr.closers, provider)

	sinkList := sr.buildSinks(config)
	for _, s := range sinkList {
		sr.closers = append(sr.closers, s)
	}

	tracker := services.NewTrackerService(
		ctx,
		time.Duration(config.Tracker.Interval)*time.Second,
		config.Tracker.MinDistanceM,
		config.Tracker.BufferSize,
		config.Tracker.DispatchWorkers,
		deviceInfo,
		sr.gate,
		provider,
		sinkList,
		sr.Logger,
	)
	sr.RegisterService("tracker", tracker)

	renderer := display.NewConsoleRenderer("console", tracker, os.Stdout, sr.Logger)
	sr.RegisterService("display", renderer)

	return nil
}

// buildProvider assembles the configured positioning source.
func (sr *ServiceRegistry) buildProvider(config *utils.Config) (location.Provider, error) {
	newSensor := func() location.Provider {
		return location.NewDeviceSensorProvider(config.Provider.GPSDevicePort, config.Provider.GPSDeviceBaudRate)
	}

	switch config.Provider.Source {
	case "sensor":
		return newSensor(), nil
	case "geolocation":
		return location.NewGoogleGeolocationProvider(config.Provider.MapsAPIKey)
	case "fused":
		geo, err := location.NewGoogleGeolocationProvider(config.Provider.MapsAPIKey)
		if err != nil {
			return nil, err
		}
		return location.NewFusedProvider(newSensor(), geo), nil
	default:
		return nil, fmt.Errorf("unknown provider source: %q", config.Provider.Source)
	}
}

// buildSinks assembles the enabled outbound sinks.
func (sr *ServiceRegistry) buildSinks(config *utils.Config) []sinks.Sink {
	var sinkList []sinks.Sink

	if config.Sinks.HTTP.Enabled {
		sinkList = append(sinkList, sinks.NewHTTPSink(
			config.Sinks.HTTP.Endpoint,
			time.Duration(config.Sinks.HTTP.Timeout)*time.Second,
			config.Sinks.HTTP.MaxAttempts,
			time.Duration(config.Sinks.HTTP.RetryBackoff)*time.Second,
			sr.Logger,
		))
	}

	if config.Sinks.MQTT.Enabled && sr.mqttClient != nil {
		sinkList = append(sinkList, sinks.NewMQTTSink(
			config.Sinks.MQTT.Topic,
			config.Sinks.MQTT.QOS,
			sr.mqttClient,
			sr.Logger,
		))
	}

	return sinkList
}
