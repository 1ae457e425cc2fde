package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/geotraq/agent/internal/permissions"
	"github.com/geotraq/agent/internal/service_registry"
	"github.com/geotraq/agent/internal/services"
	"github.com/geotraq/agent/internal/utils"
	"github.com/geotraq/agent/pkg/file"
	"github.com/geotraq/agent/pkg/identity"
	"github.com/geotraq/agent/pkg/mqtt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	// Set up structured logging
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Lifecycle context: cancelled on SIGINT/SIGTERM, aborts a pending
	// permission prompt as well as the tracking loops.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig("configs/config.yaml", fileClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(config.Logging.Level); err == nil && config.Logging.Level != "" {
		logger = logger.Level(level)
	}

	// Initialize DeviceInfo
	deviceInfo := identity.NewDeviceInfo(config.Identity.DeviceFile, fileClient)
	if err := deviceInfo.LoadDeviceInfo(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load device information")
	}

	// Build the permission gate with the configured prompter
	var prompter permissions.Prompter
	switch config.Permissions.Mode {
	case "grant":
		prompter = &permissions.StaticPrompter{Granted: true}
	case "deny":
		prompter = &permissions.StaticPrompter{Granted: false}
	default:
		prompter = permissions.NewConsolePrompter(os.Stdin, os.Stderr)
	}
	gate := permissions.NewGate(config.Permissions.GrantsFile, fileClient, prompter, logger)

	// Initialize the shared MQTT connection when the MQTT sink is enabled
	var mqttClient mqtt.MQTTClient
	if config.Sinks.MQTT.Enabled {
		clientID := config.Sinks.MQTT.ClientID + "-" + uuid.New().String()
		logger.Info().Str("client_id", clientID).Msg("Using MQTT client ID")

		mqttService := mqtt.NewMqttService(fileClient)
		if err := mqttService.Initialize(config.Sinks.MQTT.Broker, clientID, config.Sinks.MQTT.CACertificate); err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
		}
		mqttClient = mqttService
		defer mqttService.Disconnect(250)
	}

	// Create the service registry and register services from configuration
	registry := service_registry.NewServiceRegistry(mqttClient, fileClient, gate, logger)
	if err := registry.RegisterServices(ctx, config, deviceInfo); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register services")
	}

	// Start all registered services
	if err := registry.StartServices(); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("Startup interrupted")
			return
		}
		if errors.Is(err, services.ErrPermissionDenied) {
			logger.Error().Msg("Location permission was denied, tracking will not start")
			os.Exit(1)
		}
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	<-ctx.Done()

	logger.Info().Msg("Shutting down gracefully...")
	if err := registry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop all services cleanly")
	}
	if err := registry.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to release service resources")
	}
}
