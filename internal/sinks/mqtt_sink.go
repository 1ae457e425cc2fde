package sinks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/geotraq/agent/internal/models"
	"github.com/geotraq/agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// MQTTSink publishes each sample as JSON on a broker topic.
type MQTTSink struct {
	topic      string
	qos        int
	mqttClient mqtt.MQTTClient
	logger     zerolog.Logger
}

// NewMQTTSink creates an MQTT sink publishing on the given topic.
func NewMQTTSink(topic string, qos int, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *MQTTSink {
	return &MQTTSink{
		topic:      topic,
		qos:        qos,
		mqttClient: mqttClient,
		logger:     logger,
	}
}

// Name implements Sink.
func (s *MQTTSink) Name() string {
	return "mqtt"
}

// Send publishes the sample and waits for broker acknowledgement or for the
// context to be cancelled, whichever comes first.
func (s *MQTTSink) Send(ctx context.Context, sample models.LocationSample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to serialize location sample: %w", err)
	}

	token := s.mqttClient.Publish(s.topic, byte(s.qos), false, payload)

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			s.logger.Warn().
				Err(err).
				Str("topic", s.topic).
				Msg("Failed to publish location sample to MQTT")
			return err
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements Sink. The shared broker connection is owned by the
// caller, so there is nothing to release here.
func (s *MQTTSink) Close() error {
	return nil
}
