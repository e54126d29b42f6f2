package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"luckybit/domain/events"
)

const (
	eventStreamName    = "LUCKYBIT_EVENTS"
	eventSubjectPrefix = "luckybit.events"
)

// eventEnvelope is the wire format for published domain events
type eventEnvelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Payload   json.RawMessage `json:"payload"`
}

// NATSEventPublisher publishes domain events to NATS JetStream
type NATSEventPublisher struct {
	client *NATSClient
}

// NewNATSEventPublisher creates a publisher backed by the given client.
// It ensures the event stream exists before returning.
func NewNATSEventPublisher(client *NATSClient) (*NATSEventPublisher, error) {
	if err := client.EnsureStream(eventStreamName, []string{eventSubjectPrefix + ".>"}); err != nil {
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}
	return &NATSEventPublisher{client: client}, nil
}

// marshalEvent wraps a domain event in the wire envelope and derives its
// subject from the event type
func marshalEvent(event events.Event) (string, eventEnvelope, []byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return "", eventEnvelope{}, nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := eventEnvelope{
		EventID:   uuid.New().String(),
		EventType: string(event.Type()),
		Timestamp: time.Now().UTC(),
		Source:    "luckybit",
		Payload:   payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return "", eventEnvelope{}, nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", eventSubjectPrefix, event.Type())
	return subject, envelope, data, nil
}

// Publish serializes the event into an envelope and publishes it
func (p *NATSEventPublisher) Publish(event events.Event) error {
	subject, envelope, data, err := marshalEvent(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.client.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type(), err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
	}).Debug("Published event")
	return nil
}
