package infrastructure

import (
	log "github.com/sirupsen/logrus"

	"luckybit/domain/events"
)

// NoopEventPublisher discards events. Used when NATS is not configured.
type NoopEventPublisher struct{}

func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

func (p *NoopEventPublisher) Publish(event events.Event) error {
	log.WithField("eventType", event.Type()).Debug("Event publishing disabled, dropping event")
	return nil
}
