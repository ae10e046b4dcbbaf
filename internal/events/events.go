// Package events carries domain events from the services to the views that
// display them: WebSocket clients, other API instances via Redis, and kitchen
// displays via RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Event is a change notification. Payload is the JSON of the changed entity.
type Event struct {
	Type       string          `json:"type"`
	Topic      string          `json:"topic"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// New marshals payload into an Event stamped with the current time.
func New(topic, eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		Type:       eventType,
		Topic:      topic,
		Payload:    data,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
