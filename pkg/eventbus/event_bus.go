// Package eventbus provides event-driven communication between the webhook
// receiver, the scheduler and the engine worker.
package eventbus

import (
	"context"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the decoded event struct.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
