// Package eventbus provides the notification sink for execution lifecycle
// events. Publication is fire-and-forget: orchestration outcomes never
// depend on it.
package eventbus

import (
	"context"

	"github.com/cutoverlabs/cutover/pkg/events"
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

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
