package eventbus

import (
	"context"

	"github.com/amirasaad/payledger/pkg/domain/events"
)

// HandlerFunc processes one event.
type HandlerFunc func(ctx context.Context, event events.Event) error

// Bus defines the contract for publishing and subscribing to domain events.
type Bus interface {
	Register(eventType events.EventType, handler HandlerFunc)
	Emit(ctx context.Context, event events.Event) error
}
