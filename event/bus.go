package event

import (
	"context"
	"reflect"
	"slices"
	"sync"
)

// Handler processes one event. Returning an error aborts delivery to later
// subscribers and propagates to the publisher.
type Handler[T any] func(ctx context.Context, ev T) error

// Bus routes events to subscribers by event type. The zero value is not
// usable; construct with New. Subscribe and Publish are safe for concurrent
// use, though delivery itself is always synchronous on the publishing
// goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]any
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[reflect.Type][]any)}
}

// Subscribe registers a handler for events of type T. Handlers run in
// registration order.
func Subscribe[T any](bus *Bus, handler Handler[T]) {
	if handler == nil {
		return
	}
	key := reflect.TypeOf((*T)(nil)).Elem()

	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[key] = append(bus.handlers[key], handler)
}

// Publish delivers ev to every subscriber of T in registration order,
// stopping at the first handler error, which is returned. Handlers may
// publish further events or subscribe re-entrantly; the handler list is
// snapshotted before delivery, so re-entrant subscriptions take effect on
// the next publish.
func Publish[T any](ctx context.Context, bus *Bus, ev T) error {
	key := reflect.TypeOf((*T)(nil)).Elem()

	bus.mu.RLock()
	handlers := slices.Clone(bus.handlers[key])
	bus.mu.RUnlock()

	for _, h := range handlers {
		if err := h.(Handler[T])(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// HasSubscribers reports whether any handler is registered for T.
func HasSubscribers[T any](bus *Bus) bool {
	key := reflect.TypeOf((*T)(nil)).Elem()

	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.handlers[key]) > 0
}

// Clear drops every handler registered for T.
func Clear[T any](bus *Bus) {
	key := reflect.TypeOf((*T)(nil)).Elem()

	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.handlers, key)
}
