// Package event provides a typed, strictly synchronous event bus.
//
// Subscribers are keyed by event type and invoked in registration order on
// the publisher's call stack. A subscriber returning an error stops delivery
// and propagates to the publisher, which gives publishers veto semantics:
// nothing is logged-and-swallowed on the bus's behalf.
//
// Publishing from inside a handler is supported; the nested publish runs to
// completion before the outer one continues. There are no goroutines, no
// buffering and no delivery guarantees beyond the call returning.
//
//	bus := event.New()
//	event.Subscribe(bus, func(ctx context.Context, e Created) error {
//	    return nil
//	})
//	if err := event.Publish(ctx, bus, Created{ID: "42"}); err != nil {
//	    // a subscriber rejected the event
//	}
package event
