package event_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/recordfsm/event"
)

type created struct {
	ID string
}

type removed struct {
	ID string
}

func TestPublish_RegistrationOrder(t *testing.T) {
	t.Parallel()

	bus := event.New()
	var order []string
	event.Subscribe(bus, func(_ context.Context, e created) error {
		order = append(order, "first:"+e.ID)
		return nil
	})
	event.Subscribe(bus, func(_ context.Context, e created) error {
		order = append(order, "second:"+e.ID)
		return nil
	})

	require.NoError(t, event.Publish(context.Background(), bus, created{ID: "42"}))
	assert.Equal(t, []string{"first:42", "second:42"}, order)
}

func TestPublish_ErrorStopsDelivery(t *testing.T) {
	t.Parallel()

	bus := event.New()
	errVeto := errors.New("not allowed")
	var secondCalled bool
	event.Subscribe(bus, func(_ context.Context, _ created) error {
		return errVeto
	})
	event.Subscribe(bus, func(_ context.Context, _ created) error {
		secondCalled = true
		return nil
	})

	err := event.Publish(context.Background(), bus, created{})
	require.ErrorIs(t, err, errVeto)
	assert.False(t, secondCalled)
}

func TestPublish_NoSubscribers(t *testing.T) {
	t.Parallel()

	bus := event.New()
	require.NoError(t, event.Publish(context.Background(), bus, created{}))
}

func TestPublish_TypeIsolation(t *testing.T) {
	t.Parallel()

	bus := event.New()
	var got []string
	event.Subscribe(bus, func(_ context.Context, e created) error {
		got = append(got, "created:"+e.ID)
		return nil
	})
	event.Subscribe(bus, func(_ context.Context, e removed) error {
		got = append(got, "removed:"+e.ID)
		return nil
	})

	require.NoError(t, event.Publish(context.Background(), bus, removed{ID: "7"}))
	assert.Equal(t, []string{"removed:7"}, got)
}

func TestPublish_Reentrant(t *testing.T) {
	t.Parallel()

	bus := event.New()
	var order []string
	event.Subscribe(bus, func(ctx context.Context, e created) error {
		order = append(order, "created")
		// Nested publish resolves fully before the outer call returns.
		return event.Publish(ctx, bus, removed{ID: e.ID})
	})
	event.Subscribe(bus, func(_ context.Context, _ removed) error {
		order = append(order, "removed")
		return nil
	})
	event.Subscribe(bus, func(_ context.Context, _ created) error {
		order = append(order, "created-tail")
		return nil
	})

	require.NoError(t, event.Publish(context.Background(), bus, created{ID: "1"}))
	assert.Equal(t, []string{"created", "removed", "created-tail"}, order)
}

func TestHasSubscribersAndClear(t *testing.T) {
	t.Parallel()

	bus := event.New()
	assert.False(t, event.HasSubscribers[created](bus))

	event.Subscribe(bus, func(_ context.Context, _ created) error { return nil })
	assert.True(t, event.HasSubscribers[created](bus))

	event.Clear[created](bus)
	assert.False(t, event.HasSubscribers[created](bus))
}

func TestSubscribe_NilHandlerIgnored(t *testing.T) {
	t.Parallel()

	bus := event.New()
	event.Subscribe[created](bus, nil)
	assert.False(t, event.HasSubscribers[created](bus))
}
