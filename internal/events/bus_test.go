package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribersInOrder(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var got []string
	subA, err := bus.Subscribe(ctx, func(e Event) { got = append(got, "a:"+e.String()) })
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, func(e Event) { got = append(got, "b:"+e.String()) })
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, Updated()))
	assert.Equal(t, []string{"a:updated", "b:updated"}, got)

	require.NoError(t, subA.Close())
	require.NoError(t, subA.Close())
	assert.Equal(t, 1, bus.Subscribers())

	got = nil
	require.NoError(t, bus.Publish(ctx, Error(ReasonNetwork)))
	assert.Equal(t, []string{"b:error(network)"}, got)
}

func TestBusCloseFromHandler(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var sub Subscription
	calls := 0
	sub, err := bus.Subscribe(ctx, func(Event) {
		calls++
		_ = sub.Close()
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, Updated()))
	require.NoError(t, bus.Publish(ctx, Updated()))

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.Subscribers())
}
