package events

import (
	"context"
	"sync"
)

// Bus is an in-process update channel. Publish delivers synchronously to
// every current subscriber.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]Handler
	order    []int
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers handler until the returned Subscription is closed.
func (b *Bus) Subscribe(_ context.Context, handler Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.order = append(b.order, id)
	return &busSubscription{bus: b, id: id}, nil
}

// Publish delivers event to all subscribers.
func (b *Bus) Publish(_ context.Context, event Event) error {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}

// Subscribers returns the number of open subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.handlers[id]; !ok {
		return
	}
	delete(b.handlers, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

type busSubscription struct {
	bus  *Bus
	id   int
	once sync.Once
}

func (s *busSubscription) Close() error {
	s.once.Do(func() { s.bus.unsubscribe(s.id) })
	return nil
}
