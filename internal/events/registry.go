package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrNoSource is returned when a Registry has no source to subscribe to.
var ErrNoSource = errors.New("no event source configured")

// Recorder receives registry-level measurements. A nil Recorder is allowed.
type Recorder interface {
	EventDispatched(kind string, listeners int)
	SubscriptionChanged(active bool)
}

// Registry tracks listeners and fans events out to them. It holds exactly
// one subscription to its Source while at least one listener is registered.
type Registry struct {
	mu sync.Mutex

	source    Source
	listeners []Listener
	sub       Subscription

	log zerolog.Logger
	rec Recorder
}

// NewRegistry creates a Registry over source.
func NewRegistry(source Source, logger zerolog.Logger, rec Recorder) *Registry {
	return &Registry{
		source: source,
		log:    logger.With().Str("component", "Registry").Logger(),
		rec:    rec,
	}
}

// Add registers l. A listener that is already registered is moved to the end
// of the fanout order. The subscription is opened when l is the first
// listener; if that fails, l is not registered.
func (r *Registry) Add(l Listener) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(l.ID())
	r.listeners = append(r.listeners, l)

	if len(r.listeners) == 1 && r.sub == nil {
		if err := r.subscribeLocked(); err != nil {
			r.listeners = r.listeners[:0]
			return err
		}
	}
	return nil
}

// Remove unregisters l. The subscription is closed when no listeners remain.
func (r *Registry) Remove(l Listener) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.removeLocked(l.ID()) {
		return nil
	}
	if len(r.listeners) == 0 {
		return r.unsubscribeLocked()
	}
	return nil
}

// Dispatch delivers e to every listener registered when Dispatch was called,
// in registration order, on the calling goroutine.
func (r *Registry) Dispatch(e Event) {
	r.mu.Lock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	r.log.Debug().Stringer("event", e).Int("listeners", len(listeners)).Msg("dispatching event")
	for _, l := range listeners {
		l.HandleEvent(e)
	}
	if r.rec != nil {
		r.rec.EventDispatched(e.Kind.String(), len(listeners))
	}
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

// Subscribed reports whether the source subscription is active.
func (r *Registry) Subscribed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sub != nil
}

func (r *Registry) removeLocked(id string) bool {
	for i, existing := range r.listeners {
		if existing.ID() == id {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) subscribeLocked() error {
	if r.source == nil {
		return ErrNoSource
	}
	sub, err := r.source.Subscribe(context.Background(), r.Dispatch)
	if err != nil {
		r.log.Error().Err(err).Msg("subscribe failed")
		return fmt.Errorf("subscribe: %w", err)
	}
	r.sub = sub
	r.log.Debug().Msg("subscribed to update channel")
	if r.rec != nil {
		r.rec.SubscriptionChanged(true)
	}
	return nil
}

func (r *Registry) unsubscribeLocked() error {
	if r.sub == nil {
		return nil
	}
	err := r.sub.Close()
	r.sub = nil
	r.log.Debug().Msg("unsubscribed from update channel")
	if r.rec != nil {
		r.rec.SubscriptionChanged(false)
	}
	if err != nil {
		r.log.Warn().Err(err).Msg("closing subscription failed")
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}
