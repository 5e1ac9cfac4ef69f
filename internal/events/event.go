package events

import (
	"context"
	"fmt"
)

// Kind distinguishes the two notifications of the weather service.
type Kind int

const (
	KindUpdated Kind = iota
	KindError
)

func (k Kind) String() string {
	if k == KindError {
		return "error"
	}
	return "updated"
}

// ErrorReason is the payload of an error notification. Values are opaque
// integers on the wire.
type ErrorReason int

const (
	ReasonNetwork  ErrorReason = 0
	ReasonLocation ErrorReason = 1
	ReasonDisabled ErrorReason = 2
)

func (r ErrorReason) String() string {
	switch r {
	case ReasonNetwork:
		return "network"
	case ReasonLocation:
		return "location"
	case ReasonDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Event is one notification from the weather service.
type Event struct {
	Kind   Kind
	Reason ErrorReason
}

// Updated returns an update notification.
func Updated() Event {
	return Event{Kind: KindUpdated}
}

// Error returns an error notification carrying reason.
func Error(reason ErrorReason) Event {
	return Event{Kind: KindError, Reason: reason}
}

func (e Event) String() string {
	if e.Kind == KindError {
		return "error(" + e.Reason.String() + ")"
	}
	return "updated"
}

// Listener receives events. ID identifies the listener in a Registry.
type Listener interface {
	ID() string
	HandleEvent(Event)
}

type listenerFunc struct {
	id string
	fn func(Event)
}

func (l listenerFunc) ID() string          { return l.id }
func (l listenerFunc) HandleEvent(e Event) { l.fn(e) }

// ListenerFunc adapts a function to a Listener with the given identity.
func ListenerFunc(id string, fn func(Event)) Listener {
	return listenerFunc{id: id, fn: fn}
}

// Handler is called by a Source for every received event.
type Handler func(Event)

// Subscription is an active registration with a Source.
type Subscription interface {
	Close() error
}

// Source delivers events from the external update channel.
type Source interface {
	Subscribe(ctx context.Context, handler Handler) (Subscription, error)
}

// Publisher emits events onto an update channel.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
