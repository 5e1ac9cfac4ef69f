package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// ActionUpdate and ActionError name the two notifications on the wire.
	ActionUpdate = "org.omnirom.omnijaws.WEATHER_UPDATE"
	ActionError  = "org.omnirom.omnijaws.WEATHER_ERROR"
)

// ErrUnknownAction is returned when decoding an action that is not a weather notification.
var ErrUnknownAction = errors.New("unknown weather action")

// Actions lists every action a transport has to listen on.
func Actions() []string {
	return []string{ActionUpdate, ActionError}
}

type errorPayload struct {
	Error *int `json:"error"`
}

// Encode returns the action name and payload for event.
func Encode(event Event) (string, []byte, error) {
	if event.Kind == KindUpdated {
		return ActionUpdate, []byte("{}"), nil
	}
	reason := int(event.Reason)
	body, err := json.Marshal(errorPayload{Error: &reason})
	if err != nil {
		return "", nil, err
	}
	return ActionError, body, nil
}

// Decode turns an action and its payload into an Event. A missing or
// unreadable error payload yields ReasonNetwork.
func Decode(action string, payload []byte) (Event, error) {
	switch action {
	case ActionUpdate:
		return Updated(), nil
	case ActionError:
		var p errorPayload
		if len(payload) == 0 || json.Unmarshal(payload, &p) != nil || p.Error == nil {
			return Error(ReasonNetwork), nil
		}
		return Error(ErrorReason(*p.Error)), nil
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}
