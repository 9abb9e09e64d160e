package events

import (
	"context"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"
	"encoding/json"
	"fmt"
)

// Event types
const (
	TypeUpdate  = "update"
	TypeDeleted = "deleted"
)

// Event represents a message published for one game.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// UpdatePayload is the payload for the "update" and "deleted" events.
type UpdatePayload struct {
	State *game.State `json:"state"`
}

// Bus fans game state changes out to subscribers of that game.
type Bus interface {
	Publish(ctx context.Context, eventType string, state *game.State) error
	// Subscribe returns a channel of events for gameID and a function that
	// ends the subscription and closes the channel.
	Subscribe(ctx context.Context, gameID string) (<-chan Event, func(), error)
}

// GameChannel is the Pub/Sub channel of one game.
func GameChannel(gameID string) string {
	return fmt.Sprintf("channel:game:%s", gameID)
}

// NewEvent wraps a state into an event envelope.
func NewEvent(eventType string, state *game.State) (Event, error) {
	payload, err := json.Marshal(UpdatePayload{State: state})
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: payload}, nil
}

// State decodes the state carried by the event.
func (e Event) State() (*game.State, error) {
	var payload UpdatePayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	if payload.State == nil {
		return nil, fmt.Errorf("%s payload has no state", e.Type)
	}
	return payload.State, nil
}
