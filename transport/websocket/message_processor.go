package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Server to client actions.
const (
	ActionRoomUpdate     = "room:update"
	ActionRoomDeleted    = "room:deleted"
	ActionPresenceUpdate = "presence:update"
	ActionError          = "error"
)

const kindBadRequest = "BadRequest"

// Client to server actions.
const (
	ActionGameMove          = "game:move"
	ActionGameReset         = "game:reset"
	ActionGameLeave         = "game:leave"
	ActionPresenceChange    = "presence:update"
	ActionPresenceHeartbeat = "presence:heartbeat"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RoomPayload struct {
	Room *entity.Room `json:"room"`
}

type RoomDeletedPayload struct {
	RoomID string `json:"room_id"`
}

type PresencePayload struct {
	Entry *entity.PresenceEntry `json:"entry"`
}

type ErrorPayload struct {
	Action  string `json:"action"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type MovePayload struct {
	Position *int `json:"position"`
}

type PresenceChangePayload struct {
	Data map[string]any `json:"data"`
}

func encodeMessage(action string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	message, err := json.Marshal(Message{Action: action, Payload: data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return message, nil
}

func errorMessage(action string, err error) ([]byte, error) {
	kind := string(apperror.KindOf(err))
	message := err.Error()

	switch {
	case errors.Is(err, errBadMessage):
		kind = kindBadRequest
	case kind == string(apperror.KindInternal):
		message = "internal error"
	}

	return encodeMessage(ActionError, ErrorPayload{Action: action, Kind: kind, Message: message})
}

// decodePayload - an absent payload leaves target untouched.
func decodePayload(message *Message, target any) error {
	if len(message.Payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(message.Payload, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return nil
}
