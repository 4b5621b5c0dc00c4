package websocket

import (
	"context"
	"errors"
	"fmt"
)

var errBadMessage = errors.New("bad message")

// Successful actions reply through the hub broadcast triggered by the committed change.

func (that *Server) handleMove(ctx context.Context, client *Client, message *Message) error {
	var payload MovePayload
	if err := decodePayload(message, &payload); err != nil {
		return fmt.Errorf("%w: %w", errBadMessage, err)
	}

	if payload.Position == nil {
		return fmt.Errorf("%w: position is required", errBadMessage)
	}

	if _, err := that.rooms.MakeMove(ctx, client.roomID, client.userID, *payload.Position); err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	return nil
}

func (that *Server) handleReset(ctx context.Context, client *Client, _ *Message) error {
	if _, err := that.rooms.ResetGame(ctx, client.roomID, client.userID); err != nil {
		return fmt.Errorf("failed to reset game: %w", err)
	}

	return nil
}

func (that *Server) handleLeave(ctx context.Context, client *Client, _ *Message) error {
	if _, err := that.rooms.LeaveRoom(ctx, client.roomID, client.userID); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	return nil
}

func (that *Server) handlePresenceChange(ctx context.Context, client *Client, message *Message) error {
	var payload PresenceChangePayload
	if err := decodePayload(message, &payload); err != nil {
		return fmt.Errorf("%w: %w", errBadMessage, err)
	}

	if _, err := that.presence.UpdatePresence(ctx, client.roomID, client.userID, payload.Data); err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}

	return nil
}

func (that *Server) handleHeartbeat(ctx context.Context, client *Client, _ *Message) error {
	if _, err := that.presence.Heartbeat(ctx, client.roomID, client.userID); err != nil {
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}

	return nil
}
