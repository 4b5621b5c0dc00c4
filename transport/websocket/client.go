package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendQueueSize  = 64
)

// Client is one websocket connection watching one room on behalf of one user.
type Client struct {
	logger *slog.Logger
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte

	roomID string
	userID string
}

func NewClient(logger *slog.Logger, hub *Hub, conn *websocket.Conn, roomID, userID string) *Client {
	return &Client{
		logger: logger.With("room", roomID, "user", userID),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		roomID: roomID,
		userID: userID,
	}
}

// ReadPump - reads client actions until the connection fails, then unregisters.
func (that *Client) ReadPump(ctx context.Context, dispatch func(ctx context.Context, client *Client, message *Message)) {
	defer func() {
		that.hub.Unregister(that)
		_ = that.conn.Close()
	}()

	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				that.logger.Warn("websocket closed unexpectedly", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			that.logger.Debug("failed to unmarshal message", "error", err)
			continue
		}

		dispatch(ctx, that, &message)
	}
}

// WritePump - writes queued messages and keeps the connection alive with pings.
func (that *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case message, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				that.logger.Debug("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
