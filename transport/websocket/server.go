package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const defaultShutdownTimeout = 10 * time.Second

type roomService interface {
	GetRoom(ctx context.Context, roomID string) (*entity.Room, error)
	WatchRoom(ctx context.Context, roomID string, watch func(room *entity.Room)) error
	MakeMove(ctx context.Context, roomID, playerID string, position int) (*entity.Room, error)
	ResetGame(ctx context.Context, roomID, playerID string) (*entity.Room, error)
	LeaveRoom(ctx context.Context, roomID, playerID string) (*entity.Room, error)
}

type presenceService interface {
	UpdatePresence(ctx context.Context, room, user string, patch map[string]any) (*entity.PresenceEntry, error)
	Heartbeat(ctx context.Context, room, user string) (*entity.PresenceEntry, error)
}

type Server struct {
	logger   *slog.Logger
	hub      *Hub
	rooms    roomService
	presence presenceService
	upgrader websocket.Upgrader

	handlers map[string]func(ctx context.Context, client *Client, message *Message) error
}

func New(logger *slog.Logger, hub *Hub, rooms roomService, presence presenceService) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		hub:      hub,
		rooms:    rooms,
		presence: presence,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]func(context.Context, *Client, *Message) error),
	}

	server.handlers[ActionGameMove] = server.handleMove
	server.handlers[ActionGameReset] = server.handleReset
	server.handlers[ActionGameLeave] = server.handleLeave
	server.handlers[ActionPresenceChange] = server.handlePresenceChange
	server.handlers[ActionPresenceHeartbeat] = server.handleHeartbeat

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	return mux
}

// Start - starts WebSocket server and disconnects every client when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		that.logger.Info("WebSocket server listening", "port", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	that.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}

	that.logger.Info("WebSocket server stopped")

	return nil
}

// serveWS - upgrades GET /ws?room=<id>&user=<id> and sends the current room as the first message.
func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	roomID := req.URL.Query().Get("room")
	userID := req.URL.Query().Get("user")
	log := that.logger.With("method", "serveWS", "room", roomID, "user", userID)

	if roomID == "" || userID == "" {
		http.Error(writer, "room and user are required", http.StatusBadRequest)
		return
	}

	_, err := that.rooms.GetRoom(req.Context(), roomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		http.Error(writer, "room not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get room", "error", err)
		http.Error(writer, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Debug("failed to upgrade connection", "error", err)
		return
	}

	client := NewClient(that.logger, that.hub, conn, roomID, userID)
	if !that.hub.Register(client) {
		_ = conn.Close()
		return
	}

	log.Info("WebSocket connection established")

	go client.WritePump()

	if err = that.sendSnapshot(req.Context(), client); err != nil {
		log.Debug("room is gone before the snapshot", "error", err)
		that.hub.Unregister(client)
	}

	client.ReadPump(req.Context(), that.dispatch)

	log.Info("WebSocket connection closed")
}

// sendSnapshot - queues the current room for a registered client. The room is read under its lock,
// so the snapshot lands in the queue in order with the broadcasts of committed changes.
func (that *Server) sendSnapshot(ctx context.Context, client *Client) error {
	err := that.rooms.WatchRoom(ctx, client.roomID, func(room *entity.Room) {
		snapshot, err := encodeMessage(ActionRoomUpdate, RoomPayload{Room: room})
		if err != nil {
			that.logger.Error("failed to encode snapshot", "room", client.roomID, "error", err)
			return
		}

		that.hub.Send(client, snapshot)
	})
	if errors.Is(err, apperror.ErrRoomNotFound) {
		if deleted, encodeErr := encodeMessage(ActionRoomDeleted, RoomDeletedPayload{RoomID: client.roomID}); encodeErr == nil {
			that.hub.Send(client, deleted)
		}
	}

	if err != nil {
		return fmt.Errorf("failed to read room: %w", err)
	}

	return nil
}

// dispatch - runs the handler for the message action and reports failures to the sender only.
func (that *Server) dispatch(ctx context.Context, client *Client, message *Message) {
	handler, ok := that.handlers[message.Action]
	if !ok {
		that.reply(client, message.Action, fmt.Errorf("%w: unknown action %q", errBadMessage, message.Action))
		return
	}

	if err := handler(ctx, client, message); err != nil {
		that.reply(client, message.Action, err)
	}
}

func (that *Server) reply(client *Client, action string, err error) {
	that.logger.Debug("action rejected", "action", action, "room", client.roomID, "user", client.userID, "error", err)

	message, encodeErr := errorMessage(action, err)
	if encodeErr != nil {
		that.logger.Error("failed to encode error", "error", encodeErr)
		return
	}

	that.hub.Send(client, message)
}
