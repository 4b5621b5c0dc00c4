package websocket

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Hub fans committed room and presence changes out to the clients watching that room.
type Hub struct {
	logger *slog.Logger

	mu     sync.Mutex
	rooms  map[string]map[*Client]struct{}
	closed bool
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "ws_hub"),
		rooms:  make(map[string]map[*Client]struct{}),
	}
}

// Register - returns false once the hub is closed.
func (that *Hub) Register(client *Client) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	clients, ok := that.rooms[client.roomID]
	if !ok {
		clients = make(map[*Client]struct{})
		that.rooms[client.roomID] = clients
	}

	clients[client] = struct{}{}

	that.logger.Debug("client registered", "room", client.roomID, "user", client.userID)

	return true
}

func (that *Hub) Unregister(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.drop(client)
}

// ClientsIn - number of clients watching the room.
func (that *Hub) ClientsIn(roomID string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.rooms[roomID])
}

// Send - queues a message for one client. Reports false when the client is gone or lagging.
func (that *Hub) Send(client *Client, message []byte) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[client.roomID][client]; !ok {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		that.drop(client)
		return false
	}
}

func (that *Hub) RoomUpdated(room *entity.Room) {
	that.broadcast(room.ID, ActionRoomUpdate, RoomPayload{Room: room})
}

// RoomDeleted - tells the watchers and disconnects them.
func (that *Hub) RoomDeleted(roomID string) {
	that.broadcast(roomID, ActionRoomDeleted, RoomDeletedPayload{RoomID: roomID})

	that.mu.Lock()
	defer that.mu.Unlock()

	for client := range that.rooms[roomID] {
		that.drop(client)
	}
}

func (that *Hub) PresenceUpdated(entry *entity.PresenceEntry) {
	that.broadcast(entry.Room, ActionPresenceUpdate, PresencePayload{Entry: entry})
}

// Close - disconnects every client and refuses new ones.
func (that *Hub) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true

	for _, clients := range that.rooms {
		for client := range clients {
			that.drop(client)
		}
	}
}

func (that *Hub) broadcast(roomID, action string, payload any) {
	message, err := encodeMessage(action, payload)
	if err != nil {
		that.logger.Error("failed to encode broadcast", "room", roomID, "action", action, "error", err)
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	for client := range that.rooms[roomID] {
		select {
		case client.send <- message:
		default:
			that.logger.Warn("client queue full, dropping client", "room", roomID, "user", client.userID)
			that.drop(client)
		}
	}
}

// drop - must be called with mu held. Closing send makes the write pump hang up.
func (that *Hub) drop(client *Client) {
	clients, ok := that.rooms[client.roomID]
	if !ok {
		return
	}

	if _, ok = clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(that.rooms, client.roomID)
	}
}
