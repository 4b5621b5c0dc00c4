package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"

	PlayerX = "X"
	PlayerO = "O"
	Draw    = "draw"

	EmptyCell = ""

	BoardSize      = 9
	RoomCodeLength = 6
)

// Board is the row-major 3x3 grid, index 0 is top-left and 8 is bottom-right.
type Board [BoardSize]string

// MarshalJSON - empty cells are written as null.
func (that Board) MarshalJSON() ([]byte, error) {
	cells := make([]*string, BoardSize)
	for i := range that {
		if that[i] != EmptyCell {
			cells[i] = &that[i]
		}
	}

	return json.Marshal(cells)
}

func (that *Board) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*that = Board{}
		return nil
	}

	var cells []*string
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("failed to unmarshal board: %w", err)
	}

	if len(cells) != BoardSize {
		return fmt.Errorf("board must have %d cells, got %d", BoardSize, len(cells))
	}

	for i, cell := range cells {
		that[i] = EmptyCell
		if cell != nil {
			that[i] = *cell
		}
	}

	return nil
}

func (that Board) IsEmpty() bool {
	return that == Board{}
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// Room is a two-player session. Empty GuestID, GuestName and Winner stand for null.
type Room struct {
	ID             string    `json:"id"`
	Code           string    `json:"room_code"`
	HostID         string    `json:"host_id"`
	HostName       string    `json:"host_name"`
	GuestID        string    `json:"guest_id"`
	GuestName      string    `json:"guest_name"`
	Status         string    `json:"status"`
	Board          Board     `json:"board"`
	CurrentTurn    string    `json:"current_turn"`
	Winner         string    `json:"winner"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

func NewRoom(id, code, hostID, hostName string, now time.Time) *Room {
	return &Room{
		ID:             id,
		Code:           NormalizeRoomCode(code),
		HostID:         hostID,
		HostName:       hostName,
		Status:         StatusWaiting,
		CurrentTurn:    PlayerX,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// NormalizeRoomCode - room codes are matched case-insensitively.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsPlaying() bool {
	return that.Status == StatusPlaying
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Room) HasGuest() bool {
	return that.GuestID != ""
}

func (that *Room) IsHost(playerID string) bool {
	return playerID != "" && that.HostID == playerID
}

func (that *Room) IsGuest(playerID string) bool {
	return playerID != "" && that.GuestID == playerID
}

func (that *Room) IsParticipant(playerID string) bool {
	return that.IsHost(playerID) || that.IsGuest(playerID)
}

// MarkOf - host plays X, guest plays O.
func (that *Room) MarkOf(playerID string) (string, bool) {
	switch {
	case that.IsHost(playerID):
		return PlayerX, true
	case that.IsGuest(playerID):
		return PlayerO, true
	default:
		return "", false
	}
}

func (that *Room) Seat(guestID, guestName string, now time.Time) {
	that.GuestID = guestID
	that.GuestName = guestName
	that.Status = StatusPlaying
	that.LastActivityAt = now
}

// ClearBoard - starts a fresh round: empty board, X to move, no winner.
func (that *Room) ClearBoard(now time.Time) {
	that.Board = Board{}
	that.CurrentTurn = PlayerX
	that.Winner = ""
	that.LastActivityAt = now
}

// Unseat - removes the guest and sends the room back to the lobby.
func (that *Room) Unseat(now time.Time) {
	that.GuestID = ""
	that.GuestName = ""
	that.Status = StatusWaiting
	that.ClearBoard(now)
}

func (that *Room) Clone() *Room {
	clone := *that
	return &clone
}

// MarshalJSON - writes empty guest fields and winner as null.
func (that *Room) MarshalJSON() ([]byte, error) {
	type plain Room

	return json.Marshal(struct {
		*plain
		GuestID   *string `json:"guest_id"`
		GuestName *string `json:"guest_name"`
		Winner    *string `json:"winner"`
	}{
		plain:     (*plain)(that),
		GuestID:   nullable(that.GuestID),
		GuestName: nullable(that.GuestName),
		Winner:    nullable(that.Winner),
	})
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}

	return &value
}
