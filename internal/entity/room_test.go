package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestNewRoom(t *testing.T) {
	// Given: a host creating a room with a lower-case code
	room := NewRoom("room-1", "ab12cd", "host-1", "Alice", testNow)

	// Then: the room waits for a guest with an empty board and X to move
	expected := &Room{
		ID:             "room-1",
		Code:           "AB12CD",
		HostID:         "host-1",
		HostName:       "Alice",
		Status:         StatusWaiting,
		CurrentTurn:    PlayerX,
		CreatedAt:      testNow,
		LastActivityAt: testNow,
	}

	require.Equal(t, expected, room)
	assert.True(t, room.Board.IsEmpty())
	assert.False(t, room.HasGuest())
}

func TestRoomStatusMethods(t *testing.T) {
	t.Run("IsWaiting returns true when room status is waiting", func(t *testing.T) {
		room := &Room{Status: StatusWaiting}
		assert.True(t, room.IsWaiting())
		assert.False(t, room.IsPlaying())
	})

	t.Run("IsPlaying returns true when room status is playing", func(t *testing.T) {
		room := &Room{Status: StatusPlaying}
		assert.True(t, room.IsPlaying())
		assert.False(t, room.IsFinished())
	})

	t.Run("IsFinished returns true when room status is finished", func(t *testing.T) {
		room := &Room{Status: StatusFinished}
		assert.True(t, room.IsFinished())
		assert.False(t, room.IsWaiting())
	})
}

func TestRoom_MarkOf(t *testing.T) {
	room := &Room{HostID: "host", GuestID: "guest"}

	t.Run("Host plays X", func(t *testing.T) {
		mark, ok := room.MarkOf("host")
		require.True(t, ok)
		assert.Equal(t, PlayerX, mark)
	})

	t.Run("Guest plays O", func(t *testing.T) {
		mark, ok := room.MarkOf("guest")
		require.True(t, ok)
		assert.Equal(t, PlayerO, mark)
	})

	t.Run("Strangers have no mark", func(t *testing.T) {
		_, ok := room.MarkOf("stranger")
		assert.False(t, ok)
	})

	t.Run("Empty player id never matches an empty guest seat", func(t *testing.T) {
		// Given: a room without a guest
		lonely := &Room{HostID: "host"}

		// When: resolving the empty id
		_, ok := lonely.MarkOf("")

		// Then: it is not a participant
		assert.False(t, ok)
		assert.False(t, lonely.IsParticipant(""))
	})
}

func TestRoom_SeatAndUnseat(t *testing.T) {
	// Given: a waiting room
	room := NewRoom("room-1", "ABCDEF", "host", "Alice", testNow)
	later := testNow.Add(time.Minute)

	// When: a guest takes the seat
	room.Seat("guest", "Bob", later)

	// Then: the game is on
	assert.Equal(t, StatusPlaying, room.Status)
	assert.Equal(t, "guest", room.GuestID)
	assert.Equal(t, "Bob", room.GuestName)
	assert.Equal(t, later, room.LastActivityAt)

	// When: some moves are made and the guest leaves
	room.Board[0] = PlayerX
	room.CurrentTurn = PlayerO
	room.Unseat(later.Add(time.Minute))

	// Then: the room is back in the lobby with a clean board
	assert.Equal(t, StatusWaiting, room.Status)
	assert.Empty(t, room.GuestID)
	assert.Empty(t, room.GuestName)
	assert.True(t, room.Board.IsEmpty())
	assert.Equal(t, PlayerX, room.CurrentTurn)
	assert.Empty(t, room.Winner)
}

func TestRoom_Clone(t *testing.T) {
	// Given: a room with a move on the board
	room := NewRoom("room-1", "ABCDEF", "host", "Alice", testNow)
	room.Board[4] = PlayerX

	// When: the clone is modified
	clone := room.Clone()
	clone.Board[0] = PlayerO
	clone.Status = StatusFinished

	// Then: the original is untouched
	assert.Equal(t, EmptyCell, room.Board[0])
	assert.Equal(t, StatusWaiting, room.Status)
	assert.Equal(t, PlayerX, clone.Board[4])
}

func TestBoard_JSON(t *testing.T) {
	t.Run("Empty cells are encoded as null", func(t *testing.T) {
		// Given: a board with two marks
		board := Board{PlayerX, EmptyCell, EmptyCell, EmptyCell, PlayerO}

		// When: encoding it
		data, err := json.Marshal(board)
		require.NoError(t, err)

		// Then: it is a nine element array with nulls
		assert.JSONEq(t, `["X",null,null,null,"O",null,null,null,null]`, string(data))
	})

	t.Run("Null and empty string cells decode as empty", func(t *testing.T) {
		var board Board

		err := json.Unmarshal([]byte(`["X","",null,null,"O",null,null,null,"X"]`), &board)

		require.NoError(t, err)
		assert.Equal(t, Board{PlayerX, "", "", "", PlayerO, "", "", "", PlayerX}, board)
	})

	t.Run("Wrong length is rejected", func(t *testing.T) {
		var board Board

		err := json.Unmarshal([]byte(`["X","O"]`), &board)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "board must have 9 cells")
	})
}

func TestBoard_IsFull(t *testing.T) {
	assert.False(t, Board{}.IsFull())
	assert.True(t, Board{
		PlayerX, PlayerO, PlayerX,
		PlayerO, PlayerX, PlayerO,
		PlayerO, PlayerX, PlayerO,
	}.IsFull())
}

func TestNormalizeRoomCode(t *testing.T) {
	assert.Equal(t, "AB12CD", NormalizeRoomCode(" ab12Cd "))
}

func TestRoom_JSON(t *testing.T) {
	now := testNow

	t.Run("Waiting room writes nulls", func(t *testing.T) {
		room := NewRoom("room-1", "abc123", "host", "Alice", now)

		data, err := json.Marshal(room)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Nil(t, decoded["guest_id"])
		assert.Nil(t, decoded["guest_name"])
		assert.Nil(t, decoded["winner"])
		assert.Equal(t, "ABC123", decoded["room_code"])
		assert.Equal(t, "X", decoded["current_turn"])
		assert.Len(t, decoded["board"], BoardSize)
	})

	t.Run("Nulls read back as empty strings", func(t *testing.T) {
		room := NewRoom("room-1", "abc123", "host", "Alice", now)
		room.Seat("guest", "Bob", now)

		data, err := json.Marshal(room)
		require.NoError(t, err)

		var decoded Room
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, *room, decoded)

		room.Unseat(now)
		data, err = json.Marshal(room)
		require.NoError(t, err)

		decoded = Room{}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Empty(t, decoded.GuestID)
		assert.Empty(t, decoded.Winner)
	})
}
