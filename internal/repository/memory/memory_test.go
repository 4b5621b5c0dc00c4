package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestRoomRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Duplicate codes are rejected", func(t *testing.T) {
		// Given: a stored room
		repo := NewRoomRepository()
		require.NoError(t, repo.Create(ctx, entity.NewRoom("room-1", "ABCDEF", "host", "Alice", testNow)))

		// When: another room claims the same code
		err := repo.Create(ctx, entity.NewRoom("room-2", "ABCDEF", "host-2", "Bob", testNow))

		// Then: ErrRoomCodeTaken is returned
		require.ErrorIs(t, err, repository.ErrRoomCodeTaken)
	})

	t.Run("Code is released when the room is deleted", func(t *testing.T) {
		repo := NewRoomRepository()
		require.NoError(t, repo.Create(ctx, entity.NewRoom("room-1", "ABCDEF", "host", "Alice", testNow)))
		require.NoError(t, repo.DeleteByID(ctx, "room-1"))

		err := repo.Create(ctx, entity.NewRoom("room-2", "ABCDEF", "host-2", "Bob", testNow))

		require.NoError(t, err)
	})
}

func TestRoomRepository_Isolation(t *testing.T) {
	ctx := context.Background()

	// Given: a stored room
	repo := NewRoomRepository()
	room := entity.NewRoom("room-1", "ABCDEF", "host", "Alice", testNow)
	require.NoError(t, repo.Create(ctx, room))

	// When: the caller's copy and a fetched copy are mutated without saving
	room.Status = entity.StatusFinished
	fetched, err := repo.GetByID(ctx, "room-1")
	require.NoError(t, err)
	fetched.Board[0] = entity.PlayerX

	// Then: the stored room is unchanged
	stored, err := repo.GetByID(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusWaiting, stored.Status)
	assert.True(t, stored.Board.IsEmpty())
}

func TestRoomRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repo := NewRoomRepository()

	older := entity.NewRoom("room-1", "AAAAAA", "host-1", "Alice", testNow)
	newer := entity.NewRoom("room-2", "BBBBBB", "host-2", "Bob", testNow.Add(time.Second))
	playing := entity.NewRoom("room-3", "CCCCCC", "host-3", "Carol", testNow.Add(2*time.Second))
	playing.Seat("guest", "Dave", testNow)

	for _, room := range []*entity.Room{older, newer, playing} {
		require.NoError(t, repo.Create(ctx, room))
	}

	t.Run("GetByCode is case-insensitive", func(t *testing.T) {
		room, err := repo.GetByCode(ctx, "bbbbbb")
		require.NoError(t, err)
		assert.Equal(t, "room-2", room.ID)
	})

	t.Run("ListByStatus returns newest first", func(t *testing.T) {
		rooms, err := repo.ListByStatus(ctx, entity.StatusWaiting)
		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal(t, "room-2", rooms[0].ID)
		assert.Equal(t, "room-1", rooms[1].ID)
	})

	t.Run("Missing rooms are reported", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "nope")
		require.ErrorIs(t, err, repository.ErrRoomNotFound)

		_, err = repo.GetByCode(ctx, "ZZZZZZ")
		require.ErrorIs(t, err, repository.ErrRoomNotFound)

		err = repo.Save(ctx, entity.NewRoom("nope", "ZZZZZZ", "h", "H", testNow))
		require.ErrorIs(t, err, repository.ErrRoomNotFound)

		err = repo.DeleteByID(ctx, "nope")
		require.ErrorIs(t, err, repository.ErrRoomNotFound)
	})
}

func TestPresenceRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPresenceRepository()

	// Given: two users in one room and one in another
	require.NoError(t, repo.Save(ctx, entity.NewPresenceEntry("p-2", "room-1", "bob", map[string]any{"name": "Bob"}, testNow.Add(time.Second))))
	require.NoError(t, repo.Save(ctx, entity.NewPresenceEntry("p-1", "room-1", "alice", map[string]any{"name": "Alice"}, testNow)))
	require.NoError(t, repo.Save(ctx, entity.NewPresenceEntry("p-3", "room-2", "carol", nil, testNow)))

	t.Run("ListByRoom is scoped and ordered by creation", func(t *testing.T) {
		entries, err := repo.ListByRoom(ctx, "room-1")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "alice", entries[0].User)
		assert.Equal(t, "bob", entries[1].User)
	})

	t.Run("Get returns a copy", func(t *testing.T) {
		entry, err := repo.Get(ctx, "room-1", "alice")
		require.NoError(t, err)
		entry.Data["name"] = "Mallory"

		again, err := repo.Get(ctx, "room-1", "alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice", again.Data["name"])
	})

	t.Run("Unknown entries are reported", func(t *testing.T) {
		_, err := repo.Get(ctx, "room-2", "alice")
		require.ErrorIs(t, err, repository.ErrPresenceNotFound)
	})
}
