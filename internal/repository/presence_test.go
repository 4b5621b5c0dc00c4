package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/testing/suite"
)

func TestPresenceRepository_SaveAndGet(t *testing.T) {
	t.Run("Get_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		presenceRepo := NewPresenceRepository(st.Storage)

		// Given: a saved presence entry
		entry := entity.NewPresenceEntry("p-1", "room-1", "alice", map[string]any{"name": "Alice", "online": true}, testNow)
		require.NoError(t, presenceRepo.Save(ctx, entry))

		// When: Get is called for the same room and user
		stored, err := presenceRepo.Get(ctx, "room-1", "alice")

		// Then: the entry is returned with its data
		require.NoError(t, err)
		assert.Equal(t, "p-1", stored.ID)
		assert.Equal(t, map[string]any{"name": "Alice", "online": true}, stored.Data)
		assert.True(t, stored.UpdatedAt.Equal(testNow))
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		presenceRepo := NewPresenceRepository(st.Storage)

		// When: Get is called for a user that never reported
		stored, err := presenceRepo.Get(ctx, "room-1", "ghost")

		// Then: an ErrPresenceNotFound error should be returned
		require.ErrorIs(t, err, ErrPresenceNotFound)
		assert.Nil(t, stored)
	})
}

func TestPresenceRepository_ListByRoom(t *testing.T) {
	ctx, st := suite.New(t)

	presenceRepo := NewPresenceRepository(st.Storage)

	// Given: two users in room-1 and one in room-2
	require.NoError(t, presenceRepo.Save(ctx, entity.NewPresenceEntry("p-2", "room-1", "bob", nil, testNow.Add(time.Second))))
	require.NoError(t, presenceRepo.Save(ctx, entity.NewPresenceEntry("p-1", "room-1", "alice", nil, testNow)))
	require.NoError(t, presenceRepo.Save(ctx, entity.NewPresenceEntry("p-3", "room-2", "carol", nil, testNow)))

	// When: listing room-1
	entries, err := presenceRepo.ListByRoom(ctx, "room-1")

	// Then: only its entries come back, oldest first
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].User)
	assert.Equal(t, "bob", entries[1].User)
}
