// Package memory keeps rooms and presence entries in process memory.
// Every value is copied on the way in and out, so callers never share state with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
)

type roomRepository struct {
	mu     sync.RWMutex
	byID   map[string]*entity.Room
	byCode map[string]string
}

func NewRoomRepository() repository.RoomRepository {
	return &roomRepository{
		byID:   make(map[string]*entity.Room),
		byCode: make(map[string]string),
	}
}

func (that *roomRepository) Create(_ context.Context, room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.byCode[room.Code]; ok {
		return fmt.Errorf("%w: %s", repository.ErrRoomCodeTaken, room.Code)
	}

	that.byCode[room.Code] = room.ID
	that.byID[room.ID] = room.Clone()

	return nil
}

func (that *roomRepository) Save(_ context.Context, room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.byID[room.ID]; !ok {
		return repository.ErrRoomNotFound
	}

	that.byID[room.ID] = room.Clone()

	return nil
}

func (that *roomRepository) GetByID(_ context.Context, id string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.byID[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}

	return room.Clone(), nil
}

func (that *roomRepository) GetByCode(ctx context.Context, code string) (*entity.Room, error) {
	that.mu.RLock()
	id, ok := that.byCode[entity.NormalizeRoomCode(code)]
	that.mu.RUnlock()

	if !ok {
		return nil, repository.ErrRoomNotFound
	}

	return that.GetByID(ctx, id)
}

func (that *roomRepository) ListByStatus(_ context.Context, status string) ([]*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	rooms := make([]*entity.Room, 0)
	for _, room := range that.byID {
		if room.Status == status {
			rooms = append(rooms, room.Clone())
		}
	}

	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID > rooms[j].ID
		}

		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})

	return rooms, nil
}

func (that *roomRepository) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.byID[id]
	if !ok {
		return repository.ErrRoomNotFound
	}

	delete(that.byCode, room.Code)
	delete(that.byID, id)

	return nil
}

type presenceKey struct {
	room string
	user string
}

type presenceRepository struct {
	mu      sync.RWMutex
	entries map[presenceKey]*entity.PresenceEntry
}

func NewPresenceRepository() repository.PresenceRepository {
	return &presenceRepository{
		entries: make(map[presenceKey]*entity.PresenceEntry),
	}
}

func (that *presenceRepository) Get(_ context.Context, room, user string) (*entity.PresenceEntry, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	entry, ok := that.entries[presenceKey{room: room, user: user}]
	if !ok {
		return nil, repository.ErrPresenceNotFound
	}

	return entry.Clone(), nil
}

func (that *presenceRepository) Save(_ context.Context, entry *entity.PresenceEntry) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.entries[presenceKey{room: entry.Room, user: entry.User}] = entry.Clone()

	return nil
}

func (that *presenceRepository) ListByRoom(_ context.Context, room string) ([]*entity.PresenceEntry, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	entries := make([]*entity.PresenceEntry, 0)
	for key, entry := range that.entries {
		if key.room == room {
			entries = append(entries, entry.Clone())
		}
	}

	repository.SortPresence(entries)

	return entries, nil
}
