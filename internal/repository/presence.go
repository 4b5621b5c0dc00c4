package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

var ErrPresenceNotFound = errors.New("presence not found")

type PresenceRepository interface {
	Get(ctx context.Context, room, user string) (*entity.PresenceEntry, error)
	Save(ctx context.Context, entry *entity.PresenceEntry) error
	// ListByRoom returns entries ordered by creation time.
	ListByRoom(ctx context.Context, room string) ([]*entity.PresenceEntry, error)
}

// dbPresence keeps one hash per room, one field per user.
type dbPresence struct {
	client *redis.Client
}

func NewPresenceRepository(client *redis.Client) PresenceRepository {
	return &dbPresence{
		client: client,
	}
}

func presenceKey(room string) string {
	return "presence:" + room
}

func (that *dbPresence) Get(ctx context.Context, room, user string) (*entity.PresenceEntry, error) {
	response, err := that.client.HGet(ctx, presenceKey(room), user).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPresenceNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}

	return unmarshalPresence(response)
}

func (that *dbPresence) Save(ctx context.Context, entry *entity.PresenceEntry) error {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal presence: %w", err)
	}

	if err = that.client.HSet(ctx, presenceKey(entry.Room), entry.User, entryJSON).Err(); err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}

	return nil
}

func (that *dbPresence) ListByRoom(ctx context.Context, room string) ([]*entity.PresenceEntry, error) {
	response, err := that.client.HGetAll(ctx, presenceKey(room)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list presence: %w", err)
	}

	entries := make([]*entity.PresenceEntry, 0, len(response))
	for _, raw := range response {
		entry, err := unmarshalPresence(raw)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	SortPresence(entries)

	return entries, nil
}

// SortPresence - oldest entry first, ties broken by user.
func SortPresence(entries []*entity.PresenceEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].User < entries[j].User
		}

		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

func unmarshalPresence(raw string) (*entity.PresenceEntry, error) {
	var entry entity.PresenceEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presence: %w", err)
	}

	return &entry, nil
}
