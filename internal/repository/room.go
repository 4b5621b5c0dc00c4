package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomCodeTaken = errors.New("room code is already taken")
)

var roomStatuses = []string{entity.StatusWaiting, entity.StatusPlaying, entity.StatusFinished}

type RoomRepository interface {
	// Create stores a new room and reserves its code. Returns ErrRoomCodeTaken when the code is in use.
	Create(ctx context.Context, room *entity.Room) error
	Save(ctx context.Context, room *entity.Room) error

	GetByID(ctx context.Context, id string) (*entity.Room, error)
	GetByCode(ctx context.Context, code string) (*entity.Room, error)
	// ListByStatus returns rooms newest first.
	ListByStatus(ctx context.Context, status string) ([]*entity.Room, error)

	DeleteByID(ctx context.Context, id string) error
}

type dbRoom struct {
	client *redis.Client
}

func NewRoomRepository(client *redis.Client) RoomRepository {
	return &dbRoom{
		client: client,
	}
}

func roomKey(id string) string {
	return "room:" + id
}

func roomCodeKey(code string) string {
	return "room:code:" + code
}

func roomStatusKey(status string) string {
	return "rooms:status:" + status
}

func (that *dbRoom) Create(ctx context.Context, room *entity.Room) error {
	reserved, err := that.client.SetNX(ctx, roomCodeKey(room.Code), room.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve room code: %w", err)
	}

	if !reserved {
		return fmt.Errorf("%w: %s", ErrRoomCodeTaken, room.Code)
	}

	if err = that.Save(ctx, room); err != nil {
		// the room was never stored, so the code goes back to the pool
		that.client.Del(ctx, roomCodeKey(room.Code))

		return err
	}

	return nil
}

func (that *dbRoom) Save(ctx context.Context, room *entity.Room) error {
	roomJSON, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("could not marshal room: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, roomKey(room.ID), roomJSON, 0)

		for _, status := range roomStatuses {
			if status != room.Status {
				pipe.ZRem(ctx, roomStatusKey(status), room.ID)
			}
		}

		pipe.ZAdd(ctx, roomStatusKey(room.Status), redis.Z{
			Score:  float64(room.CreatedAt.UnixMilli()),
			Member: room.ID,
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (that *dbRoom) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	response, err := that.client.Get(ctx, roomKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by id: %w", err)
	}

	return unmarshalRoom(response)
}

func (that *dbRoom) GetByCode(ctx context.Context, code string) (*entity.Room, error) {
	id, err := that.client.Get(ctx, roomCodeKey(entity.NormalizeRoomCode(code))).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by code: %w", err)
	}

	return that.GetByID(ctx, id)
}

func (that *dbRoom) ListByStatus(ctx context.Context, status string) ([]*entity.Room, error) {
	ids, err := that.client.ZRevRange(ctx, roomStatusKey(status), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list room ids: %w", err)
	}

	if len(ids) == 0 {
		return []*entity.Room{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = roomKey(id)
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}

	rooms := make([]*entity.Room, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			// deleted between the index read and the fetch
			continue
		}

		room, err := unmarshalRoom(raw)
		if err != nil {
			return nil, err
		}

		if room.Status == status {
			rooms = append(rooms, room)
		}
	}

	return rooms, nil
}

func (that *dbRoom) DeleteByID(ctx context.Context, id string) error {
	room, err := that.GetByID(ctx, id)
	if err != nil {
		return err
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, roomKey(id), roomCodeKey(room.Code))

		for _, status := range roomStatuses {
			pipe.ZRem(ctx, roomStatusKey(status), id)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete room by ID: %w", err)
	}

	return nil
}

func unmarshalRoom(raw string) (*entity.Room, error) {
	var room entity.Room
	if err := json.Unmarshal([]byte(raw), &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}
