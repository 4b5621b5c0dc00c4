// Package postgres stores rooms and presence entries in PostgreSQL through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
)

type roomRecord struct {
	ID             string       `gorm:"primaryKey"`
	Code           string       `gorm:"uniqueIndex;size:6;not null"`
	HostID         string       `gorm:"not null"`
	HostName       string
	GuestID        string
	GuestName      string
	Status         string       `gorm:"index;not null"`
	Board          entity.Board `gorm:"serializer:json;type:jsonb;not null"`
	CurrentTurn    string       `gorm:"size:1;not null"`
	Winner         string
	CreatedAt      time.Time `gorm:"index;autoCreateTime:false"`
	LastActivityAt time.Time
}

func (roomRecord) TableName() string {
	return "game_rooms"
}

type presenceRecord struct {
	Room      string         `gorm:"primaryKey"`
	User      string         `gorm:"primaryKey;column:user_id"`
	ID        string         `gorm:"uniqueIndex;not null"`
	Data      map[string]any `gorm:"serializer:json;type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:false"`
}

func (presenceRecord) TableName() string {
	return "presence"
}

// Models - the tables to migrate.
func Models() []any {
	return []any{&roomRecord{}, &presenceRecord{}}
}

func toRoomRecord(room *entity.Room) *roomRecord {
	return &roomRecord{
		ID:             room.ID,
		Code:           room.Code,
		HostID:         room.HostID,
		HostName:       room.HostName,
		GuestID:        room.GuestID,
		GuestName:      room.GuestName,
		Status:         room.Status,
		Board:          room.Board,
		CurrentTurn:    room.CurrentTurn,
		Winner:         room.Winner,
		CreatedAt:      room.CreatedAt,
		LastActivityAt: room.LastActivityAt,
	}
}

func (that *roomRecord) toEntity() *entity.Room {
	return &entity.Room{
		ID:             that.ID,
		Code:           that.Code,
		HostID:         that.HostID,
		HostName:       that.HostName,
		GuestID:        that.GuestID,
		GuestName:      that.GuestName,
		Status:         that.Status,
		Board:          that.Board,
		CurrentTurn:    that.CurrentTurn,
		Winner:         that.Winner,
		CreatedAt:      that.CreatedAt,
		LastActivityAt: that.LastActivityAt,
	}
}

type roomRepository struct {
	conn *gorm.DB
}

func NewRoomRepository(conn *gorm.DB) repository.RoomRepository {
	return &roomRepository{
		conn: conn,
	}
}

func (that *roomRepository) Create(ctx context.Context, room *entity.Room) error {
	err := that.conn.WithContext(ctx).Create(toRoomRecord(room)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", repository.ErrRoomCodeTaken, room.Code)
	}

	if err != nil {
		return fmt.Errorf("can't create room: %w", err)
	}

	return nil
}

func (that *roomRepository) Save(ctx context.Context, room *entity.Room) error {
	// Select("*") writes zero values too, a departed guest must be cleared
	result := that.conn.WithContext(ctx).Model(&roomRecord{}).
		Where("id = ?", room.ID).
		Select("*").
		Updates(toRoomRecord(room))
	if result.Error != nil {
		return fmt.Errorf("can't save room: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrRoomNotFound
	}

	return nil
}

func (that *roomRepository) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	return that.first(ctx, "id = ?", id)
}

func (that *roomRepository) GetByCode(ctx context.Context, code string) (*entity.Room, error) {
	return that.first(ctx, "code = ?", entity.NormalizeRoomCode(code))
}

func (that *roomRepository) first(ctx context.Context, query string, arg string) (*entity.Room, error) {
	var record roomRecord

	err := that.conn.WithContext(ctx).Where(query, arg).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("can't find room: %w", err)
	}

	return record.toEntity(), nil
}

func (that *roomRepository) ListByStatus(ctx context.Context, status string) ([]*entity.Room, error) {
	var records []roomRecord

	err := that.conn.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("can't list rooms: %w", err)
	}

	rooms := make([]*entity.Room, len(records))
	for i := range records {
		rooms[i] = records[i].toEntity()
	}

	return rooms, nil
}

func (that *roomRepository) DeleteByID(ctx context.Context, id string) error {
	result := that.conn.WithContext(ctx).Where("id = ?", id).Delete(&roomRecord{})
	if result.Error != nil {
		return fmt.Errorf("can't delete room: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrRoomNotFound
	}

	return nil
}

type presenceRepository struct {
	conn *gorm.DB
}

func NewPresenceRepository(conn *gorm.DB) repository.PresenceRepository {
	return &presenceRepository{
		conn: conn,
	}
}

func (that *presenceRepository) Get(ctx context.Context, room, user string) (*entity.PresenceEntry, error) {
	var record presenceRecord

	err := that.conn.WithContext(ctx).Where("room = ? AND user_id = ?", room, user).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrPresenceNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("can't find presence: %w", err)
	}

	return record.toEntity(), nil
}

func (that *presenceRepository) Save(ctx context.Context, entry *entity.PresenceEntry) error {
	record := &presenceRecord{
		Room:      entry.Room,
		User:      entry.User,
		ID:        entry.ID,
		Data:      entry.Data,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}

	err := that.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("can't save presence: %w", err)
	}

	return nil
}

func (that *presenceRepository) ListByRoom(ctx context.Context, room string) ([]*entity.PresenceEntry, error) {
	var records []presenceRecord

	err := that.conn.WithContext(ctx).
		Where("room = ?", room).
		Order("created_at ASC").
		Order("user_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("can't list presence: %w", err)
	}

	entries := make([]*entity.PresenceEntry, len(records))
	for i := range records {
		entries[i] = records[i].toEntity()
	}

	return entries, nil
}

func (that *presenceRecord) toEntity() *entity.PresenceEntry {
	data := that.Data
	if data == nil {
		data = map[string]any{}
	}

	return &entity.PresenceEntry{
		ID:        that.ID,
		Room:      that.Room,
		User:      that.User,
		Data:      data,
		CreatedAt: that.CreatedAt,
		UpdatedAt: that.UpdatedAt,
	}
}
