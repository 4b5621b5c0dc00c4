package entity

import (
	"maps"
	"time"
)

// PresenceEntry records the last sign of life of a user in a room.
type PresenceEntry struct {
	ID        string         `json:"id"`
	Room      string         `json:"room"`
	User      string         `json:"user"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func NewPresenceEntry(id, room, user string, data map[string]any, now time.Time) *PresenceEntry {
	if data == nil {
		data = map[string]any{}
	}

	return &PresenceEntry{
		ID:        id,
		Room:      room,
		User:      user,
		Data:      maps.Clone(data),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Merge - shallow merge, keys of the patch override existing keys.
func (that *PresenceEntry) Merge(patch map[string]any, now time.Time) {
	if that.Data == nil {
		that.Data = make(map[string]any, len(patch))
	}

	maps.Copy(that.Data, patch)
	that.UpdatedAt = now
}

func (that *PresenceEntry) Touch(now time.Time) {
	that.UpdatedAt = now
}

// IsOnline - the entry was refreshed within the liveness window.
func (that *PresenceEntry) IsOnline(now time.Time, window time.Duration) bool {
	return now.Sub(that.UpdatedAt) < window
}

func (that *PresenceEntry) Clone() *PresenceEntry {
	clone := *that
	clone.Data = maps.Clone(that.Data)

	return &clone
}
