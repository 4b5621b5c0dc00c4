package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
)

type presenceRepo interface {
	Get(ctx context.Context, room, user string) (*entity.PresenceEntry, error)
	Save(ctx context.Context, entry *entity.PresenceEntry) error
	ListByRoom(ctx context.Context, room string) ([]*entity.PresenceEntry, error)
}

type PresenceNotifier interface {
	PresenceUpdated(entry *entity.PresenceEntry)
}

type PresenceOption func(*PresenceTracker)

func WithPresenceClock(now func() time.Time) PresenceOption {
	return func(that *PresenceTracker) {
		that.now = now
	}
}

func WithPresenceNotifier(notifier PresenceNotifier) PresenceOption {
	return func(that *PresenceTracker) {
		that.notifier = notifier
	}
}

// PresenceTracker records heartbeats per (room, user). It never expires entries, readers judge staleness.
type PresenceTracker struct {
	logger       *slog.Logger
	presenceRepo presenceRepo
	locks        *pkg.KeyedMutex
	notifier     PresenceNotifier
	now          func() time.Time
}

func NewPresenceTracker(logger *slog.Logger, presenceRepo presenceRepo, opts ...PresenceOption) *PresenceTracker {
	tracker := &PresenceTracker{
		logger:       logger.With("component", "presence_tracker"),
		presenceRepo: presenceRepo,
		locks:        pkg.NewKeyedMutex(),
		notifier:     nopNotifier{},
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(tracker)
	}

	return tracker
}

func presenceLockKey(room, user string) string {
	return room + "\x00" + user
}

// UpdatePresence - creates the entry or shallow-merges patch into its data.
func (that *PresenceTracker) UpdatePresence(ctx context.Context, room, user string, patch map[string]any) (*entity.PresenceEntry, error) {
	log := that.logger.With("method", "UpdatePresence", "room", room, "user", user)

	unlock := that.locks.Lock(presenceLockKey(room, user))
	defer unlock()

	entry, err := that.presenceRepo.Get(ctx, room, user)
	switch {
	case errors.Is(err, repository.ErrPresenceNotFound):
		entry = entity.NewPresenceEntry(pkg.GenerateID(), room, user, patch, that.now())
	case err != nil:
		return nil, fmt.Errorf("failed to get presence: %w", err)
	default:
		entry.Merge(patch, that.now())
	}

	if err = that.presenceRepo.Save(ctx, entry); err != nil {
		log.Error("failed to save presence", "error", err)
		return nil, fmt.Errorf("failed to save presence: %w", err)
	}

	that.notifier.PresenceUpdated(entry.Clone())

	return entry, nil
}

// Heartbeat - refreshes updatedAt only. Returns apperror.ErrNotFound when the user never reported presence.
func (that *PresenceTracker) Heartbeat(ctx context.Context, room, user string) (*entity.PresenceEntry, error) {
	unlock := that.locks.Lock(presenceLockKey(room, user))
	defer unlock()

	entry, err := that.presenceRepo.Get(ctx, room, user)
	if errors.Is(err, repository.ErrPresenceNotFound) {
		return nil, fmt.Errorf("presence of %s in %s: %w", user, room, apperror.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}

	entry.Touch(that.now())

	if err = that.presenceRepo.Save(ctx, entry); err != nil {
		that.logger.Error("failed to save heartbeat", "room", room, "user", user, "error", err)
		return nil, fmt.Errorf("failed to save presence: %w", err)
	}

	that.notifier.PresenceUpdated(entry.Clone())

	return entry, nil
}

func (that *PresenceTracker) GetPresence(ctx context.Context, room string) ([]*entity.PresenceEntry, error) {
	entries, err := that.presenceRepo.ListByRoom(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("failed to list presence: %w", err)
	}

	return entries, nil
}
