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
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

const defaultCodeAttempts = 5

type roomRepo interface {
	Create(ctx context.Context, room *entity.Room) error
	Save(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	GetByCode(ctx context.Context, code string) (*entity.Room, error)
	ListByStatus(ctx context.Context, status string) ([]*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
}

// RoomNotifier is told about every committed room change.
type RoomNotifier interface {
	RoomUpdated(room *entity.Room)
	RoomDeleted(roomID string)
}

type RoomOption func(*RoomManager)

func WithCodeAttempts(attempts int) RoomOption {
	return func(that *RoomManager) {
		if attempts > 0 {
			that.codeAttempts = attempts
		}
	}
}

func WithCodeGenerator(generate func() (string, error)) RoomOption {
	return func(that *RoomManager) {
		that.generateCode = generate
	}
}

func WithClock(now func() time.Time) RoomOption {
	return func(that *RoomManager) {
		that.now = now
	}
}

func WithRoomNotifier(notifier RoomNotifier) RoomOption {
	return func(that *RoomManager) {
		that.notifier = notifier
	}
}

// RoomManager runs the room lifecycle. Mutations of one room are serialized by a lock keyed by the room id.
type RoomManager struct {
	logger   *slog.Logger
	roomRepo roomRepo
	locks    *pkg.KeyedMutex
	notifier RoomNotifier

	codeAttempts int
	generateCode func() (string, error)
	now          func() time.Time
}

func NewRoomManager(logger *slog.Logger, roomRepo roomRepo, opts ...RoomOption) *RoomManager {
	manager := &RoomManager{
		logger:   logger.With("component", "room_manager"),
		roomRepo: roomRepo,
		locks:    pkg.NewKeyedMutex(),
		notifier: nopNotifier{},

		codeAttempts: defaultCodeAttempts,
		generateCode: func() (string, error) { return pkg.GenerateRoomCode(entity.RoomCodeLength) },
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

func (that *RoomManager) CreateRoom(ctx context.Context, hostID, hostName string) (*entity.Room, error) {
	log := that.logger.With("method", "CreateRoom", "hostID", hostID)

	roomID := pkg.GenerateID()

	for attempt := 1; attempt <= that.codeAttempts; attempt++ {
		code, err := that.generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room code: %w", err)
		}

		room := entity.NewRoom(roomID, code, hostID, hostName, that.now())

		err = that.roomRepo.Create(ctx, room)
		if errors.Is(err, repository.ErrRoomCodeTaken) {
			log.Debug("room code collision, regenerating", "code", room.Code, "attempt", attempt)
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}

		log.Info("room created", "roomID", room.ID, "code", room.Code)
		that.notifier.RoomUpdated(room.Clone())

		return room, nil
	}

	return nil, fmt.Errorf("%w after %d attempts", apperror.ErrCodeGeneration, that.codeAttempts)
}

func (that *RoomManager) JoinRoom(ctx context.Context, code, guestID, guestName string) (*entity.Room, error) {
	found, err := that.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return that.mutate(ctx, found.ID, "JoinRoom", func(room *entity.Room) (bool, error) {
		// the code may have been released and reused between lookup and lock
		if room.Code != found.Code {
			return false, apperror.ErrRoomNotFound
		}

		if !room.IsWaiting() {
			return false, apperror.ErrNotJoinable
		}

		room.Seat(guestID, guestName, that.now())

		return false, nil
	})
}

func (that *RoomManager) GetRoom(ctx context.Context, roomID string) (*entity.Room, error) {
	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, translateRoomError(err)
	}

	return room, nil
}

func (that *RoomManager) GetRoomByCode(ctx context.Context, code string) (*entity.Room, error) {
	room, err := that.roomRepo.GetByCode(ctx, entity.NormalizeRoomCode(code))
	if err != nil {
		return nil, translateRoomError(err)
	}

	return room, nil
}

// MakeMove - the host plays X, the guest plays O. Anyone else is rejected as unauthorized
// rather than playing O.
func (that *RoomManager) MakeMove(ctx context.Context, roomID, playerID string, position int) (*entity.Room, error) {
	return that.mutate(ctx, roomID, "MakeMove", func(room *entity.Room) (bool, error) {
		if !room.IsPlaying() {
			return false, apperror.ErrNotPlaying
		}

		mark, ok := room.MarkOf(playerID)
		if !ok {
			return false, apperror.ErrUnauthorized
		}

		if mark != room.CurrentTurn {
			return false, apperror.ErrNotYourTurn
		}

		board, err := tictactoe.ApplyMove(room.Board, mark, position)
		if err != nil {
			return false, fmt.Errorf("invalid turn: %w", err)
		}

		room.Board = board
		room.CurrentTurn = tictactoe.NextTurn(room.CurrentTurn)
		room.LastActivityAt = that.now()

		if outcome := tictactoe.DetectOutcome(board); outcome.IsOver() {
			room.Status = entity.StatusFinished
			room.Winner = outcome.Result()
		}

		return false, nil
	})
}

// ResetGame - starts a new round. A room without a guest is never put into play,
// so resetting a waiting room leaves it waiting with a cleared board.
func (that *RoomManager) ResetGame(ctx context.Context, roomID, playerID string) (*entity.Room, error) {
	return that.mutate(ctx, roomID, "ResetGame", func(room *entity.Room) (bool, error) {
		if !room.IsParticipant(playerID) {
			return false, apperror.ErrUnauthorized
		}

		room.ClearBoard(that.now())
		if room.HasGuest() {
			room.Status = entity.StatusPlaying
		}

		return false, nil
	})
}

// LeaveRoom - the host leaving destroys the room, the guest leaving sends it back to waiting.
// The returned room is nil when the room was destroyed.
func (that *RoomManager) LeaveRoom(ctx context.Context, roomID, playerID string) (*entity.Room, error) {
	return that.mutate(ctx, roomID, "LeaveRoom", func(room *entity.Room) (bool, error) {
		switch {
		case room.IsHost(playerID):
			return true, nil
		case room.IsGuest(playerID):
			room.Unseat(that.now())
			return false, nil
		default:
			return false, apperror.ErrUnauthorized
		}
	})
}

// WatchRoom - runs watch with the current room while holding the room's lock.
// Changes are notified under the same lock, so watch is ordered against every notification.
func (that *RoomManager) WatchRoom(ctx context.Context, roomID string, watch func(room *entity.Room)) error {
	unlock := that.locks.Lock(roomID)
	defer unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return translateRoomError(err)
	}

	watch(room)

	return nil
}

func (that *RoomManager) ListWaitingRooms(ctx context.Context) ([]*entity.Room, error) {
	rooms, err := that.roomRepo.ListByStatus(ctx, entity.StatusWaiting)
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting rooms: %w", err)
	}

	return rooms, nil
}

// mutate - loads the room under its lock, applies change and commits the result.
// change reports whether the room must be deleted. Nothing is written when change fails.
func (that *RoomManager) mutate(
	ctx context.Context, roomID, method string, change func(room *entity.Room) (bool, error),
) (*entity.Room, error) {
	log := that.logger.With("method", method, "roomID", roomID)

	unlock := that.locks.Lock(roomID)
	defer unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, translateRoomError(err)
	}

	remove, err := change(room)
	if err != nil {
		log.Debug("request rejected", "error", err)
		return nil, err
	}

	if remove {
		if err = that.roomRepo.DeleteByID(ctx, roomID); err != nil {
			log.Error("failed to delete room", "error", err)
			return nil, translateRoomError(err)
		}

		log.Info("room deleted")
		that.notifier.RoomDeleted(roomID)

		return nil, nil
	}

	if err = that.roomRepo.Save(ctx, room); err != nil {
		log.Error("failed to save room", "error", err)
		return nil, translateRoomError(err)
	}

	log.Info("room updated", "status", room.Status, "turn", room.CurrentTurn, "winner", room.Winner)
	that.notifier.RoomUpdated(room.Clone())

	return room, nil
}

func translateRoomError(err error) error {
	if errors.Is(err, repository.ErrRoomNotFound) {
		return apperror.ErrRoomNotFound
	}

	return fmt.Errorf("room storage: %w", err)
}

type nopNotifier struct{}

func (nopNotifier) RoomUpdated(*entity.Room) {}

func (nopNotifier) RoomDeleted(string) {}

func (nopNotifier) PresenceUpdated(*entity.PresenceEntry) {}
