package usecase

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testNow}
}

func (that *fakeClock) Now() time.Time {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.now
}

func (that *fakeClock) Advance(d time.Duration) time.Time {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.now = that.now.Add(d)

	return that.now
}

type mockNotifier struct {
	mock.Mock
}

func (that *mockNotifier) RoomUpdated(room *entity.Room) {
	that.Called(room)
}

func (that *mockNotifier) RoomDeleted(roomID string) {
	that.Called(roomID)
}

func (that *mockNotifier) PresenceUpdated(entry *entity.PresenceEntry) {
	that.Called(entry)
}

// sequenceCodes - hands out the given codes in order, then repeats the last one.
func sequenceCodes(codes ...string) func() (string, error) {
	var mu sync.Mutex
	next := 0

	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()

		code := codes[next]
		if next < len(codes)-1 {
			next++
		}

		return code, nil
	}
}
