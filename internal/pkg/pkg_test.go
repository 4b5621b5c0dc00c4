package pkg

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoomCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)

	for range 100 {
		code, err := GenerateRoomCode(6)
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestGenerateID(t *testing.T) {
	first, second := GenerateID(), GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestKeyedMutex(t *testing.T) {
	t.Run("Same key is serialized", func(t *testing.T) {
		// Given: many goroutines incrementing a counter under the same key
		locks := NewKeyedMutex()
		counter := 0

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := locks.Lock("room-1")
				defer unlock()

				current := counter
				time.Sleep(time.Microsecond)
				counter = current + 1
			}()
		}
		wg.Wait()

		// Then: no increment is lost and no lock is left behind
		assert.Equal(t, 50, counter)
		assert.Zero(t, locks.Len())
	})

	t.Run("Different keys do not block each other", func(t *testing.T) {
		// Given: a held lock on one key
		locks := NewKeyedMutex()
		unlock := locks.Lock("room-1")
		defer unlock()

		// When: another key is locked from a second goroutine
		done := make(chan struct{})
		go func() {
			release := locks.Lock("room-2")
			release()
			close(done)
		}()

		// Then: it completes while the first key is still held
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("lock on a different key was blocked")
		}
	})
}
