package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("Maps wrapped sentinel errors to their kind", func(t *testing.T) {
		// Given: sentinel errors wrapped the way use cases wrap them
		cases := []struct {
			err  error
			want Kind
		}{
			{fmt.Errorf("failed to get room: %w", ErrRoomNotFound), KindNotFound},
			{fmt.Errorf("join: %w", ErrNotJoinable), KindNotJoinable},
			{fmt.Errorf("move: %w", ErrNotPlaying), KindNotPlaying},
			{fmt.Errorf("move: %w", ErrNotYourTurn), KindWrongTurn},
			{fmt.Errorf("invalid turn: %w", ErrInvalidPosition), KindInvalidPosition},
			{fmt.Errorf("invalid turn: %w", ErrCellOccupied), KindCellOccupied},
			{fmt.Errorf("reset: %w", ErrUnauthorized), KindUnauthorized},
			{fmt.Errorf("create room: %w", ErrCodeGeneration), KindCodeGeneration},
			{fmt.Errorf("heartbeat: %w", ErrNotFound), KindNotFound},
			{fmt.Errorf("wrapped twice: %w", fmt.Errorf("turn: %w", ErrCellOccupied)), KindCellOccupied},
		}

		for _, tc := range cases {
			// When: resolving the kind
			got := KindOf(tc.err)

			// Then: it should match the sentinel's kind
			assert.Equal(t, tc.want, got, tc.err.Error())
		}
	})

	t.Run("Unknown errors are internal", func(t *testing.T) {
		// Given: an error unrelated to the domain
		err := errors.New("redis down")

		// When/Then: the kind is Internal
		assert.Equal(t, KindInternal, KindOf(err))
	})
}
