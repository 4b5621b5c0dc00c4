package apperror

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrNotJoinable     = errors.New("room is not accepting new players")
	ErrNotPlaying      = errors.New("game is not in progress")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrInvalidPosition = errors.New("position must be between 0 and 8")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrUnauthorized    = errors.New("player is not in this room")
	ErrCodeGeneration  = errors.New("could not generate a free room code")
)

// Kind is the stable name of an error category reported to callers.
type Kind string

const (
	KindNotFound        Kind = "NotFound"
	KindNotJoinable     Kind = "NotJoinable"
	KindNotPlaying      Kind = "NotPlaying"
	KindWrongTurn       Kind = "WrongTurn"
	KindInvalidPosition Kind = "InvalidPosition"
	KindCellOccupied    Kind = "CellOccupied"
	KindUnauthorized    Kind = "Unauthorized"
	KindCodeGeneration  Kind = "CodeGeneration"
	KindInternal        Kind = "Internal"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrRoomNotFound, KindNotFound},
	{ErrNotFound, KindNotFound},
	{ErrNotJoinable, KindNotJoinable},
	{ErrNotPlaying, KindNotPlaying},
	{ErrNotYourTurn, KindWrongTurn},
	{ErrInvalidPosition, KindInvalidPosition},
	{ErrCellOccupied, KindCellOccupied},
	{ErrUnauthorized, KindUnauthorized},
	{ErrCodeGeneration, KindCodeGeneration},
}

// KindOf - returns the kind of the first known error found in err's chain.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}

	return KindInternal
}
