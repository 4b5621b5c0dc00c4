package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// WinCombos are checked rows first, then columns, then diagonals.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Outcome of a board. Winner is empty while nobody has three in a row.
type Outcome struct {
	Winner string
	IsDraw bool
}

// IsOver - the game ended with a win or a draw.
func (that Outcome) IsOver() bool {
	return that.Winner != "" || that.IsDraw
}

// Result - the value stored as the room winner: X, O or draw.
func (that Outcome) Result() string {
	if that.IsDraw {
		return entity.Draw
	}

	return that.Winner
}

// ApplyMove - returns a copy of board with mark placed at position.
func ApplyMove(board entity.Board, mark string, position int) (entity.Board, error) {
	if position < 0 || position >= len(board) {
		return board, fmt.Errorf("%w: got %d", apperror.ErrInvalidPosition, position)
	}

	if board[position] != entity.EmptyCell {
		return board, fmt.Errorf("%w: position %d", apperror.ErrCellOccupied, position)
	}

	board[position] = mark

	return board, nil
}

func DetectOutcome(board entity.Board) Outcome {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return Outcome{Winner: a}
		}
	}

	return Outcome{IsDraw: board.IsFull()}
}

func NextTurn(mark string) string {
	if mark == entity.PlayerX {
		return entity.PlayerO
	}

	return entity.PlayerX
}
