package engine

import "errors"

var (
	// ErrInvalidMove is returned by MakeMove for moves the rules do not allow.
	// The game is left untouched.
	ErrInvalidMove = errors.New("invalid move")

	ErrInvalidPosition = errors.New("invalid position")
	ErrSquareOccupied  = errors.New("square occupied")

	// ErrNoKing is the panic payload when a side has no king on the board.
	ErrNoKing = errors.New("king not found")

	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)
