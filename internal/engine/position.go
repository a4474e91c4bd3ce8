package engine

import (
	"fmt"
	"strings"
)

const boardSize = 8

// Position is a square on the board. Rows and columns run from 1 to 8; row 1
// is White's back rank and column 1 is the a-file.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) InBounds() bool {
	return p.Row >= 1 && p.Row <= boardSize && p.Col >= 1 && p.Col <= boardSize
}

func (p Position) offset(rows, cols int) Position {
	return Position{Row: p.Row + rows, Col: p.Col + cols}
}

func (p Position) file() string {
	return fmt.Sprintf("%c", 'a'+p.Col-1)
}

func (p Position) rank() string {
	return fmt.Sprintf("%d", p.Row)
}

// String returns the square in algebraic form, e.g. "e4".
func (p Position) String() string {
	if !p.InBounds() {
		return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
	}
	return p.file() + p.rank()
}

// ParseSquare converts algebraic notation ("e4") into a Position.
func ParseSquare(s string) (Position, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	pos := Position{Row: int(s[1]-'1') + 1, Col: int(s[0]-'a') + 1}
	if !pos.InBounds() {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	return pos, nil
}
