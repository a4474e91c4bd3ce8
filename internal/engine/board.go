package engine

import (
	"fmt"
	"strings"
)

var backRank = [boardSize]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// Board is the 8x8 grid of squares. Index 0 of each dimension is unused so
// positions address it directly.
//
// A Board knows occupancy only: it has no notion of turns or check.
type Board struct {
	squares [boardSize + 1][boardSize + 1]*Piece
}

// NewBoard returns a board set up in the standard starting position.
func NewBoard() *Board {
	b := &Board{}
	b.Reset()
	return b
}

func (b *Board) InBounds(pos Position) bool {
	return pos.InBounds()
}

// Piece returns the occupant of pos, or nil for an empty or out-of-bounds square.
func (b *Board) Piece(pos Position) *Piece {
	if !pos.InBounds() {
		return nil
	}
	return b.squares[pos.Row][pos.Col]
}

// AddPiece places p on pos. A nil piece clears the square. Placing a piece on
// an occupied square fails; callers relocating a piece clear the origin and the
// destination first.
func (b *Board) AddPiece(pos Position, p *Piece) error {
	if !pos.InBounds() {
		return fmt.Errorf("%w: %s", ErrInvalidPosition, pos)
	}
	if p != nil && b.squares[pos.Row][pos.Col] != nil {
		return fmt.Errorf("%w: %s", ErrSquareOccupied, pos)
	}
	b.squares[pos.Row][pos.Col] = p
	return nil
}

// mustAdd is AddPiece for moves that were already validated.
func (b *Board) mustAdd(pos Position, p *Piece) {
	if err := b.AddPiece(pos, p); err != nil {
		panic(err)
	}
}

// Blocks reports whether occupant stops mover from entering its square, which
// is the case for a piece of the mover's own color. An enemy occupant can be
// captured and an empty square never blocks.
func (b *Board) Blocks(mover, occupant *Piece) bool {
	return occupant != nil && mover != nil && occupant.Color == mover.Color
}

// IsValidMove reports whether mover may land on pos as far as bounds and
// occupancy are concerned.
func (b *Board) IsValidMove(pos Position, mover *Piece) bool {
	return pos.InBounds() && !b.Blocks(mover, b.Piece(pos))
}

// Reset clears the board and sets up the 32 pieces of a new game.
func (b *Board) Reset() {
	b.squares = [boardSize + 1][boardSize + 1]*Piece{}
	for _, c := range []Color{White, Black} {
		for col := 1; col <= boardSize; col++ {
			b.squares[c.backRow()][col] = NewPiece(backRank[col-1], c)
			b.squares[c.pawnRow()][col] = NewPiece(Pawn, c)
		}
	}
}

// Clone returns a deep copy; pieces are copied too.
func (b *Board) Clone() *Board {
	clone := &Board{}
	for row := 1; row <= boardSize; row++ {
		for col := 1; col <= boardSize; col++ {
			if p := b.squares[row][col]; p != nil {
				cp := *p
				clone.squares[row][col] = &cp
			}
		}
	}
	return clone
}

// Occupied lists the squares holding a piece of color c, rank by rank from row 1.
func (b *Board) Occupied(c Color) []Position {
	var positions []Position
	for row := 1; row <= boardSize; row++ {
		for col := 1; col <= boardSize; col++ {
			if p := b.squares[row][col]; p != nil && p.Color == c {
				positions = append(positions, Position{Row: row, Col: col})
			}
		}
	}
	return positions
}

func (b *Board) find(t PieceType, c Color) (Position, bool) {
	for row := 1; row <= boardSize; row++ {
		for col := 1; col <= boardSize; col++ {
			if p := b.squares[row][col]; p != nil && p.Type == t && p.Color == c {
				return Position{Row: row, Col: col}, true
			}
		}
	}
	return Position{}, false
}

// String draws the board from Black's side down, White pieces in upper case.
func (b *Board) String() string {
	var sb strings.Builder
	for row := boardSize; row >= 1; row-- {
		fmt.Fprintf(&sb, "%d ", row)
		for col := 1; col <= boardSize; col++ {
			if p := b.squares[row][col]; p != nil {
				sb.WriteByte(p.symbol())
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  abcdefgh\n")
	return sb.String()
}
