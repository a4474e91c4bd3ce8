package engine

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Status is derived from the board and the side to move; it is never stored.
type Status string

const (
	StatusActive    Status = "active"
	StatusCheck     Status = "check"
	StatusCheckmate Status = "checkmate"
	StatusStalemate Status = "stalemate"
)

// Game is one chess match: the board it exclusively owns, the side to move
// and the en passant window left by the previous move.
//
// A Game is not safe for concurrent use. Callers sharing one serialize access.
type Game struct {
	board *Board
	turn  Color

	// enPassantEligible is set for exactly one reply after a pawn double step
	// that landed next to an enemy pawn in column enPassantColumn.
	enPassantEligible bool
	enPassantColumn   int

	halfmoveClock  int
	fullmoveNumber int
}

// NewGame returns a game in the standard starting position, White to move.
func NewGame() *Game {
	return &Game{
		board:          NewBoard(),
		turn:           White,
		fullmoveNumber: 1,
	}
}

// Board returns a copy of the current board.
func (g *Game) Board() *Board {
	return g.board.Clone()
}

func (g *Game) Turn() Color {
	return g.turn
}

// EnPassant returns the column of a pawn that may be captured en passant on
// this move.
func (g *Game) EnPassant() (int, bool) {
	return g.enPassantColumn, g.enPassantEligible
}

// Clone returns an independent copy of the game.
func (g *Game) Clone() *Game {
	clone := *g
	clone.board = g.board.Clone()
	return &clone
}

// ValidMoves returns the legal moves of the piece on pos, or nil when the
// square is empty. Move generation never changes the game's board.
func (g *Game) ValidMoves(pos Position) []Move {
	piece := g.board.Piece(pos)
	if piece == nil {
		return nil
	}
	pseudo := PseudoLegalMoves(g.board, pos)
	moves := make([]Move, 0, len(pseudo))
	for _, m := range pseudo {
		if !g.exposesKing(piece, m) {
			moves = append(moves, m)
		}
	}
	switch piece.Type {
	case King:
		moves = append(moves, g.castlingMoves(pos, piece)...)
	case Pawn:
		if m, ok := g.enPassantMove(pos, piece); ok && !g.exposesKing(piece, m) {
			moves = append(moves, m)
		}
	}
	return moves
}

// LegalMoves returns every legal move for color.
func (g *Game) LegalMoves(c Color) []Move {
	var moves []Move
	for _, pos := range g.board.Occupied(c) {
		moves = append(moves, g.ValidMoves(pos)...)
	}
	return moves
}

// exposesKing plays m on a copy of the board and reports whether it leaves
// the mover's king attacked.
func (g *Game) exposesKing(piece *Piece, m Move) bool {
	trial := *g.board
	if g.isEnPassantCapture(piece, m) {
		trial.squares[m.Start.Row][m.End.Col] = nil
	}
	trial.squares[m.End.Row][m.End.Col] = piece
	trial.squares[m.Start.Row][m.Start.Col] = nil
	return inCheck(&trial, piece.Color)
}

func (g *Game) IsInCheck(c Color) bool {
	return inCheck(g.board, c)
}

func (g *Game) AnyValidMoves(c Color) bool {
	for _, pos := range g.board.Occupied(c) {
		if len(g.ValidMoves(pos)) > 0 {
			return true
		}
	}
	return false
}

func (g *Game) IsInCheckmate(c Color) bool {
	return g.IsInCheck(c) && !g.AnyValidMoves(c)
}

func (g *Game) IsInStalemate(c Color) bool {
	return !g.IsInCheck(c) && !g.AnyValidMoves(c)
}

// Status reports the state of the side to move.
func (g *Game) Status() Status {
	check := g.IsInCheck(g.turn)
	movable := g.AnyValidMoves(g.turn)
	switch {
	case check && !movable:
		return StatusCheckmate
	case !movable:
		return StatusStalemate
	case check:
		return StatusCheck
	}
	return StatusActive
}

// inCheck reports whether the king of color c is attacked on b. A board
// without that king is corrupt and panics with ErrNoKing.
func inCheck(b *Board, c Color) bool {
	king, ok := b.find(King, c)
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrNoKing, c))
	}
	return attacked(b, king, c.Opponent())
}

// attacked reports whether any piece of color by has a pseudo-legal move
// landing on target. Target must be occupied for pawn captures to count.
func attacked(b *Board, target Position, by Color) bool {
	for _, from := range b.Occupied(by) {
		for _, m := range PseudoLegalMoves(b, from) {
			if m.End == target {
				return true
			}
		}
	}
	return false
}

// MakeMove validates m against the legal moves of the side to move and plays
// it. On error the game is unchanged and the error wraps ErrInvalidMove.
func (g *Game) MakeMove(m Move) (Ply, error) {
	piece := g.board.Piece(m.Start)
	if piece == nil {
		return Ply{}, fmt.Errorf("%w: no piece at %s", ErrInvalidMove, m.Start)
	}
	if piece.Color != g.turn {
		return Ply{}, fmt.Errorf("%w: %s to move", ErrInvalidMove, g.turn)
	}
	if !slices.Contains(g.ValidMoves(m.Start), m) {
		return Ply{}, fmt.Errorf("%w: %s is not legal", ErrInvalidMove, m)
	}

	ply := Ply{
		From:      m.Start,
		To:        m.End,
		Promotion: m.Promotion,
		Notation:  g.notation(piece, m),
	}
	switch {
	case piece.Type == King && abs(m.End.Col-m.Start.Col) == 2:
		ply.CastleRookMove = g.castle(m, piece)
	case g.isEnPassantCapture(piece, m):
		ply.CapturedPiece = g.captureEnPassant(m, piece)
		ply.EnPassant = true
	default:
		ply.CapturedPiece = g.relocate(m, piece)
	}
	ply.Piece = *g.board.Piece(m.End)

	g.enPassantEligible, g.enPassantColumn = false, 0
	if piece.Type == Pawn && abs(m.End.Row-m.Start.Row) == 2 && g.enemyPawnBeside(m.End, piece.Color) {
		g.enPassantEligible, g.enPassantColumn = true, m.End.Col
	}

	if piece.Type == Pawn || ply.CapturedPiece != nil {
		g.halfmoveClock = 0
	} else {
		g.halfmoveClock++
	}
	if g.turn == Black {
		g.fullmoveNumber++
	}
	g.turn = g.turn.Opponent()

	switch g.Status() {
	case StatusCheckmate:
		ply.Notation += "#"
	case StatusCheck:
		ply.Notation += "+"
	}
	return ply, nil
}

// relocate plays a normal move, substituting the promotion piece if any, and
// returns the captured piece.
func (g *Game) relocate(m Move, piece *Piece) *Piece {
	captured := g.board.Piece(m.End)
	g.board.mustAdd(m.End, nil)
	g.board.mustAdd(m.Start, nil)
	placed := piece
	if m.Promotion != "" {
		placed = NewPiece(m.Promotion, piece.Color)
	}
	placed.HasMoved = true
	g.board.mustAdd(m.End, placed)
	return captured
}

func (g *Game) enemyPawnBeside(pos Position, c Color) bool {
	for _, side := range []int{-1, 1} {
		if p := g.board.Piece(pos.offset(0, side)); p != nil && p.Type == Pawn && p.Color != c {
			return true
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
