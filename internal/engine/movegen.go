package engine

import "strings"

// Move is a single move request or candidate. Promotion is set only for pawn
// moves that reach the last rank.
type Move struct {
	Start     Position  `json:"from"`
	End       Position  `json:"to"`
	Promotion PieceType `json:"promotion,omitempty"`
}

func (m Move) String() string {
	s := m.Start.String() + m.End.String()
	if m.Promotion != "" {
		s += strings.ToLower(m.Promotion.notation())
	}
	return s
}

type moveGenerator func(b *Board, from Position) []Move

var generators = map[PieceType]moveGenerator{
	Pawn:   pawnMoves,
	Knight: knightMoves,
	Bishop: bishopMoves,
	Rook:   rookMoves,
	Queen:  queenMoves,
	King:   kingMoves,
}

var (
	rookDirs   = []Position{{Row: 1, Col: 0}, {Row: -1, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: -1}}
	bishopDirs = []Position{{Row: 1, Col: 1}, {Row: 1, Col: -1}, {Row: -1, Col: 1}, {Row: -1, Col: -1}}
	queenDirs  = append(append([]Position{}, rookDirs...), bishopDirs...)
	kingDirs   = queenDirs
	knightDirs = []Position{
		{Row: 2, Col: 1}, {Row: 2, Col: -1}, {Row: -2, Col: 1}, {Row: -2, Col: -1},
		{Row: 1, Col: 2}, {Row: 1, Col: -2}, {Row: -1, Col: 2}, {Row: -1, Col: -2},
	}
)

// PseudoLegalMoves returns the moves the piece on from could make by its
// movement pattern alone, without regard to the safety of its own king.
func PseudoLegalMoves(b *Board, from Position) []Move {
	p := b.Piece(from)
	if p == nil {
		return nil
	}
	gen, ok := generators[p.Type]
	if !ok {
		return nil
	}
	return gen(b, from)
}

func bishopMoves(b *Board, from Position) []Move { return slide(b, from, bishopDirs) }
func rookMoves(b *Board, from Position) []Move   { return slide(b, from, rookDirs) }
func queenMoves(b *Board, from Position) []Move  { return slide(b, from, queenDirs) }
func knightMoves(b *Board, from Position) []Move { return hop(b, from, knightDirs) }
func kingMoves(b *Board, from Position) []Move   { return hop(b, from, kingDirs) }

func slide(b *Board, from Position, dirs []Position) []Move {
	mover := b.Piece(from)
	var moves []Move
	for _, dir := range dirs {
		to := from.offset(dir.Row, dir.Col)
		for to.InBounds() {
			occupant := b.Piece(to)
			if occupant == nil {
				moves = append(moves, Move{Start: from, End: to})
				to = to.offset(dir.Row, dir.Col)
				continue
			}
			if !b.Blocks(mover, occupant) {
				moves = append(moves, Move{Start: from, End: to})
			}
			break
		}
	}
	return moves
}

func hop(b *Board, from Position, offsets []Position) []Move {
	mover := b.Piece(from)
	var moves []Move
	for _, off := range offsets {
		to := from.offset(off.Row, off.Col)
		if b.IsValidMove(to, mover) {
			moves = append(moves, Move{Start: from, End: to})
		}
	}
	return moves
}

func pawnMoves(b *Board, from Position) []Move {
	pawn := b.Piece(from)
	dir := pawn.Color.forward()
	var moves []Move

	one := from.offset(dir, 0)
	if one.InBounds() && b.Piece(one) == nil {
		moves = appendPawnMove(moves, pawn, from, one)
		two := from.offset(2*dir, 0)
		if from.Row == pawn.Color.pawnRow() && b.Piece(two) == nil {
			moves = append(moves, Move{Start: from, End: two})
		}
	}
	for _, side := range []int{-1, 1} {
		to := from.offset(dir, side)
		if occupant := b.Piece(to); occupant != nil && occupant.Color != pawn.Color {
			moves = appendPawnMove(moves, pawn, from, to)
		}
	}
	return moves
}

// appendPawnMove expands a move onto the last rank into one move per promotion choice.
func appendPawnMove(moves []Move, pawn *Piece, from, to Position) []Move {
	if to.Row != pawn.Color.promotionRow() {
		return append(moves, Move{Start: from, End: to})
	}
	for _, t := range PromotionTypes {
		moves = append(moves, Move{Start: from, End: to, Promotion: t})
	}
	return moves
}
