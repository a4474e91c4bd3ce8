package engine

import (
	"fmt"
	"strconv"
	"strings"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var fenPieces = map[byte]PieceType{
	'k': King, 'q': Queen, 'r': Rook, 'b': Bishop, 'n': Knight, 'p': Pawn,
}

// FEN returns the Forsyth-Edwards Notation of the game. Castling rights are
// derived from the moved flags of kings and corner rooks.
func (g *Game) FEN() string {
	var sb strings.Builder
	for row := boardSize; row >= 1; row-- {
		empty := 0
		for col := 1; col <= boardSize; col++ {
			p := g.board.squares[row][col]
			if p == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteByte(p.symbol())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if row > 1 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	sb.WriteByte(g.turn.fen())
	sb.WriteByte(' ')
	sb.WriteString(g.castlingRights())
	sb.WriteByte(' ')
	if g.enPassantEligible {
		behind := Position{Row: g.turn.enPassantRow() + g.turn.forward(), Col: g.enPassantColumn}
		sb.WriteString(behind.String())
	} else {
		sb.WriteByte('-')
	}
	fmt.Fprintf(&sb, " %d %d", g.halfmoveClock, g.fullmoveNumber)
	return sb.String()
}

func (c Color) fen() byte {
	if c == White {
		return 'w'
	}
	return 'b'
}

func (g *Game) castlingRights() string {
	var sb strings.Builder
	for _, c := range []Color{White, Black} {
		king := g.board.Piece(Position{Row: c.backRow(), Col: 5})
		if king == nil || king.Type != King || king.Color != c || king.HasMoved {
			continue
		}
		for _, side := range []struct {
			col  int
			flag byte
		}{{boardSize, 'K'}, {1, 'Q'}} {
			rook := g.board.Piece(Position{Row: c.backRow(), Col: side.col})
			if rook == nil || rook.Type != Rook || rook.Color != c || rook.HasMoved {
				continue
			}
			if c == White {
				sb.WriteByte(side.flag)
			} else {
				sb.WriteByte(side.flag | 0x20)
			}
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

// ParseFEN builds a Game from Forsyth-Edwards Notation. Pieces off their
// starting squares are marked as moved; kings and corner rooks keep their
// unmoved flag only while the castling field grants the matching right.
func ParseFEN(fen string) (*Game, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, corrupt("fen %q has %d fields", fen, len(fields))
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != boardSize {
		return nil, corrupt("fen %q has %d ranks", fen, len(ranks))
	}

	s := Snapshot{Board: make([][]*Piece, boardSize), FullmoveNumber: 1}
	for i, rank := range ranks {
		row := boardSize - i
		cells := make([]*Piece, 0, boardSize)
		for j := 0; j < len(rank); j++ {
			ch := rank[j]
			if ch >= '1' && ch <= '8' {
				for k := 0; k < int(ch-'0'); k++ {
					cells = append(cells, nil)
				}
				continue
			}
			t, ok := fenPieces[ch|0x20]
			if !ok || len(cells) >= boardSize {
				return nil, corrupt("fen piece %q", ch)
			}
			c := Black
			if ch < 'a' {
				c = White
			}
			p := NewPiece(t, c)
			p.HasMoved = !onStartSquare(p, Position{Row: row, Col: len(cells) + 1})
			cells = append(cells, p)
		}
		if len(cells) != boardSize {
			return nil, corrupt("fen rank %q", rank)
		}
		s.Board[row-1] = cells
	}

	switch fields[1] {
	case "w":
		s.Turn = White
	case "b":
		s.Turn = Black
	default:
		return nil, corrupt("fen side to move %q", fields[1])
	}

	applyCastlingRights(s.Board, fields[2])

	if fields[3] != "-" {
		target, err := ParseSquare(fields[3])
		if err != nil {
			return nil, corrupt("fen en passant %q", fields[3])
		}
		victim := Position{Row: s.Turn.enPassantRow(), Col: target.Col}
		if pawnBeside(s.Board, victim, s.Turn) {
			s.EnPassantEligible, s.EnPassantColumn = true, target.Col
		}
	}
	if len(fields) >= 6 {
		var err error
		if s.HalfmoveClock, err = strconv.Atoi(fields[4]); err != nil || s.HalfmoveClock < 0 {
			return nil, corrupt("fen halfmove clock %q", fields[4])
		}
		if s.FullmoveNumber, err = strconv.Atoi(fields[5]); err != nil || s.FullmoveNumber < 1 {
			return nil, corrupt("fen fullmove number %q", fields[5])
		}
	}
	return Restore(s)
}

func onStartSquare(p *Piece, pos Position) bool {
	if p.Type == Pawn {
		return pos.Row == p.Color.pawnRow()
	}
	return pos.Row == p.Color.backRow() && backRank[pos.Col-1] == p.Type
}

// applyCastlingRights marks kings and corner rooks as moved unless the
// castling field keeps a right that needs them.
func applyCastlingRights(board [][]*Piece, rights string) {
	for _, c := range []Color{White, Black} {
		row := board[c.backRow()-1]
		kingSide, queenSide := byte('K'), byte('Q')
		if c == Black {
			kingSide, queenSide = 'k', 'q'
		}
		keepKing := strings.IndexByte(rights, kingSide) >= 0
		keepQueen := strings.IndexByte(rights, queenSide) >= 0
		if p := row[boardSize-1]; p != nil && p.Type == Rook && !keepKing {
			p.HasMoved = true
		}
		if p := row[0]; p != nil && p.Type == Rook && !keepQueen {
			p.HasMoved = true
		}
		if p := row[4]; p != nil && p.Type == King && !keepKing && !keepQueen {
			p.HasMoved = true
		}
	}
}

// pawnBeside reports whether a pawn of color c stands next to the square
// holding the enemy pawn at victim.
func pawnBeside(board [][]*Piece, victim Position, c Color) bool {
	if !victim.InBounds() {
		return false
	}
	for _, side := range []int{-1, 1} {
		pos := victim.offset(0, side)
		if !pos.InBounds() {
			continue
		}
		if p := board[pos.Row-1][pos.Col-1]; p != nil && p.Type == Pawn && p.Color == c {
			return true
		}
	}
	return false
}
