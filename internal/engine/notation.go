package engine

import (
	"fmt"
	"strings"
)

type CastleRookMove struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// Ply records a move as it was played.
type Ply struct {
	Piece          Piece           `json:"piece"`
	From           Position        `json:"from"`
	To             Position        `json:"to"`
	CapturedPiece  *Piece          `json:"capturedPiece"`
	CastleRookMove *CastleRookMove `json:"castleRookMove"`
	EnPassant      bool            `json:"enPassant"`
	Promotion      PieceType       `json:"promotion,omitempty"`
	Notation       string          `json:"notation"`
}

// notation returns the standard algebraic form of m before it is played,
// without the check suffix.
func (g *Game) notation(piece *Piece, m Move) string {
	if piece.Type == King && abs(m.End.Col-m.Start.Col) == 2 {
		if m.End.Col > m.Start.Col {
			return "O-O"
		}
		return "O-O-O"
	}

	var sb strings.Builder
	capture := g.board.Piece(m.End) != nil || g.isEnPassantCapture(piece, m)
	if piece.Type == Pawn {
		if capture {
			sb.WriteString(m.Start.file())
		}
	} else {
		sb.WriteString(piece.Type.notation())
		sb.WriteString(g.disambiguation(piece, m))
	}
	if capture {
		sb.WriteString("x")
	}
	sb.WriteString(m.End.String())
	if m.Promotion != "" {
		sb.WriteString("=" + m.Promotion.notation())
	}
	return sb.String()
}

// disambiguation returns the file, rank or square needed to tell m apart from
// moves of other pieces of the same kind to the same square.
func (g *Game) disambiguation(piece *Piece, m Move) string {
	var rivals, sameFile, sameRank bool
	for _, from := range g.board.Occupied(piece.Color) {
		other := g.board.Piece(from)
		if from == m.Start || other.Type != piece.Type {
			continue
		}
		for _, candidate := range g.ValidMoves(from) {
			if candidate.End != m.End {
				continue
			}
			rivals = true
			sameFile = sameFile || from.Col == m.Start.Col
			sameRank = sameRank || from.Row == m.Start.Row
			break
		}
	}
	switch {
	case !rivals:
		return ""
	case !sameFile:
		return m.Start.file()
	case !sameRank:
		return m.Start.rank()
	}
	return m.Start.String()
}

var uciPromotions = map[byte]PieceType{'q': Queen, 'r': Rook, 'b': Bishop, 'n': Knight}

// ParseUCI parses coordinate notation such as "e2e4" or "a7a8q".
func ParseUCI(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	start, err := ParseSquare(s[:2])
	if err != nil {
		return Move{}, err
	}
	end, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, err
	}
	m := Move{Start: start, End: end}
	if len(s) == 5 {
		promo, ok := uciPromotions[s[4]]
		if !ok {
			return Move{}, fmt.Errorf("%w: promotion %q", ErrInvalidMove, s[4])
		}
		m.Promotion = promo
	}
	return m, nil
}
