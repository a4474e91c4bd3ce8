package engine

import "fmt"

// Snapshot is the serializable form of a Game. Board[r][c] holds the piece on
// row r+1, column c+1, or nil.
type Snapshot struct {
	Board             [][]*Piece `json:"board"`
	Turn              Color      `json:"turn"`
	EnPassantEligible bool       `json:"enPassantEligible"`
	EnPassantColumn   int        `json:"enPassantColumn"`
	HalfmoveClock     int        `json:"halfmoveClock"`
	FullmoveNumber    int        `json:"fullmoveNumber"`
}

func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Board:             make([][]*Piece, boardSize),
		Turn:              g.turn,
		EnPassantEligible: g.enPassantEligible,
		EnPassantColumn:   g.enPassantColumn,
		HalfmoveClock:     g.halfmoveClock,
		FullmoveNumber:    g.fullmoveNumber,
	}
	for row := 1; row <= boardSize; row++ {
		s.Board[row-1] = make([]*Piece, boardSize)
		for col := 1; col <= boardSize; col++ {
			if p := g.board.squares[row][col]; p != nil {
				cp := *p
				s.Board[row-1][col-1] = &cp
			}
		}
	}
	return s
}

// Restore rebuilds a Game from a snapshot. The snapshot is validated eagerly:
// each side must have exactly one king, the side not to move must not be in
// check, and any en passant window must point at a pawn that just double
// stepped. Failures wrap ErrCorruptSnapshot.
func Restore(s Snapshot) (*Game, error) {
	if !s.Turn.Valid() {
		return nil, corrupt("turn %q", s.Turn)
	}
	if len(s.Board) != boardSize {
		return nil, corrupt("%d rows", len(s.Board))
	}

	g := &Game{
		board:             &Board{},
		turn:              s.Turn,
		enPassantEligible: s.EnPassantEligible,
		enPassantColumn:   s.EnPassantColumn,
		halfmoveClock:     s.HalfmoveClock,
		fullmoveNumber:    s.FullmoveNumber,
	}
	if g.fullmoveNumber < 1 {
		g.fullmoveNumber = 1
	}
	if !g.enPassantEligible {
		g.enPassantColumn = 0
	}

	kings := map[Color]int{}
	for r, cells := range s.Board {
		if len(cells) != boardSize {
			return nil, corrupt("row %d has %d squares", r+1, len(cells))
		}
		for c, p := range cells {
			if p == nil {
				continue
			}
			pos := Position{Row: r + 1, Col: c + 1}
			if !p.Type.Valid() || !p.Color.Valid() {
				return nil, corrupt("unknown piece %q/%q on %s", p.Color, p.Type, pos)
			}
			switch p.Type {
			case Pawn:
				if pos.Row == White.backRow() || pos.Row == Black.backRow() {
					return nil, corrupt("pawn on %s", pos)
				}
			case King:
				kings[p.Color]++
				if !p.HasMoved && pos != (Position{Row: p.Color.backRow(), Col: 5}) {
					return nil, corrupt("unmoved %s king on %s", p.Color, pos)
				}
			}
			cp := *p
			g.board.mustAdd(pos, &cp)
		}
	}
	for _, c := range []Color{White, Black} {
		if kings[c] != 1 {
			return nil, corrupt("%d %s kings", kings[c], c)
		}
	}
	if inCheck(g.board, g.turn.Opponent()) {
		return nil, corrupt("%s to move but %s is in check", g.turn, g.turn.Opponent())
	}
	if g.enPassantEligible {
		mover := g.turn.Opponent()
		pos := Position{Row: g.turn.enPassantRow(), Col: g.enPassantColumn}
		if p := g.board.Piece(pos); p == nil || p.Type != Pawn || p.Color != mover {
			return nil, corrupt("en passant column %d has no %s pawn", g.enPassantColumn, mover)
		}
	}
	return g, nil
}

func corrupt(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrCorruptSnapshot, fmt.Sprintf(format, args...))
}
