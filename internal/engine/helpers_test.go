package engine

import "testing"

func mustFEN(t *testing.T, fen string) *Game {
	t.Helper()
	g, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return g
}

func sq(t *testing.T, s string) Position {
	t.Helper()
	pos, err := ParseSquare(s)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", s, err)
	}
	return pos
}

func uci(t *testing.T, s string) Move {
	t.Helper()
	m, err := ParseUCI(s)
	if err != nil {
		t.Fatalf("ParseUCI(%q): %v", s, err)
	}
	return m
}

// play makes each move in turn and returns the last ply.
func play(t *testing.T, g *Game, moves ...string) Ply {
	t.Helper()
	var ply Ply
	for _, s := range moves {
		var err error
		ply, err = g.MakeMove(uci(t, s))
		if err != nil {
			t.Fatalf("MakeMove(%s): %v\n%s", s, err, g.board)
		}
	}
	return ply
}

func hasMove(moves []Move, m Move) bool {
	for _, candidate := range moves {
		if candidate == m {
			return true
		}
	}
	return false
}

func destinations(moves []Move) map[string]bool {
	ends := make(map[string]bool, len(moves))
	for _, m := range moves {
		ends[m.End.String()] = true
	}
	return ends
}
