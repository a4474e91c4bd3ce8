package engine

import (
	"testing"
)

const castlingFEN = "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"

func TestCastlingCandidates(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		king      string
		kingside  bool
		queenside bool
	}{
		{"both sides open", castlingFEN, "e1", true, true},
		{"black both sides", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "e8", true, true},
		{"piece between", "r3k2r/8/8/8/8/8/8/RN2K2R w KQkq - 0 1", "e1", true, false},
		{"king in check", "r3k2r/8/8/4q3/8/8/8/R3K2R w KQkq - 0 1", "e1", false, false},
		{"crossing square attacked", "r3kr2/8/8/8/8/8/8/R3K2R w KQq - 0 1", "e1", false, true},
		{"landing square attacked", "r3k1r1/8/8/8/8/8/8/R3K2R w KQq - 0 1", "e1", false, true},
		{"rook path attacked but king path safe", "1r2k3/8/8/8/8/8/8/R3K3 w Q - 0 1", "e1", false, true},
		{"rook already moved", "r3k2r/8/8/8/8/8/8/R3K2R w Qkq - 0 1", "e1", false, true},
		{"king already moved", "r3k2r/8/8/8/8/8/8/R3K2R w kq - 0 1", "e1", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustFEN(t, tt.fen)
			from := sq(t, tt.king)
			moves := g.ValidMoves(from)
			kingside := hasMove(moves, Move{Start: from, End: from.offset(0, 2)})
			queenside := hasMove(moves, Move{Start: from, End: from.offset(0, -2)})
			if kingside != tt.kingside {
				t.Errorf("kingside castling offered = %v; want %v", kingside, tt.kingside)
			}
			if queenside != tt.queenside {
				t.Errorf("queenside castling offered = %v; want %v", queenside, tt.queenside)
			}
		})
	}
}

func TestCastlingExecution(t *testing.T) {
	tests := []struct {
		move     string
		notation string
		king     string
		rookFrom string
		rookTo   string
	}{
		{"e1g1", "O-O", "g1", "h1", "f1"},
		{"e1c1", "O-O-O", "c1", "a1", "d1"},
	}
	for _, tt := range tests {
		t.Run(tt.notation, func(t *testing.T) {
			g := mustFEN(t, castlingFEN)
			ply := play(t, g, tt.move)

			if ply.Notation != tt.notation {
				t.Errorf("notation = %q; want %q", ply.Notation, tt.notation)
			}
			if ply.CastleRookMove == nil || *ply.CastleRookMove != (CastleRookMove{From: sq(t, tt.rookFrom), To: sq(t, tt.rookTo)}) {
				t.Errorf("castle rook move = %+v", ply.CastleRookMove)
			}
			king := g.board.Piece(sq(t, tt.king))
			if king == nil || king.Type != King || !king.HasMoved {
				t.Errorf("%s = %+v; want moved king", tt.king, king)
			}
			rook := g.board.Piece(sq(t, tt.rookTo))
			if rook == nil || rook.Type != Rook || !rook.HasMoved {
				t.Errorf("%s = %+v; want moved rook", tt.rookTo, rook)
			}
			for _, empty := range []string{"e1", tt.rookFrom} {
				if p := g.board.Piece(sq(t, empty)); p != nil {
					t.Errorf("%s = %+v; want empty", empty, *p)
				}
			}
			if g.Turn() != Black {
				t.Errorf("Turn() = %s; want black", g.Turn())
			}
		})
	}
}

func TestCastlingLostAfterRookMoves(t *testing.T) {
	g := mustFEN(t, castlingFEN)
	play(t, g, "h1h2", "a8b8", "h2h1", "b8a8")

	e1 := sq(t, "e1")
	moves := g.ValidMoves(e1)
	if hasMove(moves, Move{Start: e1, End: sq(t, "g1")}) {
		t.Error("kingside castling offered after the h1 rook moved")
	}
	if !hasMove(moves, Move{Start: e1, End: sq(t, "c1")}) {
		t.Error("queenside castling withdrawn although the a1 rook never moved")
	}
	e8 := sq(t, "e8")
	black := g.ValidMoves(e8)
	if !hasMove(black, Move{Start: e8, End: sq(t, "g8")}) || hasMove(black, Move{Start: e8, End: sq(t, "c8")}) {
		t.Errorf("black castling candidates wrong: %v", black)
	}
}

func TestEnPassantReply(t *testing.T) {
	g := NewGame()
	play(t, g, "a2a3", "d7d5", "a3a4", "d5d4", "e2e4")

	col, ok := g.EnPassant()
	if !ok || col != 5 {
		t.Fatalf("EnPassant() = %d, %v; want 5, true", col, ok)
	}
	capture := uci(t, "d4e3")
	if !hasMove(g.ValidMoves(sq(t, "d4")), capture) {
		t.Fatalf("en passant capture missing from %v", g.ValidMoves(sq(t, "d4")))
	}

	ply, err := g.MakeMove(capture)
	if err != nil {
		t.Fatalf("MakeMove(d4e3): %v", err)
	}
	if !ply.EnPassant || ply.Notation != "dxe3" {
		t.Errorf("ply = %+v; want en passant dxe3", ply)
	}
	if ply.CapturedPiece == nil || ply.CapturedPiece.Type != Pawn || ply.CapturedPiece.Color != White {
		t.Errorf("captured = %+v; want white pawn", ply.CapturedPiece)
	}
	if p := g.board.Piece(sq(t, "e4")); p != nil {
		t.Errorf("e4 = %+v; captured pawn not removed", *p)
	}
	if p := g.board.Piece(sq(t, "e3")); p == nil || p.Color != Black || p.Type != Pawn {
		t.Errorf("e3 = %+v; want black pawn", p)
	}
}

func TestEnPassantExpires(t *testing.T) {
	g := NewGame()
	play(t, g, "a2a3", "d7d5", "a3a4", "d5d4", "e2e4", "h7h6", "h2h3")

	if _, ok := g.EnPassant(); ok {
		t.Error("en passant still armed two moves later")
	}
	if hasMove(g.ValidMoves(sq(t, "d4")), uci(t, "d4e3")) {
		t.Error("en passant capture offered after the window closed")
	}
	if _, err := g.MakeMove(uci(t, "d4e3")); err == nil {
		t.Error("late en passant capture accepted")
	}
}

func TestDoubleStepWithoutNeighbourDoesNotArm(t *testing.T) {
	g := NewGame()
	play(t, g, "e2e4")
	if _, ok := g.EnPassant(); ok {
		t.Error("en passant armed with no adjacent enemy pawn")
	}
}

func TestEnPassantRespectsPins(t *testing.T) {
	g := mustFEN(t, "8/8/8/KPp4r/8/8/8/4k3 w - c6 0 1")
	if _, ok := g.EnPassant(); !ok {
		t.Fatal("FEN en passant square not armed")
	}
	if hasMove(g.ValidMoves(sq(t, "b5")), uci(t, "b5c6")) {
		t.Error("en passant capture offered although it exposes the king on the fifth rank")
	}
}

func TestForwardMoveIntoEnPassantColumnIsNormal(t *testing.T) {
	g := mustFEN(t, "4k3/8/8/3pP3/8/8/3P4/4K3 w - d6 0 1")
	ply := play(t, g, "d2d3")
	if ply.EnPassant || ply.CapturedPiece != nil {
		t.Errorf("quiet pawn push treated as capture: %+v", ply)
	}
	if g.board.Piece(sq(t, "d5")) == nil {
		t.Error("d5 pawn removed by an unrelated push")
	}
}

func TestPromotionExecution(t *testing.T) {
	tests := []struct {
		move     string
		want     PieceType
		notation string
	}{
		{"a7a8q", Queen, "a8=Q+"},
		{"a7a8r", Rook, "a8=R+"},
		{"a7a8b", Bishop, "a8=B"},
		{"a7a8n", Knight, "a8=N"},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			g := mustFEN(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
			ply := play(t, g, tt.move)
			p := g.board.Piece(sq(t, "a8"))
			if p == nil || p.Type != tt.want || p.Color != White || !p.HasMoved {
				t.Errorf("a8 = %+v; want moved white %s", p, tt.want)
			}
			if ply.Notation != tt.notation {
				t.Errorf("notation = %q; want %q", ply.Notation, tt.notation)
			}
			if ply.Piece.Type != tt.want {
				t.Errorf("ply piece = %s; want %s", ply.Piece.Type, tt.want)
			}
		})
	}
}
