package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/benbeisheim/chess-backend/internal/engine"
	"github.com/benbeisheim/chess-backend/internal/ws"
	"github.com/google/go-cmp/cmp"
)

type fakeConn struct {
	messages []ws.Message
	err      error
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, v.(ws.Message))
	return nil
}

func newSeatedMatch(t *testing.T) *Match {
	t.Helper()
	m := NewMatch("g1", 10*time.Minute)
	if c, err := m.AddPlayer("alice"); err != nil || c != engine.White {
		t.Fatalf("AddPlayer(alice) = %s, %v", c, err)
	}
	if c, err := m.AddPlayer("bob"); err != nil || c != engine.Black {
		t.Fatalf("AddPlayer(bob) = %s, %v", c, err)
	}
	return m
}

func wsMove(t *testing.T, s string) WSMove {
	t.Helper()
	mv, err := engine.ParseUCI(s)
	if err != nil {
		t.Fatal(err)
	}
	return WSMove{From: mv.Start, To: mv.End, Promotion: mv.Promotion}
}

func playMoves(t *testing.T, m *Match, moves ...string) {
	t.Helper()
	players := map[engine.Color]string{engine.White: "alice", engine.Black: "bob"}
	for _, s := range moves {
		player := players[m.State().ToMove]
		if _, err := m.MakeMove(player, wsMove(t, s)); err != nil {
			t.Fatalf("MakeMove(%s, %s): %v", player, s, err)
		}
	}
}

func TestAddPlayer(t *testing.T) {
	m := newSeatedMatch(t)
	if c, err := m.AddPlayer("alice"); err != nil || c != engine.White {
		t.Errorf("rejoin = %s, %v; want white", c, err)
	}
	if _, err := m.AddPlayer("carol"); !errors.Is(err, ErrGameFull) {
		t.Errorf("third player error = %v; want ErrGameFull", err)
	}
	if !m.IsPlayerInGame("bob") || m.IsPlayerInGame("carol") || m.IsPlayerInGame("") {
		t.Error("IsPlayerInGame wrong")
	}
}

func TestMatchMakeMoveErrors(t *testing.T) {
	m := newSeatedMatch(t)
	tests := []struct {
		name   string
		player string
		move   string
		want   error
	}{
		{"spectator", "carol", "e2e4", ErrNotInGame},
		{"out of turn", "bob", "e7e5", ErrNotYourTurn},
		{"illegal", "alice", "e2e5", engine.ErrInvalidMove},
		{"opponent piece", "alice", "e7e5", engine.ErrInvalidMove},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.MakeMove(tt.player, wsMove(t, tt.move)); !errors.Is(err, tt.want) {
				t.Errorf("error = %v; want %v", err, tt.want)
			}
		})
	}
	if len(m.State().MoveHistory) != 0 {
		t.Error("rejected moves were recorded")
	}
}

func TestMatchHistoryAndCaptures(t *testing.T) {
	m := newSeatedMatch(t)
	playMoves(t, m, "e2e4", "d7d5", "e4d5")

	state := m.State()
	if len(state.MoveHistory) != 2 {
		t.Fatalf("history length = %d; want 2", len(state.MoveHistory))
	}
	first := state.MoveHistory[0]
	if first.WhitePly == nil || first.WhitePly.Notation != "e4" || first.BlackPly == nil || first.BlackPly.Notation != "d5" {
		t.Errorf("first move = %+v", first)
	}
	if second := state.MoveHistory[1]; second.WhitePly.Notation != "exd5" || second.BlackPly != nil {
		t.Errorf("second move = %+v", second)
	}
	want := []engine.Piece{{Type: engine.Pawn, Color: engine.Black, HasMoved: true}}
	if diff := cmp.Diff(want, state.CapturedPieces.White); diff != "" {
		t.Errorf("captured mismatch (-want +got):\n%s", diff)
	}
	if state.Sound != "capture" {
		t.Errorf("sound = %q; want capture", state.Sound)
	}
	if state.ToMove != engine.Black || state.Status != engine.StatusActive {
		t.Errorf("toMove = %s status = %s", state.ToMove, state.Status)
	}
	if state.LastMove == nil || state.LastMove.To != (engine.Position{Row: 5, Col: 4}) {
		t.Errorf("lastMove = %+v", state.LastMove)
	}
}

func TestMatchCheckmateEndsGame(t *testing.T) {
	m := newSeatedMatch(t)
	playMoves(t, m, "f2f3", "e7e5", "g2g4", "d8h4")

	state := m.State()
	if state.Resolve == nil || *state.Resolve != ResolveCheckmate {
		t.Fatalf("resolve = %v; want checkmate", state.Resolve)
	}
	if state.Winner == nil || *state.Winner != engine.Black {
		t.Errorf("winner = %v; want black", state.Winner)
	}
	if !state.IsCheck || state.Sound != "check" {
		t.Errorf("isCheck = %v sound = %q", state.IsCheck, state.Sound)
	}
	if len(state.LegalMoves) != 0 {
		t.Errorf("legal moves offered after mate: %v", state.LegalMoves)
	}
	if _, err := m.MakeMove("alice", wsMove(t, "a2a3")); !errors.Is(err, ErrGameOver) {
		t.Errorf("move after mate error = %v; want ErrGameOver", err)
	}
}

func TestMatchResign(t *testing.T) {
	m := newSeatedMatch(t)
	if err := m.Resign("carol"); !errors.Is(err, ErrNotInGame) {
		t.Errorf("spectator resign error = %v", err)
	}
	if err := m.Resign("alice"); err != nil {
		t.Fatal(err)
	}
	state := m.State()
	if *state.Resolve != ResolveResign || *state.Winner != engine.Black {
		t.Errorf("resolve = %s winner = %s", *state.Resolve, *state.Winner)
	}
	if err := m.Resign("bob"); !errors.Is(err, ErrGameOver) {
		t.Errorf("second resign error = %v; want ErrGameOver", err)
	}
}

func TestMatchTimeout(t *testing.T) {
	m := newSeatedMatch(t)
	ft := newFakeTime()
	m.whiteClock = ft.clock(time.Minute)
	m.blackClock = ft.clock(time.Minute)

	playMoves(t, m, "e2e4")
	ft.advance(2 * time.Minute)

	if _, err := m.MakeMove("bob", wsMove(t, "e7e5")); !errors.Is(err, ErrGameOver) {
		t.Fatalf("late move error = %v; want ErrGameOver", err)
	}
	state := m.State()
	if *state.Resolve != ResolveTimeout || *state.Winner != engine.White {
		t.Errorf("resolve = %s winner = %s", *state.Resolve, *state.Winner)
	}
	if m.CheckTimeout() {
		t.Error("CheckTimeout resolved an already finished match")
	}
}

func TestMatchStateLegalMoves(t *testing.T) {
	m := newSeatedMatch(t)
	state := m.State()
	if len(state.LegalMoves) != 10 {
		t.Errorf("origin squares = %d; want 10", len(state.LegalMoves))
	}
	if len(state.LegalMoves["g1"]) != 2 {
		t.Errorf("g1 moves = %v", state.LegalMoves["g1"])
	}
	if state.FEN != engine.StartFEN {
		t.Errorf("FEN = %q", state.FEN)
	}
	if got := m.LegalMoves(engine.Position{Row: 2, Col: 5}); len(got) != 2 {
		t.Errorf("LegalMoves(e2) = %v", got)
	}

	playMoves(t, m, "a2a3", "d7d5", "a3a4", "d5d4", "e2e4")
	state = m.State()
	if want := (engine.Position{Row: 3, Col: 5}); state.EnPassantTarget == nil || *state.EnPassantTarget != want {
		t.Errorf("enPassantTarget = %v; want %v", state.EnPassantTarget, want)
	}
}

func TestMatchBroadcast(t *testing.T) {
	m := newSeatedMatch(t)
	good, bad := &fakeConn{}, &fakeConn{err: errors.New("broken pipe")}
	if err := m.RegisterConnection("alice", good); err != nil {
		t.Fatal(err)
	}
	if err := m.RegisterConnection("bob", bad); err != nil {
		t.Fatal(err)
	}
	if err := m.RegisterConnection("alice", &fakeConn{}); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("duplicate connection error = %v", err)
	}
	if err := m.RegisterConnection("carol", &fakeConn{}); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("spectator on full match error = %v", err)
	}

	m.Broadcast()

	if len(good.messages) != 1 || good.messages[0].Type != ws.MessageTypeGameState {
		t.Fatalf("messages = %+v", good.messages)
	}
	var state GameState
	if err := json.Unmarshal(good.messages[0].Payload, &state); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if state.ToMove != engine.White || len(state.Board) != 8 {
		t.Errorf("decoded state toMove = %s rows = %d", state.ToMove, len(state.Board))
	}
	if err := m.RegisterConnection("bob", &fakeConn{}); err != nil {
		t.Errorf("failed connection was not dropped: %v", err)
	}
}

func TestRestoreMatch(t *testing.T) {
	m := newSeatedMatch(t)
	playMoves(t, m, "e2e4", "e7e5")

	restored, err := RestoreMatch("g1", m.Record(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if restored.State().FEN != m.State().FEN {
		t.Errorf("FEN = %q; want %q", restored.State().FEN, m.State().FEN)
	}

	mated := newSeatedMatch(t)
	playMoves(t, mated, "f2f3", "e7e5", "g2g4", "d8h4")
	restored, err = RestoreMatch("g2", mated.Record(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if r := restored.State().Resolve; r == nil || *r != ResolveCheckmate {
		t.Errorf("restored mate resolve = %v", r)
	}

	rec := m.Record()
	rec.Game.Board[0][4] = nil
	if _, err := RestoreMatch("g3", rec, time.Minute); !errors.Is(err, engine.ErrCorruptSnapshot) {
		t.Errorf("corrupt restore error = %v", err)
	}
}

func TestRestoreMatchKeepsResult(t *testing.T) {
	m := newSeatedMatch(t)
	playMoves(t, m, "e2e4")
	if err := m.Resign("bob"); err != nil {
		t.Fatal(err)
	}

	restored, err := RestoreMatch("g1", m.Record(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	state := restored.State()
	if state.Resolve == nil || *state.Resolve != ResolveResign {
		t.Fatalf("resolve = %v; want resign", state.Resolve)
	}
	if state.Winner == nil || *state.Winner != engine.White {
		t.Errorf("winner = %v; want white", state.Winner)
	}
	if len(state.LegalMoves) != 0 {
		t.Errorf("finished match offers moves: %v", state.LegalMoves)
	}
}

func TestRestoreMatchRejectsBadResult(t *testing.T) {
	str := func(s string) *string { return &s }
	white := engine.White
	tests := []struct {
		name    string
		resolve *string
		winner  *engine.Color
	}{
		{"unknown result", str("abandoned"), &white},
		{"resign without winner", str(ResolveResign), nil},
		{"stalemate with winner", str(ResolveStalemate), &white},
		{"winner without result", nil, &white},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{Game: engine.NewGame().Snapshot(), Resolve: tt.resolve, Winner: tt.winner}
			if _, err := RestoreMatch("g1", rec, time.Minute); !errors.Is(err, engine.ErrCorruptSnapshot) {
				t.Errorf("error = %v; want ErrCorruptSnapshot", err)
			}
		})
	}
}

func TestOnChange(t *testing.T) {
	m := newSeatedMatch(t)
	ft := newFakeTime()
	m.whiteClock = ft.clock(time.Minute)
	m.blackClock = ft.clock(time.Minute)

	var records []Record
	m.OnChange(func(rec Record) { records = append(records, rec) })

	playMoves(t, m, "e2e4", "e7e5")
	if _, err := m.MakeMove("bob", wsMove(t, "d7d5")); err == nil {
		t.Fatal("out of turn move accepted")
	}
	if len(records) != 2 {
		t.Fatalf("records after moves = %d; want 2", len(records))
	}
	if records[0].Game.Turn != engine.Black || records[1].Game.Turn != engine.White {
		t.Errorf("record turns = %s, %s", records[0].Game.Turn, records[1].Game.Turn)
	}

	ft.advance(2 * time.Minute)
	if _, err := m.MakeMove("alice", wsMove(t, "g1f3")); !errors.Is(err, ErrGameOver) {
		t.Fatalf("late move error = %v; want ErrGameOver", err)
	}
	if len(records) != 3 {
		t.Fatalf("records after timeout = %d; want 3", len(records))
	}
	last := records[2]
	if last.Resolve == nil || *last.Resolve != ResolveTimeout || last.Winner == nil || *last.Winner != engine.Black {
		t.Errorf("timeout record resolve = %v winner = %v", last.Resolve, last.Winner)
	}
	if m.CheckTimeout() || m.Resign("bob") == nil || len(records) != 3 {
		t.Errorf("finished match produced more records: %d", len(records))
	}
}
