package model

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/chess-backend/internal/engine"
	"github.com/benbeisheim/chess-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
)

const (
	ResolveCheckmate = "checkmate"
	ResolveStalemate = "stalemate"
	ResolveResign    = "resign"
	ResolveTimeout   = "timeout"
)

// Conn is the write side of a client connection.
type Conn interface {
	WriteJSON(v interface{}) error
}

// The connections for a specific match
type MatchConnections struct {
	connections map[string]Conn // playerID -> connection
	mu          sync.RWMutex
}

func NewMatchConnections() *MatchConnections {
	return &MatchConnections{
		connections: make(map[string]Conn),
	}
}

type Players struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

// CapturedPieces holds the pieces each side has taken.
type CapturedPieces struct {
	White []engine.Piece `json:"white"`
	Black []engine.Piece `json:"black"`
}

// Match is one game between two players: the rules engine plus seats, clocks,
// history and the connections watching it. All engine access goes through
// mu, one lock per match.
type Match struct {
	ID          string
	mu          sync.Mutex
	game        *engine.Game
	players     Players
	history     []Move
	captured    CapturedPieces
	sound       string
	resolve     *string
	winner      *engine.Color
	lastMove    *SimpleMove
	whiteClock  *Clock
	blackClock  *Clock
	connections *MatchConnections

	// onChange receives the new record under mu after every move or result.
	onChange func(Record)
}

type GameState struct {
	Sound           string                   `json:"sound"`
	Board           [][]*engine.Piece        `json:"board"`
	ToMove          engine.Color             `json:"toMove"`
	MoveHistory     []Move                   `json:"moveHistory"`
	CapturedPieces  CapturedPieces           `json:"capturedPieces"`
	IsCheck         bool                     `json:"isCheck"`
	Status          engine.Status            `json:"status"`
	LegalMoves      map[string][]engine.Move `json:"legalMoves"`
	EnPassantTarget *engine.Position         `json:"enPassantTarget"`
	Resolve         *string                  `json:"resolve"`
	Winner          *engine.Color            `json:"winner"`
	Players         Players                  `json:"players"`
	LastMove        *SimpleMove              `json:"lastMove"`
	FEN             string                   `json:"fen"`
}

func NewMatch(id string, clock time.Duration) *Match {
	return newMatch(id, engine.NewGame(), clock)
}

// RestoreMatch rebuilds a match from a persisted record. Seats, history and
// clocks are not part of the record and start empty.
func RestoreMatch(id string, rec Record, clock time.Duration) (*Match, error) {
	if err := rec.validate(); err != nil {
		return nil, fmt.Errorf("restore match %s: %w", id, err)
	}
	game, err := engine.Restore(rec.Game)
	if err != nil {
		return nil, fmt.Errorf("restore match %s: %w", id, err)
	}
	m := newMatch(id, game, clock)
	if rec.Resolve == nil {
		m.updateResolve()
		return m, nil
	}
	resolve := *rec.Resolve
	m.resolve = &resolve
	if rec.Winner != nil {
		winner := *rec.Winner
		m.winner = &winner
	}
	return m, nil
}

func newMatch(id string, game *engine.Game, clock time.Duration) *Match {
	return &Match{
		ID:          id,
		game:        game,
		history:     make([]Move, 0),
		captured:    CapturedPieces{White: make([]engine.Piece, 0), Black: make([]engine.Piece, 0)},
		whiteClock:  NewClock(clock),
		blackClock:  NewClock(clock),
		connections: NewMatchConnections(),
		players: Players{
			White: ClientPlayer{Color: engine.White, TimeLeft: int(clock.Milliseconds() / 100)},
			Black: ClientPlayer{Color: engine.Black, TimeLeft: int(clock.Milliseconds() / 100)},
		},
	}
}

// AddPlayer seats playerID in the first free seat, White first. A player
// already seated gets their color back.
func (m *Match) AddPlayer(playerID string) (engine.Color, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.seat(playerID); ok {
		return c, nil
	}
	if m.players.White.ID == "" {
		m.players.White.ID = playerID
		return engine.White, nil
	}
	if m.players.Black.ID == "" {
		m.players.Black.ID = playerID
		return engine.Black, nil
	}
	return "", ErrGameFull
}

func (m *Match) seat(playerID string) (engine.Color, bool) {
	switch {
	case playerID == "":
		return "", false
	case m.players.White.ID == playerID:
		return engine.White, true
	case m.players.Black.ID == playerID:
		return engine.Black, true
	}
	return "", false
}

func (m *Match) IsPlayerInGame(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.seat(playerID)
	return ok
}

func (m *Match) canSpectate() bool {
	return m.players.White.ID == "" || m.players.Black.ID == ""
}

func (m *Match) clock(c engine.Color) *Clock {
	if c == engine.White {
		return m.whiteClock
	}
	return m.blackClock
}

// MakeMove plays move for playerID. Errors from the rules engine wrap
// engine.ErrInvalidMove; the match is unchanged on any error.
func (m *Match) MakeMove(playerID string, move WSMove) (engine.Ply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resolve != nil {
		return engine.Ply{}, ErrGameOver
	}
	color, ok := m.seat(playerID)
	if !ok {
		return engine.Ply{}, ErrNotInGame
	}
	if color != m.game.Turn() {
		return engine.Ply{}, ErrNotYourTurn
	}
	if m.flagFallen() {
		m.changed()
		return engine.Ply{}, ErrGameOver
	}

	ply, err := m.game.MakeMove(move.engineMove())
	if err != nil {
		return engine.Ply{}, err
	}

	m.clock(color).Stop()
	m.clock(color.Opponent()).Start()
	m.players.White.TimeLeft = m.whiteClock.tenths()
	m.players.Black.TimeLeft = m.blackClock.tenths()

	m.recordPly(color, ply)
	m.updateResolve()
	m.changed()
	return ply, nil
}

func (m *Match) recordPly(color engine.Color, ply engine.Ply) {
	p := ply
	if color == engine.White || len(m.history) == 0 {
		m.history = append(m.history, Move{})
	}
	last := &m.history[len(m.history)-1]
	if color == engine.White {
		last.WhitePly = &p
	} else {
		last.BlackPly = &p
	}

	if ply.CapturedPiece != nil {
		if color == engine.White {
			m.captured.White = append(m.captured.White, *ply.CapturedPiece)
		} else {
			m.captured.Black = append(m.captured.Black, *ply.CapturedPiece)
		}
	}

	switch {
	case m.game.IsInCheck(m.game.Turn()):
		m.sound = "check"
	case ply.CastleRookMove != nil:
		m.sound = "castle"
	case ply.CapturedPiece != nil:
		m.sound = "capture"
	case ply.Promotion != "":
		m.sound = "promote"
	default:
		m.sound = "move"
	}
	m.lastMove = &SimpleMove{From: ply.From, To: ply.To}
}

func (m *Match) updateResolve() {
	toMove := m.game.Turn()
	switch m.game.Status() {
	case engine.StatusCheckmate:
		m.finish(ResolveCheckmate, toMove.Opponent())
	case engine.StatusStalemate:
		m.finish(ResolveStalemate, "")
	}
}

func (m *Match) finish(resolve string, winner engine.Color) {
	m.resolve = &resolve
	if winner != "" {
		m.winner = &winner
	}
	m.whiteClock.Stop()
	m.blackClock.Stop()
	log.Infow("match finished", "game", m.ID, "resolve", resolve, "winner", winner)
}

// flagFallen ends the match if the side to move has run out of time.
func (m *Match) flagFallen() bool {
	if m.resolve != nil {
		return true
	}
	toMove := m.game.Turn()
	if !m.clock(toMove).Expired() {
		return false
	}
	m.finish(ResolveTimeout, toMove.Opponent())
	return true
}

// CheckTimeout resolves the match on time if the side to move has no time left.
func (m *Match) CheckTimeout() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resolve != nil || !m.flagFallen() {
		return false
	}
	m.changed()
	return true
}

// Resign ends the match in favour of the opponent of playerID.
func (m *Match) Resign(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resolve != nil {
		return ErrGameOver
	}
	color, ok := m.seat(playerID)
	if !ok {
		return ErrNotInGame
	}
	m.finish(ResolveResign, color.Opponent())
	m.changed()
	return nil
}

// LegalMoves returns the legal moves of the piece on pos.
func (m *Match) LegalMoves(pos engine.Position) []engine.Move {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resolve != nil {
		return nil
	}
	return m.game.ValidMoves(pos)
}

// OnChange registers fn to receive the match record after every accepted
// move, resignation or timeout. fn runs with the match locked, so records
// arrive in the order the changes happened; it must not call back into the
// match.
func (m *Match) OnChange(fn func(Record)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onChange = fn
}

func (m *Match) changed() {
	if m.onChange != nil {
		m.onChange(m.record())
	}
}

// Record returns the persisted form of the match.
func (m *Match) Record() Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.record()
}

func (m *Match) record() Record {
	rec := Record{Game: m.game.Snapshot()}
	if m.resolve != nil {
		resolve := *m.resolve
		rec.Resolve = &resolve
	}
	if m.winner != nil {
		winner := *m.winner
		rec.Winner = &winner
	}
	return rec
}

func (m *Match) State() GameState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state()
}

// rows lays the board out as Board[r][c] for row r+1, column c+1.
func rows(b *engine.Board) [][]*engine.Piece {
	out := make([][]*engine.Piece, 8)
	for r := range out {
		out[r] = make([]*engine.Piece, 8)
		for c := range out[r] {
			out[r][c] = b.Piece(engine.Position{Row: r + 1, Col: c + 1})
		}
	}
	return out
}

func (m *Match) state() GameState {
	toMove := m.game.Turn()
	status := m.game.Status()

	legal := map[string][]engine.Move{}
	if m.resolve == nil {
		for _, mv := range m.game.LegalMoves(toMove) {
			from := mv.Start.String()
			legal[from] = append(legal[from], mv)
		}
	}

	var target *engine.Position
	if col, ok := m.game.EnPassant(); ok {
		row := 6
		if toMove == engine.Black {
			row = 3
		}
		target = &engine.Position{Row: row, Col: col}
	}

	players := m.players
	players.White.TimeLeft = m.whiteClock.tenths()
	players.Black.TimeLeft = m.blackClock.tenths()

	return GameState{
		Sound:           m.sound,
		Board:           rows(m.game.Board()),
		ToMove:          toMove,
		MoveHistory:     append([]Move(nil), m.history...),
		CapturedPieces:  m.captured,
		IsCheck:         status == engine.StatusCheck || status == engine.StatusCheckmate,
		Status:          status,
		LegalMoves:      legal,
		EnPassantTarget: target,
		Resolve:         m.resolve,
		Winner:          m.winner,
		Players:         players,
		LastMove:        m.lastMove,
		FEN:             m.game.FEN(),
	}
}

func (m *Match) RegisterConnection(playerID string, conn Conn) error {
	m.mu.Lock()
	isAuthorized := m.seatTaken(playerID) || m.canSpectate()
	m.mu.Unlock()

	if !isAuthorized {
		return ErrNotAuthorized
	}

	m.connections.mu.Lock()
	defer m.connections.mu.Unlock()
	if _, exists := m.connections.connections[playerID]; exists {
		return ErrAlreadyConnected
	}
	m.connections.connections[playerID] = conn
	log.Debugw("registered connection", "game", m.ID, "player", playerID)
	return nil
}

func (m *Match) seatTaken(playerID string) bool {
	_, ok := m.seat(playerID)
	return ok
}

// UnregisterConnection removes the connection of playerID if it is still conn.
func (m *Match) UnregisterConnection(playerID string, conn Conn) {
	m.connections.mu.Lock()
	defer m.connections.mu.Unlock()

	if current, exists := m.connections.connections[playerID]; exists && current == conn {
		delete(m.connections.connections, playerID)
		log.Debugw("unregistered connection", "game", m.ID, "player", playerID)
	}
}

// Broadcast sends the current state to every connection. Connections that
// fail to write are dropped.
func (m *Match) Broadcast() {
	payload, err := json.Marshal(m.State())
	if err != nil {
		log.Errorw("marshal game state", "game", m.ID, "error", err)
		return
	}
	msg := ws.Message{Type: ws.MessageTypeGameState, Payload: payload}

	m.connections.mu.RLock()
	active := make(map[string]Conn, len(m.connections.connections))
	for playerID, conn := range m.connections.connections {
		active[playerID] = conn
	}
	m.connections.mu.RUnlock()

	for playerID, conn := range active {
		if err := conn.WriteJSON(msg); err != nil {
			log.Warnw("send state failed", "game", m.ID, "player", playerID, "error", err)
			m.UnregisterConnection(playerID, conn)
		}
	}
}
