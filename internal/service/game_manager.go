package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/chess-backend/internal/engine"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/store"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"golang.org/x/exp/maps"
)

// GameManager owns the live matches, the matchmaking queue and the channels
// that queued players wait on. Every accepted move and every result is
// written to the store, and a match missing from memory is restored from it
// on first access.
type GameManager struct {
	matches          map[string]*model.Match
	queue            *model.Queue
	matchingChannels map[string]chan model.MatchFoundEvent
	store            store.Store
	clock            time.Duration
	mu               sync.RWMutex
}

func NewGameManager(st store.Store, clock time.Duration) *GameManager {
	return &GameManager{
		matches:          make(map[string]*model.Match),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan model.MatchFoundEvent),
		store:            st,
		clock:            clock,
	}
}

// Run loads the stored matches, then pairs queued players and flags expired
// clocks every interval until ctx is done.
func (gm *GameManager) Run(ctx context.Context, interval time.Duration) error {
	if err := gm.restoreAll(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for gm.matchOnce(ctx) {
			}
			gm.sweepTimeouts()
		}
	}
}

// matchOnce pairs the two longest-waiting players into a new match and
// notifies them. It reports whether a pair was made.
func (gm *GameManager) matchOnce(ctx context.Context) bool {
	player1, player2, ok := gm.queue.GetNextPair()
	if !ok {
		return false
	}

	gameID := uuid.New().String()
	match := model.NewMatch(gameID, gm.clock)
	p1Color, err := match.AddPlayer(player1.ID)
	if err != nil {
		log.Errorw("seat matched player", "game", gameID, "player", player1.ID, "error", err)
		return true
	}
	p2Color, err := match.AddPlayer(player2.ID)
	if err != nil {
		log.Errorw("seat matched player", "game", gameID, "player", player2.ID, "error", err)
		return true
	}

	if err := gm.track(ctx, match); err != nil {
		log.Errorw("save match", "game", gameID, "error", err)
	}
	gm.mu.Lock()
	gm.matches[gameID] = match
	gm.mu.Unlock()

	sent := gm.notify(player1.ID, model.MatchFoundEvent{GameID: gameID, Color: p1Color})
	if !gm.notify(player2.ID, model.MatchFoundEvent{GameID: gameID, Color: p2Color}) {
		sent = false
	}
	if !sent {
		log.Warnw("not every matched player was notified", "game", gameID)
	}
	log.Infow("match created", "game", gameID, "white", player1.ID, "black", player2.ID)
	return true
}

// notify delivers event on the player's matchmaking channel and closes it.
func (gm *GameManager) notify(playerID string, event model.MatchFoundEvent) bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		return false
	}
	delete(gm.matchingChannels, playerID)
	defer close(ch)

	select {
	case ch <- event:
		return true
	default:
		log.Warnw("matchmaking channel full", "player", playerID)
		return false
	}
}

func (gm *GameManager) sweepTimeouts() {
	gm.mu.RLock()
	matches := maps.Values(gm.matches)
	gm.mu.RUnlock()

	for _, match := range matches {
		if match.CheckTimeout() {
			match.Broadcast()
		}
	}
}

// saver writes every change of the match to the store. It runs under the
// match lock, so the store never goes back to an older position, and it
// outlives the request that caused the change, so it uses no request context.
func (gm *GameManager) saver(gameID string) func(model.Record) {
	return func(rec model.Record) {
		if err := gm.store.Save(context.Background(), gameID, rec); err != nil {
			log.Errorw("save match", "game", gameID, "error", err)
		}
	}
}

// track saves a new match and hooks up saving of its later changes.
func (gm *GameManager) track(ctx context.Context, match *model.Match) error {
	match.OnChange(gm.saver(match.ID))
	return gm.store.Save(ctx, match.ID, match.Record())
}

// restoreAll brings every stored match into memory so that running clocks
// are swept again after a restart.
func (gm *GameManager) restoreAll(ctx context.Context) error {
	ids, err := gm.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list stored matches: %w", err)
	}
	for _, id := range ids {
		if _, err := gm.GetGame(ctx, id); err != nil {
			log.Errorw("restore match", "game", id, "error", err)
		}
	}
	if len(ids) > 0 {
		log.Infow("stored matches loaded", "count", len(ids))
	}
	return nil
}

// RegisterMatchmakingChannel sets the channel the player's match will be
// announced on. A channel registered earlier for the same player is closed.
func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if existing, ok := gm.matchingChannels[playerID]; ok {
		delete(gm.matchingChannels, playerID)
		close(existing)
	}
	gm.matchingChannels[playerID] = ch
}

// UnregisterMatchmakingChannel forgets the player's channel without closing
// it and takes the player out of the queue.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gm.mu.Lock()
	if current, ok := gm.matchingChannels[playerID]; ok && current == ch {
		delete(gm.matchingChannels, playerID)
	}
	gm.mu.Unlock()

	gm.queue.Remove(playerID)
}

func (gm *GameManager) CreateGame(ctx context.Context, gameID string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.matches[gameID]; exists {
		return fmt.Errorf("%w: %s", ErrGameExists, gameID)
	}
	match := model.NewMatch(gameID, gm.clock)
	if err := gm.track(ctx, match); err != nil {
		return err
	}
	gm.matches[gameID] = match
	return nil
}

// GetGame returns the live match, restoring it from the store if needed.
func (gm *GameManager) GetGame(ctx context.Context, gameID string) (*model.Match, error) {
	gm.mu.RLock()
	match, exists := gm.matches[gameID]
	gm.mu.RUnlock()
	if exists {
		return match, nil
	}

	rec, err := gm.store.Load(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err != nil {
		return nil, err
	}
	restored, err := model.RestoreMatch(gameID, rec, gm.clock)
	if err != nil {
		return nil, err
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	if match, exists := gm.matches[gameID]; exists {
		return match, nil
	}
	restored.OnChange(gm.saver(gameID))
	gm.matches[gameID] = restored
	log.Infow("match restored", "game", gameID)
	return restored, nil
}

func (gm *GameManager) AddPlayerToGame(ctx context.Context, gameID string, playerID string) (engine.Color, error) {
	match, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	color, err := match.AddPlayer(playerID)
	if err != nil {
		return "", err
	}
	log.Debugw("player joined", "game", gameID, "player", playerID, "color", color)
	match.Broadcast()
	return color, nil
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	if err := gm.queue.AddPlayer(model.Player{ID: playerID}); err != nil {
		return err
	}
	log.Debugw("player queued", "player", playerID, "queued", gm.queue.Size())
	return nil
}

func (gm *GameManager) GetGameState(ctx context.Context, gameID string) (model.GameState, error) {
	match, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return match.State(), nil
}

func (gm *GameManager) LegalMoves(ctx context.Context, gameID string, pos engine.Position) ([]engine.Move, error) {
	match, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return match.LegalMoves(pos), nil
}

// MakeMove plays the move and pushes the state to every connection. A move
// that arrives after the mover's flag fell ends the match, which is pushed
// too. Saving happens through the match's change hook; a failed save is
// logged and the move stands.
func (gm *GameManager) MakeMove(ctx context.Context, gameID string, playerID string, move model.WSMove) (engine.Ply, error) {
	match, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return engine.Ply{}, err
	}
	ply, err := match.MakeMove(playerID, move)
	if errors.Is(err, model.ErrGameOver) {
		match.Broadcast()
	}
	if err != nil {
		return engine.Ply{}, err
	}
	match.Broadcast()
	return ply, nil
}

func (gm *GameManager) Resign(ctx context.Context, gameID string, playerID string) error {
	match, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if err := match.Resign(playerID); err != nil {
		return err
	}
	match.Broadcast()
	return nil
}

// RegisterConnection attaches conn to the match and sends it the current state.
func (gm *GameManager) RegisterConnection(ctx context.Context, gameID string, playerID string, conn model.Conn) error {
	match, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if err := match.RegisterConnection(playerID, conn); err != nil {
		return err
	}
	match.Broadcast()
	return nil
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	gm.mu.RLock()
	match, exists := gm.matches[gameID]
	gm.mu.RUnlock()
	if !exists {
		return
	}
	match.UnregisterConnection(playerID, conn)
}
