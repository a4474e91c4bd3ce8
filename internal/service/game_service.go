package service

import (
	"context"
	"fmt"

	"github.com/benbeisheim/chess-backend/internal/engine"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/google/uuid"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) JoinGame(ctx context.Context, gameID string, playerID string) (engine.Color, error) {
	return gs.gameManager.AddPlayerToGame(ctx, gameID, playerID)
}

func (gs *GameService) CreateGame(ctx context.Context) (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(ctx, gameID); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return gameID, nil
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) GetGameState(ctx context.Context, gameID string) (model.GameState, error) {
	return gs.gameManager.GetGameState(ctx, gameID)
}

// LegalMoves returns the legal moves from square, given as "e2".
func (gs *GameService) LegalMoves(ctx context.Context, gameID string, square string) ([]engine.Move, error) {
	pos, err := engine.ParseSquare(square)
	if err != nil {
		return nil, err
	}
	return gs.gameManager.LegalMoves(ctx, gameID, pos)
}

func (gs *GameService) HandleMove(ctx context.Context, gameID string, playerID string, move model.WSMove) (engine.Ply, error) {
	return gs.gameManager.MakeMove(ctx, gameID, playerID, move)
}

func (gs *GameService) Resign(ctx context.Context, gameID string, playerID string) error {
	return gs.gameManager.Resign(ctx, gameID, playerID)
}

func (gs *GameService) RegisterConnection(ctx context.Context, gameID string, playerID string, conn model.Conn) error {
	return gs.gameManager.RegisterConnection(ctx, gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}
