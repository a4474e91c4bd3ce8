package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/benbeisheim/chess-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// syncConn serializes writes; broadcasts and error replies come from
// different goroutines.
type syncConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *syncConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// HandleConnection serves /ws/game/:gameId until the client goes away.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	ctx := context.Background()
	gameID := c.Params("gameId")
	playerID, _ := c.Locals("playerID").(string)
	conn := &syncConn{conn: c}

	if err := wsc.gameService.RegisterConnection(ctx, gameID, playerID, conn); err != nil {
		log.Warnw("register connection", "game", gameID, "player", playerID, "error", err)
		_ = conn.WriteJSON(ws.ErrorMessage(err))
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, conn)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debugw("websocket closed", "game", gameID, "player", playerID, "error", err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			_ = conn.WriteJSON(ws.ErrorMessage(fmt.Errorf("parse message: %w", err)))
			continue
		}
		if err := wsc.handleMessage(ctx, gameID, playerID, msg); err != nil {
			log.Debugw("message rejected", "game", gameID, "player", playerID, "type", msg.Type, "error", err)
			_ = conn.WriteJSON(ws.ErrorMessage(err))
		}
	}
}

func (wsc *WebSocketController) handleMessage(ctx context.Context, gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.WSMove
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return fmt.Errorf("parse move: %w", err)
		}
		_, err := wsc.gameService.HandleMove(ctx, gameID, playerID, move)
		return err
	case ws.MessageTypeResign:
		return wsc.gameService.Resign(ctx, gameID, playerID)
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// HandleMatchmaking serves /ws/matchmaking: it queues the player and sends a
// single matchFound message once an opponent is paired.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID, _ := c.Locals("playerID").(string)
	ch := make(chan model.MatchFoundEvent, 1)
	wsc.gameService.RegisterMatchmakingChannel(playerID, ch)
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, ch)

	if err := wsc.gameService.JoinMatchmaking(playerID); err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
		_ = c.WriteJSON(ws.ErrorMessage(err))
		return
	}

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			return
		}
		msg, err := ws.NewMessage(ws.MessageTypeMatchFound, event)
		if err != nil {
			log.Errorw("encode match found", "player", playerID, "error", err)
			return
		}
		if err := c.WriteJSON(msg); err != nil {
			log.Warnw("send match found", "player", playerID, "error", err)
		}
	case <-gone:
		log.Debugw("left matchmaking", "player", playerID)
	}
}
