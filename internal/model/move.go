package model

import "github.com/benbeisheim/chess-backend/internal/engine"

// WSMove is a move as submitted by a client.
type WSMove struct {
	From      engine.Position  `json:"from"`
	To        engine.Position  `json:"to"`
	Promotion engine.PieceType `json:"promotion,omitempty"`
}

func (m WSMove) engineMove() engine.Move {
	return engine.Move{Start: m.From, End: m.To, Promotion: m.Promotion}
}

// Move pairs White's ply with Black's reply.
type Move struct {
	WhitePly *engine.Ply `json:"whitePly"`
	BlackPly *engine.Ply `json:"blackPly"`
}

type SimpleMove struct {
	From engine.Position `json:"from"`
	To   engine.Position `json:"to"`
}
