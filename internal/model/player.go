package model

import "github.com/benbeisheim/chess-backend/internal/engine"

type Player struct {
	ID    string
	Color engine.Color
}

type ClientPlayer struct {
	ID       string       `json:"name"`
	Color    engine.Color `json:"color"`
	TimeLeft int          `json:"timeLeft"`
}
