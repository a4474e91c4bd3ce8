package model

import (
	"fmt"

	"github.com/benbeisheim/chess-backend/internal/engine"
)

// Record is the persisted form of a match: the position and, once the match
// is over, how it ended.
type Record struct {
	Game    engine.Snapshot `json:"game"`
	Resolve *string         `json:"resolve,omitempty"`
	Winner  *engine.Color   `json:"winner,omitempty"`
}

func (r Record) validate() error {
	if r.Resolve == nil {
		if r.Winner != nil {
			return fmt.Errorf("%w: winner without a result", engine.ErrCorruptSnapshot)
		}
		return nil
	}
	switch *r.Resolve {
	case ResolveCheckmate, ResolveResign, ResolveTimeout:
		if r.Winner == nil || !r.Winner.Valid() {
			return fmt.Errorf("%w: %s without a winner", engine.ErrCorruptSnapshot, *r.Resolve)
		}
	case ResolveStalemate:
		if r.Winner != nil {
			return fmt.Errorf("%w: stalemate with a winner", engine.ErrCorruptSnapshot)
		}
	default:
		return fmt.Errorf("%w: result %q", engine.ErrCorruptSnapshot, *r.Resolve)
	}
	return nil
}
