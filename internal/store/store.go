package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/benbeisheim/chess-backend/internal/model"
	"golang.org/x/exp/maps"
)

var ErrNotFound = errors.New("match not found")

// Store persists match records by game ID.
type Store interface {
	Save(ctx context.Context, gameID string, rec model.Record) error
	Load(ctx context.Context, gameID string) (model.Record, error)
	List(ctx context.Context) ([]string, error)
}

// MemoryStore keeps records as encoded JSON so that loads never share
// pieces with the match that saved them.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string][]byte)}
}

func (s *MemoryStore) Save(ctx context.Context, gameID string, rec model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode match %s: %w", gameID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[gameID] = data
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, gameID string) (model.Record, error) {
	if err := ctx.Err(); err != nil {
		return model.Record{}, err
	}
	s.mu.RLock()
	data, ok := s.games[gameID]
	s.mu.RUnlock()
	if !ok {
		return model.Record{}, fmt.Errorf("%w: %s", ErrNotFound, gameID)
	}

	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.Record{}, fmt.Errorf("decode match %s: %w", gameID, err)
	}
	return rec, nil
}

// List returns the stored game IDs in no particular order.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Keys(s.games), nil
}
