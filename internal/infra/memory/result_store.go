package memory

import (
	"context"
	"sync"

	"quiz-battle-service/internal/domain"
)

// ResultStore keeps finished battles in memory (tests/demos).
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.BattleResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) SaveResult(_ context.Context, res domain.BattleResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, res)
	return nil
}

// Results snapshots everything persisted so far.
func (s *ResultStore) Results() []domain.BattleResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.BattleResult, len(s.results))
	copy(out, s.results)
	return out
}
