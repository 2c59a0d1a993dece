package memory

import (
	"context"
	"sync"
)

// PlayerStats are a user's aggregate battle counters.
type PlayerStats struct {
	Battles    int
	Wins       int
	Losses     int
	Ties       int
	Points     int
	Streak     int
	BestStreak int
}

// StatsStore keeps aggregate stats in memory (tests/demos).
type StatsStore struct {
	mu    sync.RWMutex
	stats map[string]PlayerStats
}

func NewStatsStore() *StatsStore {
	return &StatsStore{stats: make(map[string]PlayerStats)}
}

func (s *StatsStore) RecordOutcome(_ context.Context, userID string, won, tied bool, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats[userID]
	st.Battles++
	st.Points += points
	switch {
	case won:
		st.Wins++
		st.Streak++
		if st.Streak > st.BestStreak {
			st.BestStreak = st.Streak
		}
	case tied:
		st.Ties++
		st.Streak = 0
	default:
		st.Losses++
		st.Streak = 0
	}
	s.stats[userID] = st
	return nil
}

// Stats returns the current counters for a user.
func (s *StatsStore) Stats(userID string) PlayerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats[userID]
}
