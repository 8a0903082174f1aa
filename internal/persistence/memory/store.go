// Package memory provides an in-process ScoreStore used when no database is
// configured and by the replay CLI.
package memory

import (
	"context"
	"sort"
	"sync"

	"example.com/wellbeing/internal/domain"
)

// Store keeps scores in maps keyed by user id.
type Store struct {
	mu      sync.RWMutex
	current map[string]domain.WellbeingScore
	daily   map[string]map[string]domain.DailyWellbeingScores
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		current: make(map[string]domain.WellbeingScore),
		daily:   make(map[string]map[string]domain.DailyWellbeingScores),
	}
}

func (s *Store) GetCurrent(_ context.Context, userID string) (*domain.WellbeingScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.current[userID]
	if !ok {
		return nil, nil
	}
	return &score, nil
}

func (s *Store) UpsertCurrent(_ context.Context, userID string, score domain.WellbeingScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.current[userID]; ok && existing.LastUpdated.After(score.LastUpdated) {
		return nil
	}
	s.current[userID] = score
	return nil
}

func (s *Store) UpsertDaily(_ context.Context, userID string, daily domain.DailyWellbeingScores) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	days, ok := s.daily[userID]
	if !ok {
		days = make(map[string]domain.DailyWellbeingScores)
		s.daily[userID] = days
	}
	days[daily.Date] = daily
	return nil
}

func (s *Store) ListDaily(_ context.Context, userID string, limit int) ([]domain.DailyWellbeingScores, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DailyWellbeingScores, 0, len(s.daily[userID]))
	for _, d := range s.daily[userID] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
