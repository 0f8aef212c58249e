package stats

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pefman/cosmic-race/internal/models"
)

var ErrInvalidResult = errors.New("invalid race result")

// Store keeps finished races in memory, plus a per-day tally keyed by UTC date.
type Store struct {
	mu      sync.Mutex
	results []models.RaceResult
	seen    map[string]struct{}
	daily   map[string]*models.ResultsSummary
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		seen:  map[string]struct{}{},
		daily: map[string]*models.ResultsSummary{},
		now:   time.Now,
	}
}

// RecordResult stores a finished race. Duplicate sessions are ignored.
func (s *Store) RecordResult(_ context.Context, r models.RaceResult) error {
	if r.Session == "" || (r.Winner != "human" && r.Winner != "computer") || r.Turns <= 0 {
		return ErrInvalidResult
	}
	if r.FinishedAt == 0 {
		r.FinishedAt = s.now().Unix()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[r.Session]; dup {
		return nil
	}
	s.seen[r.Session] = struct{}{}
	s.results = append(s.results, r)

	dateKey := time.Unix(r.FinishedAt, 0).UTC().Format("2006-01-02")
	day := s.daily[dateKey]
	if day == nil {
		day = &models.ResultsSummary{}
		s.daily[dateKey] = day
	}
	tally(day, r)
	return nil
}

// Summary aggregates every recorded race.
func (s *Store) Summary() models.ResultsSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum models.ResultsSummary
	for _, r := range s.results {
		tally(&sum, r)
	}
	return sum
}

// Today aggregates races finished on the current UTC date.
func (s *Store) Today() models.ResultsSummary {
	dateKey := s.now().UTC().Format("2006-01-02")
	s.mu.Lock()
	defer s.mu.Unlock()
	if day, ok := s.daily[dateKey]; ok {
		return *day
	}
	return models.ResultsSummary{}
}

// Recent returns up to n of the latest results, newest first.
func (s *Store) Recent(n int) []models.RaceResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.results) {
		n = len(s.results)
	}
	out := make([]models.RaceResult, 0, n)
	for i := len(s.results) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.results[i])
	}
	return out
}

func tally(sum *models.ResultsSummary, r models.RaceResult) {
	total := sum.AverageTurns * float64(sum.Games)
	sum.Games++
	switch r.Winner {
	case "human":
		sum.HumanWins++
	case "computer":
		sum.ComputerWins++
	}
	if sum.ShortestTurns == 0 || r.Turns < sum.ShortestTurns {
		sum.ShortestTurns = r.Turns
	}
	sum.AverageTurns = (total + float64(r.Turns)) / float64(sum.Games)
}
