package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/scramble/pkg/metrics"
)

// MemoryStore keeps best scores for the process lifetime.
type MemoryStore struct {
	mu     sync.RWMutex
	best   map[string]int
	closed bool
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{best: make(map[string]int)}
}

// Best returns the stored best score for key.
func (s *MemoryStore) Best(_ context.Context, key string) (int, error) {
	if key == "" {
		return 0, ErrInvalidKey
	}
	start := time.Now()
	defer func() { metrics.RecordScoreStoreLatency("best", msSince(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	return s.best[key], nil
}

// RecordBest stores score if it beats the current best.
func (s *MemoryStore) RecordBest(_ context.Context, key string, score int) (int, bool, error) {
	if err := validate(key, score); err != nil {
		return 0, false, err
	}
	start := time.Now()
	defer func() { metrics.RecordScoreStoreLatency("record_best", msSince(start)) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false, ErrStoreClosed
	}
	cur, ok := s.best[key]
	if ok && score <= cur {
		return cur, false, nil
	}
	s.best[key] = score
	return score, true, nil
}

// Len returns the number of players with a stored score.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.best)
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
