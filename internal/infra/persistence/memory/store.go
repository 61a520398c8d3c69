// Package memory keeps run history in process memory for tests and one-shot runs.
package memory

import (
	"context"
	"sync"

	"peptidesynth/internal/history/core"
)

var _ core.Store = (*Store)(nil)

// Store is a mutex-guarded slice of runs.
type Store struct {
	mu     sync.RWMutex
	runs   []core.Run
	nextID int64
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{} }

// Record appends run, assigning it the next ID.
func (s *Store) Record(ctx context.Context, run core.Run) (core.Run, error) {
	if err := ctx.Err(); err != nil {
		return core.Run{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	run.ID = s.nextID
	s.runs = append(s.runs, run)
	return run, nil
}

// List returns runs newest first.
func (s *Store) List(ctx context.Context, layout string, limit int) ([]core.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Run, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		if layout != "" && s.runs[i].Layout != layout {
			continue
		}
		out = append(out, s.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
