package memory

import (
	"context"
	"sort"
	"sync"

	"dca-lab/internal/domain"
	"dca-lab/internal/storage"
)

// SimulationRunStore is an in-memory implementation of storage.SimulationRunStore.
type SimulationRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SimulationRun // keyed by run_id
}

// NewSimulationRunStore creates a new in-memory simulation run store.
func NewSimulationRunStore() *SimulationRunStore {
	return &SimulationRunStore{
		data: make(map[string]*domain.SimulationRun),
	}
}

var _ storage.SimulationRunStore = (*SimulationRunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *SimulationRunStore) Insert(_ context.Context, run *domain.SimulationRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	runCopy := *run
	s.data[run.RunID] = &runCopy
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *SimulationRunStore) GetByID(_ context.Context, runID string) (*domain.SimulationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	runCopy := *run
	return &runCopy, nil
}

// GetBySymbol retrieves all runs for a symbol, ordered by ran_at ASC.
func (s *SimulationRunStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.SimulationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SimulationRun
	for _, run := range s.data {
		if run.Symbol == symbol {
			runCopy := *run
			result = append(result, &runCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].RanAt.Equal(result[j].RanAt) {
			return result[i].RanAt.Before(result[j].RanAt)
		}
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}
