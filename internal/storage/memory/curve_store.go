package memory

import (
	"context"
	"sort"
	"sync"

	"dca-lab/internal/domain"
	"dca-lab/internal/storage"
)

// CurveStore is an in-memory implementation of storage.CurveStore.
type CurveStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.DayRecord // keyed by run_id
}

// NewCurveStore creates a new in-memory curve store.
func NewCurveStore() *CurveStore {
	return &CurveStore{
		data: make(map[string][]*domain.DayRecord),
	}
}

var _ storage.CurveStore = (*CurveStore)(nil)

// InsertCurve stores the full day-by-day curve for a run.
func (s *CurveStore) InsertCurve(_ context.Context, runID string, records []*domain.DayRecord) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}

	curve := make([]*domain.DayRecord, 0, len(records))
	for _, r := range records {
		recCopy := *r
		curve = append(curve, &recCopy)
	}
	s.data[runID] = curve
	return nil
}

// GetCurve retrieves the curve for a run, ordered by day index ASC.
func (s *CurveStore) GetCurve(_ context.Context, runID string) ([]*domain.DayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	curve, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	result := make([]*domain.DayRecord, 0, len(curve))
	for _, r := range curve {
		recCopy := *r
		result = append(result, &recCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DayIndex < result[j].DayIndex
	})

	return result, nil
}
