package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"dca-lab/internal/domain"
	"dca-lab/internal/storage"
)

// PriceSeriesStore is an in-memory implementation of storage.PriceSeriesStore.
type PriceSeriesStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PriceObservation // keyed by (symbol, date)
}

// NewPriceSeriesStore creates a new in-memory price series store.
func NewPriceSeriesStore() *PriceSeriesStore {
	return &PriceSeriesStore{
		data: make(map[string]*domain.PriceObservation),
	}
}

var _ storage.PriceSeriesStore = (*PriceSeriesStore)(nil)

// obsKey generates a unique key for an observation.
func obsKey(symbol string, date time.Time) string {
	return fmt.Sprintf("%s|%s", symbol, date.Format(domain.DateOnly))
}

// InsertBulk adds multiple observations. Fails entire batch on duplicate (symbol, date).
func (s *PriceSeriesStore) InsertBulk(_ context.Context, obs []*domain.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: validate and detect duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(obs))
	for _, o := range obs {
		if o == nil || o.Symbol == "" {
			return storage.ErrInvalidInput
		}
		key := obsKey(o.Symbol, o.Date)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, o := range obs {
		obsCopy := *o
		obsCopy.Date = domain.NormalizeDate(o.Date)
		s.data[obsKey(o.Symbol, o.Date)] = &obsCopy
	}

	return nil
}

// GetRecent retrieves the trailing limit observations for a symbol, ordered by date ASC.
func (s *PriceSeriesStore) GetRecent(_ context.Context, symbol string, limit int) ([]*domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceObservation
	for _, o := range s.data {
		if o.Symbol == symbol {
			obsCopy := *o
			result = append(result, &obsCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}

	return result, nil
}

// GetByDateRange retrieves observations for a symbol within [start, end] (inclusive).
func (s *PriceSeriesStore) GetByDateRange(_ context.Context, symbol string, start, end time.Time) ([]*domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceObservation
	for _, o := range s.data {
		if o.Symbol == symbol && !o.Date.Before(start) && !o.Date.After(end) {
			obsCopy := *o
			result = append(result, &obsCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

// LatestDate returns the most recent observation date for a symbol.
func (s *PriceSeriesStore) LatestDate(_ context.Context, symbol string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	found := false
	for _, o := range s.data {
		if o.Symbol == symbol && (!found || o.Date.After(latest)) {
			latest = o.Date
			found = true
		}
	}

	if !found {
		return time.Time{}, storage.ErrNotFound
	}
	return latest, nil
}
