// Package pricefeed supplies ordered daily price series to the simulator.
// Sources differ in where the series comes from (fixture file, REST API,
// database); all of them return series sorted ascending by date with
// distinct dates and strictly positive prices.
package pricefeed

import (
	"context"

	"dca-lab/internal/domain"
	"dca-lab/internal/storage"
)

// Source provides ordered daily price series from an external origin.
type Source interface {
	// GetRecentSeries returns the trailing limit observations for a symbol,
	// ordered by date ASC. limit <= 0 returns the full available series.
	// Caching and retry policy belong to the source, not its consumers.
	GetRecentSeries(ctx context.Context, symbol string, limit int) ([]*domain.PriceObservation, error)
}

// StoreSource serves series out of a PriceSeriesStore. This is the cached
// path: ingestion keeps the store current, simulations read from it.
type StoreSource struct {
	store storage.PriceSeriesStore
}

// NewStoreSource creates a store-backed source.
func NewStoreSource(store storage.PriceSeriesStore) *StoreSource {
	return &StoreSource{store: store}
}

var _ Source = (*StoreSource)(nil)

// GetRecentSeries returns the trailing limit observations for a symbol.
func (s *StoreSource) GetRecentSeries(ctx context.Context, symbol string, limit int) ([]*domain.PriceObservation, error) {
	return s.store.GetRecent(ctx, symbol, limit)
}

// StaticSource serves a fixed, already-validated series from memory.
// Used by imports and tests.
type StaticSource struct {
	series []*domain.PriceObservation
}

// NewStaticSource creates a source over a fixed series. The series must be
// sorted ascending by date.
func NewStaticSource(series []*domain.PriceObservation) *StaticSource {
	return &StaticSource{series: series}
}

var _ Source = (*StaticSource)(nil)

// GetRecentSeries returns the trailing limit observations matching symbol.
func (s *StaticSource) GetRecentSeries(_ context.Context, symbol string, limit int) ([]*domain.PriceObservation, error) {
	var result []*domain.PriceObservation
	for _, obs := range s.series {
		if obs.Symbol == symbol {
			obsCopy := *obs
			result = append(result, &obsCopy)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}
