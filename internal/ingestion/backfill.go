package ingestion

import (
	"context"
	"fmt"
	"log"

	"dca-lab/internal/domain"
	"dca-lab/internal/pricefeed"
	"dca-lab/internal/storage"
)

// BackfillResult contains statistics from a backfill operation.
type BackfillResult struct {
	Fetched int
	Stored  int
	Skipped int // already present in the store
}

// Backfill loads the full series for a symbol from a source into the store,
// skipping dates that are already stored. Used for one-shot fixture imports.
func Backfill(ctx context.Context, source pricefeed.Source, store storage.PriceSeriesStore, symbol string, logger *log.Logger) (*BackfillResult, error) {
	if logger == nil {
		logger = log.Default()
	}

	series, err := source.GetRecentSeries(ctx, symbol, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch series: %w", err)
	}

	result := &BackfillResult{Fetched: len(series)}
	if len(series) == 0 {
		return result, nil
	}

	existing, err := store.GetRecent(ctx, symbol, 0)
	if err != nil {
		return nil, fmt.Errorf("read existing series: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, obs := range existing {
		seen[obs.Date.Format(domain.DateOnly)] = struct{}{}
	}

	fresh := make([]*domain.PriceObservation, 0, len(series))
	for _, obs := range series {
		if _, ok := seen[obs.Date.Format(domain.DateOnly)]; ok {
			result.Skipped++
			continue
		}
		fresh = append(fresh, obs)
	}

	if len(fresh) > 0 {
		if err := store.InsertBulk(ctx, fresh); err != nil {
			return nil, fmt.Errorf("store observations: %w", err)
		}
	}
	result.Stored = len(fresh)

	logger.Printf("backfill %s: fetched %d, stored %d, skipped %d",
		symbol, result.Fetched, result.Stored, result.Skipped)

	return result, nil
}
