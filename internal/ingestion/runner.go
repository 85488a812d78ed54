// Package ingestion keeps the price store current: a poll runner pulls daily
// closes from a pricefeed source, and a live ticker tracks intraday spot
// prices over WebSocket for status reporting.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dca-lab/internal/domain"
	"dca-lab/internal/observability"
	"dca-lab/internal/pricefeed"
	"dca-lab/internal/storage"
)

// DefaultPollInterval is how often the runner checks the source for new closes.
const DefaultPollInterval = 1 * time.Hour

// Runner polls a price source and appends new daily closes to the store.
// Only completed days are stored; the store is append-only and a close for
// the current day could still move.
type Runner struct {
	source   pricefeed.Source
	store    storage.PriceSeriesStore
	symbols  []string
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source   pricefeed.Source
	Store    storage.PriceSeriesStore
	Symbols  []string
	Interval time.Duration
	Logger   *log.Logger
	Now      func() time.Time
}

// NewRunner creates an ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	interval := opts.Interval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		source:   opts.Source,
		store:    opts.Store,
		symbols:  opts.Symbols,
		interval: interval,
		logger:   logger,
		now:      now,
	}
}

// Run polls until the context is cancelled. The first sync happens
// immediately; per-symbol failures are logged and retried next tick.
func (r *Runner) Run(ctx context.Context) error {
	r.syncAll(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.syncAll(ctx)
		}
	}
}

// syncAll syncs every configured symbol.
func (r *Runner) syncAll(ctx context.Context) {
	for _, symbol := range r.symbols {
		stored, err := r.SyncSymbol(ctx, symbol)
		if err != nil {
			r.logger.Printf("sync %s: %v", symbol, err)
			observability.RecordIngestionError("sync")
			continue
		}
		if stored > 0 {
			r.logger.Printf("sync %s: stored %d new observations", symbol, stored)
		}
	}
}

// SyncSymbol fetches the source series for one symbol and stores the rows
// newer than the latest stored date. Returns the number of rows stored.
func (r *Runner) SyncSymbol(ctx context.Context, symbol string) (int, error) {
	latest, err := r.store.LatestDate(ctx, symbol)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("latest date: %w", err)
	}

	series, err := r.source.GetRecentSeries(ctx, symbol, 0)
	if err != nil {
		return 0, fmt.Errorf("fetch series: %w", err)
	}

	today := domain.NormalizeDate(r.now())
	fresh := make([]*domain.PriceObservation, 0, len(series))
	for _, obs := range series {
		if !obs.Date.After(latest) {
			continue
		}
		if !obs.Date.Before(today) {
			continue // current day may still move
		}
		fresh = append(fresh, obs)
	}

	if len(fresh) == 0 {
		return 0, nil
	}

	if err := r.store.InsertBulk(ctx, fresh); err != nil {
		return 0, fmt.Errorf("store observations: %w", err)
	}

	observability.RecordObservationsStored(symbol, len(fresh))
	observability.UpdateLastIngestedDate(symbol, fresh[len(fresh)-1].Date.Unix())

	return len(fresh), nil
}
