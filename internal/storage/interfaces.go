package storage

import (
	"context"
	"time"

	"dca-lab/internal/domain"
)

// PriceSeriesStore provides access to daily close storage.
type PriceSeriesStore interface {
	// InsertBulk adds multiple observations. Fails entire batch on duplicate
	// (symbol, date), including intra-batch duplicates.
	InsertBulk(ctx context.Context, obs []*domain.PriceObservation) error

	// GetRecent retrieves the trailing limit observations for a symbol,
	// ordered by date ASC. limit <= 0 returns the full series.
	GetRecent(ctx context.Context, symbol string, limit int) ([]*domain.PriceObservation, error)

	// GetByDateRange retrieves observations for a symbol within [start, end]
	// (inclusive), ordered by date ASC.
	GetByDateRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PriceObservation, error)

	// LatestDate returns the most recent observation date for a symbol.
	// Returns ErrNotFound if the symbol has no observations.
	LatestDate(ctx context.Context, symbol string) (time.Time, error)
}

// SimulationRunStore provides access to simulation audit records.
type SimulationRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.SimulationRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.SimulationRun, error)

	// GetBySymbol retrieves all runs for a symbol, ordered by ran_at ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.SimulationRun, error)
}

// CurveStore provides access to per-day simulation curve storage (analytics).
type CurveStore interface {
	// InsertCurve stores the full day-by-day curve for a run.
	InsertCurve(ctx context.Context, runID string, records []*domain.DayRecord) error

	// GetCurve retrieves the curve for a run, ordered by day index ASC.
	GetCurve(ctx context.Context, runID string) ([]*domain.DayRecord, error)
}
