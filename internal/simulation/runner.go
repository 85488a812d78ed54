package simulation

import (
	"context"
	"time"

	"dca-lab/internal/domain"
	"dca-lab/internal/idhash"
	"dca-lab/internal/observability"
	"dca-lab/internal/pricefeed"
	"dca-lab/internal/storage"
)

// Runner executes simulations against a price source and records the results.
// The engine itself is pure; the Runner owns the I/O around it.
type Runner struct {
	source     pricefeed.Source
	runStore   storage.SimulationRunStore
	curveStore storage.CurveStore
	now        func() time.Time
}

// RunnerOptions contains configuration for creating a Runner.
// RunStore and CurveStore are optional; a nil store skips persistence.
type RunnerOptions struct {
	Source     pricefeed.Source
	RunStore   storage.SimulationRunStore
	CurveStore storage.CurveStore
	Now        func() time.Time
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		source:     opts.Source,
		runStore:   opts.RunStore,
		curveStore: opts.CurveStore,
		now:        now,
	}
}

// Run executes one simulation for a symbol.
// Steps:
//  1. Validate parameters before touching the source
//  2. Load the trailing LookbackDays rows from the price source
//  3. Run the pure engine
//  4. Persist the audit run and the per-day curve
func (r *Runner) Run(ctx context.Context, symbol string, params domain.SimulationParameters) (*domain.SimulationResult, error) {
	start := r.now()

	if err := params.Validate(); err != nil {
		observability.RecordSimulation("invalid_parameter", time.Since(start).Seconds())
		return nil, err
	}

	series, err := r.source.GetRecentSeries(ctx, symbol, params.LookbackDays)
	if err != nil {
		observability.RecordSimulation("source_error", time.Since(start).Seconds())
		return nil, err
	}

	result, err := Simulate(series, params)
	if err != nil {
		observability.RecordSimulation("invalid_price", time.Since(start).Seconds())
		return nil, err
	}
	// The source may not know the symbol (empty series); keep it on the result.
	result.Symbol = symbol

	ranAt := r.now()
	run := &domain.SimulationRun{
		RunID:             idhash.ComputeRunID(symbol, params.LookbackDays, params.DailyContribution, ranAt.UnixNano()),
		Symbol:            symbol,
		LookbackDays:      params.LookbackDays,
		DailyContribution: params.DailyContribution,
		EffectiveDays:     result.EffectiveDays,
		FinalValue:        result.FinalValue(),
		FinalInvested:     result.FinalInvested(),
		RanAt:             ranAt,
	}

	if r.runStore != nil {
		if err := r.runStore.Insert(ctx, run); err != nil {
			observability.RecordSimulation("store_error", time.Since(start).Seconds())
			return nil, err
		}
	}
	if r.curveStore != nil && len(result.Records) > 0 {
		if err := r.curveStore.InsertCurve(ctx, run.RunID, result.Records); err != nil {
			observability.RecordSimulation("store_error", time.Since(start).Seconds())
			return nil, err
		}
	}

	observability.RecordSimulation("success", time.Since(start).Seconds())
	observability.RecordSimulationWindow(result.EffectiveDays, result.RequestedDays)

	return result, nil
}
