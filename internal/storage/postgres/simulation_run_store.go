package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dca-lab/internal/domain"
	"dca-lab/internal/storage"
)

// SimulationRunStore implements storage.SimulationRunStore using PostgreSQL.
type SimulationRunStore struct {
	pool *Pool
}

// NewSimulationRunStore creates a new SimulationRunStore.
func NewSimulationRunStore(pool *Pool) *SimulationRunStore {
	return &SimulationRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SimulationRunStore = (*SimulationRunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *SimulationRunStore) Insert(ctx context.Context, run *domain.SimulationRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO simulation_runs (
			run_id, symbol, lookback_days, daily_contribution,
			effective_days, final_value, final_invested, ran_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		run.RunID,
		run.Symbol,
		run.LookbackDays,
		run.DailyContribution,
		run.EffectiveDays,
		run.FinalValue,
		run.FinalInvested,
		run.RanAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert simulation run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *SimulationRunStore) GetByID(ctx context.Context, runID string) (*domain.SimulationRun, error) {
	query := `
		SELECT run_id, symbol, lookback_days, daily_contribution,
		       effective_days, final_value, final_invested, ran_at
		FROM simulation_runs
		WHERE run_id = $1
	`

	var run domain.SimulationRun
	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&run.RunID,
		&run.Symbol,
		&run.LookbackDays,
		&run.DailyContribution,
		&run.EffectiveDays,
		&run.FinalValue,
		&run.FinalInvested,
		&run.RanAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get simulation run by id: %w", err)
	}

	return &run, nil
}

// GetBySymbol retrieves all runs for a symbol, ordered by ran_at ASC.
func (s *SimulationRunStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.SimulationRun, error) {
	query := `
		SELECT run_id, symbol, lookback_days, daily_contribution,
		       effective_days, final_value, final_invested, ran_at
		FROM simulation_runs
		WHERE symbol = $1
		ORDER BY ran_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get simulation runs by symbol: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// scanRuns scans multiple rows.
func scanRuns(rows pgx.Rows) ([]*domain.SimulationRun, error) {
	var result []*domain.SimulationRun

	for rows.Next() {
		var run domain.SimulationRun
		err := rows.Scan(
			&run.RunID,
			&run.Symbol,
			&run.LookbackDays,
			&run.DailyContribution,
			&run.EffectiveDays,
			&run.FinalValue,
			&run.FinalInvested,
			&run.RanAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan simulation run row: %w", err)
		}
		result = append(result, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulation run rows: %w", err)
	}

	return result, nil
}
