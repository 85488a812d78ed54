package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dca-lab/internal/domain"
	"dca-lab/internal/observability"
	"dca-lab/internal/storage"
)

// PriceSeriesStore implements storage.PriceSeriesStore using PostgreSQL.
type PriceSeriesStore struct {
	pool *Pool
}

// NewPriceSeriesStore creates a new PriceSeriesStore.
func NewPriceSeriesStore(pool *Pool) *PriceSeriesStore {
	return &PriceSeriesStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceSeriesStore = (*PriceSeriesStore)(nil)

// InsertBulk adds multiple observations atomically. Fails entire batch on any
// duplicate (symbol, date).
func (s *PriceSeriesStore) InsertBulk(ctx context.Context, obs []*domain.PriceObservation) (err error) {
	if len(obs) == 0 {
		return nil
	}
	defer func(start time.Time) {
		observability.RecordDBQuery("postgres", "insert_observations", time.Since(start).Seconds(), err)
	}(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO price_observations (symbol, date, price)
		VALUES ($1, $2, $3)
	`

	for _, o := range obs {
		if o == nil || o.Symbol == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query, o.Symbol, domain.NormalizeDate(o.Date), o.Price)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert observation in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetRecent retrieves the trailing limit observations for a symbol, ordered by
// date ASC. limit <= 0 returns the full series.
func (s *PriceSeriesStore) GetRecent(ctx context.Context, symbol string, limit int) (result []*domain.PriceObservation, err error) {
	defer func(start time.Time) {
		observability.RecordDBQuery("postgres", "get_recent_observations", time.Since(start).Seconds(), err)
	}(time.Now())

	// Select the tail in DESC order, then flip; keeps the LIMIT on the
	// database side for long histories. NULL limit means the full series.
	query := `
		SELECT symbol, date, price FROM (
			SELECT symbol, date, price
			FROM price_observations
			WHERE symbol = $1
			ORDER BY date DESC
			LIMIT NULLIF($2::bigint, -1)
		) tail
		ORDER BY date ASC
	`

	dbLimit := int64(limit)
	if dbLimit <= 0 {
		dbLimit = -1
	}

	rows, err := s.pool.Query(ctx, query, symbol, dbLimit)
	if err != nil {
		return nil, fmt.Errorf("get recent observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// GetByDateRange retrieves observations for a symbol within [start, end] (inclusive).
func (s *PriceSeriesStore) GetByDateRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PriceObservation, error) {
	query := `
		SELECT symbol, date, price
		FROM price_observations
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, domain.NormalizeDate(start), domain.NormalizeDate(end))
	if err != nil {
		return nil, fmt.Errorf("get observations by date range: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// LatestDate returns the most recent observation date for a symbol.
func (s *PriceSeriesStore) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	query := `
		SELECT date
		FROM price_observations
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT 1
	`

	var date time.Time
	err := s.pool.QueryRow(ctx, query, symbol).Scan(&date)
	if err != nil {
		if isNotFoundError(err) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("get latest date: %w", err)
	}

	return domain.NormalizeDate(date), nil
}

// scanObservations scans multiple rows.
func scanObservations(rows pgx.Rows) ([]*domain.PriceObservation, error) {
	var result []*domain.PriceObservation

	for rows.Next() {
		var o domain.PriceObservation
		if err := rows.Scan(&o.Symbol, &o.Date, &o.Price); err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}
		o.Date = domain.NormalizeDate(o.Date)
		result = append(result, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observation rows: %w", err)
	}

	return result, nil
}
