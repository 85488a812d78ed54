package clickhouse

import (
	"context"
	"fmt"
	"time"

	"dca-lab/internal/domain"
	"dca-lab/internal/observability"
	"dca-lab/internal/storage"
)

// CurveStore implements storage.CurveStore using ClickHouse.
// Each row is one simulated day of a run's portfolio curve.
type CurveStore struct {
	conn *Conn
}

// NewCurveStore creates a new CurveStore.
func NewCurveStore(conn *Conn) *CurveStore {
	return &CurveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CurveStore = (*CurveStore)(nil)

// InsertCurve stores the full day-by-day curve for a run.
func (s *CurveStore) InsertCurve(ctx context.Context, runID string, records []*domain.DayRecord) (err error) {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(records) == 0 {
		return nil
	}
	defer func(start time.Time) {
		observability.RecordDBQuery("clickhouse", "insert_curve", time.Since(start).Seconds(), err)
	}(time.Now())

	// ClickHouse MergeTree doesn't enforce uniqueness; check before insert.
	exists, err := s.exists(ctx, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO simulation_curves (
			run_id, day_index, date, price, units_bought,
			cumulative_units, portfolio_value, total_invested
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		err = batch.Append(
			runID, uint32(r.DayIndex), r.Date, r.Price,
			r.UnitsBought, r.CumulativeUnits, r.PortfolioValue, r.TotalInvested,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetCurve retrieves the curve for a run, ordered by day index ASC.
func (s *CurveStore) GetCurve(ctx context.Context, runID string) (records []*domain.DayRecord, err error) {
	defer func(start time.Time) {
		observability.RecordDBQuery("clickhouse", "get_curve", time.Since(start).Seconds(), err)
	}(time.Now())

	query := `
		SELECT day_index, date, price, units_bought,
		       cumulative_units, portfolio_value, total_invested
		FROM simulation_curves
		WHERE run_id = ?
		ORDER BY day_index ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query curve: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.DayRecord
		var dayIndex uint32
		var date time.Time

		err := rows.Scan(
			&dayIndex, &date, &r.Price, &r.UnitsBought,
			&r.CumulativeUnits, &r.PortfolioValue, &r.TotalInvested,
		)
		if err != nil {
			return nil, fmt.Errorf("scan curve row: %w", err)
		}

		r.DayIndex = int(dayIndex)
		r.Date = domain.NormalizeDate(date)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate curve rows: %w", err)
	}

	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}

	return records, nil
}

// exists checks if a curve with the given run ID exists.
func (s *CurveStore) exists(ctx context.Context, runID string) (bool, error) {
	query := `
		SELECT count(*) FROM simulation_curves
		WHERE run_id = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
