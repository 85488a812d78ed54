package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"dca-lab/internal/domain"
)

// fileRow is the fixture JSON row format: an array of {"Date","Close"}
// objects as produced by the CSV converter.
type fileRow struct {
	Date  string  `json:"Date"`
	Close float64 `json:"Close"`
}

// FileSource reads a daily close series from a JSON fixture file.
// Rows may be unordered in the file; the source sorts by date and rejects
// duplicate dates and non-positive closes.
type FileSource struct {
	path   string
	symbol string
}

// NewFileSource creates a file-backed source. symbol labels every
// observation read from the file.
func NewFileSource(path, symbol string) *FileSource {
	return &FileSource{path: path, symbol: symbol}
}

var _ Source = (*FileSource)(nil)

// GetRecentSeries reads the file and returns the trailing limit observations
// for the configured symbol. Other symbols yield an empty series.
func (s *FileSource) GetRecentSeries(_ context.Context, symbol string, limit int) ([]*domain.PriceObservation, error) {
	if symbol != s.symbol {
		return nil, nil
	}

	series, err := s.load()
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(series) > limit {
		series = series[len(series)-limit:]
	}
	return series, nil
}

// load parses and validates the whole fixture file.
func (s *FileSource) load() ([]*domain.PriceObservation, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read price file: %w", err)
	}

	var rows []fileRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse price file %s: %w", s.path, err)
	}

	series := make([]*domain.PriceObservation, 0, len(rows))
	for i, row := range rows {
		date, err := time.ParseInLocation(domain.DateOnly, row.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse date %q: %w", i, row.Date, err)
		}
		series = append(series, &domain.PriceObservation{
			Symbol: s.symbol,
			Date:   date,
			Price:  row.Close,
		})
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	if err := domain.ValidateSeries(series); err != nil {
		return nil, fmt.Errorf("price file %s: %w", s.path, err)
	}

	return series, nil
}

// WriteFile writes a series to the fixture JSON format, one object per day.
func WriteFile(path string, series []*domain.PriceObservation) error {
	rows := make([]fileRow, 0, len(series))
	for _, obs := range series {
		rows = append(rows, fileRow{
			Date:  obs.Date.Format(domain.DateOnly),
			Close: obs.Price,
		})
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal price rows: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write price file: %w", err)
	}
	return nil
}
