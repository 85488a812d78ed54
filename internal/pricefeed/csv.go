package pricefeed

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"dca-lab/internal/domain"
)

// ParseCSV reads an exported price history CSV and returns the daily series
// for symbol, sorted by date ASC. Header names are matched case-insensitively;
// only Date and Close are used. Rows with an empty or unparsable close are
// skipped, matching how exported exchange CSVs pad missing days.
func ParseCSV(r io.Reader, symbol string) ([]*domain.PriceObservation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	dateCol, closeCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			dateCol = i
		case "close":
			closeCol = i
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return nil, fmt.Errorf("csv header missing Date/Close columns: %v", header)
	}

	var series []*domain.PriceObservation
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		line++

		if dateCol >= len(record) || closeCol >= len(record) {
			continue
		}

		closeStr := strings.TrimSpace(record[closeCol])
		if closeStr == "" {
			continue // no close recorded for this day
		}
		price, err := strconv.ParseFloat(strings.ReplaceAll(closeStr, ",", ""), 64)
		if err != nil {
			continue
		}

		date, err := parseCSVDate(strings.TrimSpace(record[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		series = append(series, &domain.PriceObservation{
			Symbol: symbol,
			Date:   date,
			Price:  price,
		})
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	if err := domain.ValidateSeries(series); err != nil {
		return nil, fmt.Errorf("csv series: %w", err)
	}

	return series, nil
}

// csvDateLayouts are the date formats seen in exported price CSVs.
var csvDateLayouts = []string{
	domain.DateOnly,
	"01/02/2006",
	"2006-01-02 15:04:05",
}

func parseCSVDate(s string) (time.Time, error) {
	for _, layout := range csvDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return domain.NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}
