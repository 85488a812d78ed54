package domain

import (
	"fmt"
	"time"
)

// PriceObservation represents a single daily close for an asset.
// One row per trading/calendar day the provider had data for;
// dates are distinct and strictly increasing within a series.
type PriceObservation struct {
	Symbol string    // asset symbol, e.g. "BTC"
	Date   time.Time // calendar day, normalized to UTC midnight
	Price  float64   // close price, fiat per asset unit, strictly positive
}

// DateOnly is the wire format for observation dates.
const DateOnly = "2006-01-02"

// NormalizeDate truncates a timestamp to UTC midnight.
func NormalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidateSeries checks that a series is sorted ascending by date with no
// duplicate dates and no non-positive prices. Providers call this before
// handing a series to consumers.
func ValidateSeries(series []*PriceObservation) error {
	for i, obs := range series {
		if obs == nil {
			return fmt.Errorf("series[%d]: nil observation", i)
		}
		if obs.Price <= 0 {
			return fmt.Errorf("series[%d] (%s): non-positive price %v", i, obs.Date.Format(DateOnly), obs.Price)
		}
		if i > 0 && !series[i-1].Date.Before(obs.Date) {
			return fmt.Errorf("series[%d] (%s): dates not strictly increasing", i, obs.Date.Format(DateOnly))
		}
	}
	return nil
}
