// Package simulation implements the DCA schedule engine: given an ordered
// daily price series and (lookback days, daily contribution), it selects the
// trailing rows and derives per-day holdings value vs. invested capital.
package simulation

import (
	"fmt"
	"time"

	"dca-lab/internal/domain"
)

// InvalidPriceError reports a selected observation with a non-positive price.
// The simulation aborts rather than emitting a division artifact.
type InvalidPriceError struct {
	Date  time.Time
	Price float64
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price %v on %s", e.Price, e.Date.Format(domain.DateOnly))
}

// Simulate runs the DCA schedule over the trailing min(LookbackDays, len(series))
// rows of series, in chronological order. The series is assumed sorted ascending
// by date with distinct dates; that contract belongs to the provider.
//
// Pure function: no I/O, no shared state, deterministic for identical inputs.
// An empty series is not an error; it yields an empty result with
// EffectiveDays 0, which the caller surfaces as insufficient history.
func Simulate(series []*domain.PriceObservation, params domain.SimulationParameters) (*domain.SimulationResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// Row-count window selection: the last w rows regardless of calendar gaps.
	w := params.LookbackDays
	if len(series) < w {
		w = len(series)
	}
	window := series[len(series)-w:]

	// Fail fast on bad prices before producing any records.
	for _, obs := range window {
		if obs.Price <= 0 {
			return nil, &InvalidPriceError{Date: obs.Date, Price: obs.Price}
		}
	}

	result := &domain.SimulationResult{
		RequestedDays: params.LookbackDays,
		EffectiveDays: w,
		Records:       make([]*domain.DayRecord, 0, w),
	}
	if w > 0 {
		result.Symbol = window[0].Symbol
	}

	cumulativeUnits := 0.0
	for i, obs := range window {
		unitsBought := params.DailyContribution / obs.Price
		cumulativeUnits += unitsBought

		result.Records = append(result.Records, &domain.DayRecord{
			DayIndex:        i + 1,
			Date:            obs.Date,
			Price:           obs.Price,
			UnitsBought:     unitsBought,
			CumulativeUnits: cumulativeUnits,
			PortfolioValue:  cumulativeUnits * obs.Price,
			TotalInvested:   float64(i+1) * params.DailyContribution,
		})
	}

	return result, nil
}
