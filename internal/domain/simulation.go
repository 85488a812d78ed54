package domain

import (
	"errors"
	"fmt"
	"time"
)

// MaxLookbackDays caps the lookback window. Mirrors the UI bound.
const MaxLookbackDays = 365

// DefaultDailyContribution is the UI default contribution amount.
const DefaultDailyContribution = 100

// ErrInvalidParameter is returned when simulation parameters fail validation.
var ErrInvalidParameter = errors.New("invalid simulation parameter")

// SimulationParameters are the caller-supplied inputs for a DCA run.
// LookbackDays counts price rows, not calendar days: gaps in the series
// are neither back-filled nor penalized.
type SimulationParameters struct {
	LookbackDays      int     // trailing rows to select, 1..MaxLookbackDays
	DailyContribution float64 // fiat invested once per selected row, > 0
}

// Validate checks parameter bounds. All violations wrap ErrInvalidParameter.
func (p SimulationParameters) Validate() error {
	if p.LookbackDays < 1 {
		return fmt.Errorf("%w: lookback days %d, must be >= 1", ErrInvalidParameter, p.LookbackDays)
	}
	if p.LookbackDays > MaxLookbackDays {
		return fmt.Errorf("%w: lookback days %d, must be <= %d", ErrInvalidParameter, p.LookbackDays, MaxLookbackDays)
	}
	if p.DailyContribution <= 0 {
		return fmt.Errorf("%w: daily contribution %v, must be > 0", ErrInvalidParameter, p.DailyContribution)
	}
	return nil
}

// DayRecord is one simulated day of the DCA schedule.
type DayRecord struct {
	DayIndex        int       // 1-based position within the selected window
	Date            time.Time // copied from the matching observation
	Price           float64   // close price on this day
	UnitsBought     float64   // DailyContribution / Price
	CumulativeUnits float64   // running sum of units bought
	PortfolioValue  float64   // CumulativeUnits * Price
	TotalInvested   float64   // DayIndex * DailyContribution
}

// SimulationResult is the full output of a DCA run.
// EffectiveDays < RequestedDays signals insufficient history; the records
// are still a complete, valid result for the reduced window.
type SimulationResult struct {
	Symbol        string
	RequestedDays int
	EffectiveDays int
	Records       []*DayRecord
}

// Insufficient reports whether fewer rows were available than requested.
func (r *SimulationResult) Insufficient() bool {
	return r.EffectiveDays < r.RequestedDays
}

// FinalValue returns the portfolio value on the last simulated day.
// Zero for an empty result.
func (r *SimulationResult) FinalValue() float64 {
	if len(r.Records) == 0 {
		return 0
	}
	return r.Records[len(r.Records)-1].PortfolioValue
}

// FinalInvested returns the total invested over the whole window.
func (r *SimulationResult) FinalInvested() float64 {
	if len(r.Records) == 0 {
		return 0
	}
	return r.Records[len(r.Records)-1].TotalInvested
}

// SimulationRun is the audit record persisted per simulation call.
type SimulationRun struct {
	RunID             string
	Symbol            string
	LookbackDays      int
	DailyContribution float64
	EffectiveDays     int
	FinalValue        float64
	FinalInvested     float64
	RanAt             time.Time
}
