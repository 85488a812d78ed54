package reporting

import "dca-lab/internal/domain"

// Chart holds the two-series line chart payload, indexed by day.
// Slices are parallel: Days[i] pairs with PortfolioValue[i] and TotalInvested[i].
type Chart struct {
	Days           []int     `json:"days"`
	PortfolioValue []float64 `json:"portfolio_value"`
	TotalInvested  []float64 `json:"total_invested"`
}

// ChartData extracts the chart payload from a simulation result.
func ChartData(result *domain.SimulationResult) *Chart {
	n := len(result.Records)
	chart := &Chart{
		Days:           make([]int, 0, n),
		PortfolioValue: make([]float64, 0, n),
		TotalInvested:  make([]float64, 0, n),
	}
	for _, r := range result.Records {
		chart.Days = append(chart.Days, r.DayIndex)
		chart.PortfolioValue = append(chart.PortfolioValue, r.PortfolioValue)
		chart.TotalInvested = append(chart.TotalInvested, r.TotalInvested)
	}
	return chart
}
