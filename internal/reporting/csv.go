// Package reporting renders simulation results for the presentation layer:
// CSV and Markdown for the tabular view, ChartData for the two-series chart.
package reporting

import (
	"fmt"
	"strings"

	"dca-lab/internal/domain"
)

// RenderCSV renders a simulation result as CSV string.
func RenderCSV(result *domain.SimulationResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("day,date,price,units_bought,cumulative_units,portfolio_value,total_invested\n")

	// Rows
	for _, r := range result.Records {
		sb.WriteString(fmt.Sprintf("%d,%s,%.2f,%.8f,%.8f,%.2f,%.2f\n",
			r.DayIndex,
			r.Date.Format(domain.DateOnly),
			r.Price,
			r.UnitsBought,
			r.CumulativeUnits,
			r.PortfolioValue,
			r.TotalInvested,
		))
	}

	return sb.String()
}
