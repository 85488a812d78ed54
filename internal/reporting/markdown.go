package reporting

import (
	"fmt"
	"strings"

	"dca-lab/internal/domain"
)

// RenderMarkdown renders a simulation result as a Markdown document with a
// summary block and the portfolio table.
func RenderMarkdown(result *domain.SimulationResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# DCA Simulation — %s\n\n", result.Symbol))
	sb.WriteString(fmt.Sprintf("Requested days: %d | Effective days: %d | Daily buys: %d\n\n",
		result.RequestedDays, result.EffectiveDays, len(result.Records)))

	if result.Insufficient() {
		sb.WriteString(fmt.Sprintf(
			"**Note:** only %d of the requested %d days were available; showing all available data.\n\n",
			result.EffectiveDays, result.RequestedDays))
	}

	if len(result.Records) == 0 {
		sb.WriteString("No data available to display.\n")
		return sb.String()
	}

	// Summary
	final := result.Records[len(result.Records)-1]
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Final Portfolio Value | %.2f |\n", final.PortfolioValue))
	sb.WriteString(fmt.Sprintf("| Total Invested | %.2f |\n", final.TotalInvested))
	sb.WriteString(fmt.Sprintf("| Units Held | %.8f |\n", final.CumulativeUnits))
	sb.WriteString(fmt.Sprintf("| P&L | %.2f |\n", final.PortfolioValue-final.TotalInvested))
	sb.WriteString("\n")

	// Portfolio table
	sb.WriteString("## Portfolio Table\n\n")
	sb.WriteString("| Day | Date | Price | Portfolio Value | Total Invested |\n")
	sb.WriteString("|-----|------|-------|-----------------|----------------|\n")
	for _, r := range result.Records {
		sb.WriteString(fmt.Sprintf("| %d | %s | %.2f | %.2f | %.2f |\n",
			r.DayIndex,
			r.Date.Format(domain.DateOnly),
			r.Price,
			r.PortfolioValue,
			r.TotalInvested,
		))
	}

	return sb.String()
}
