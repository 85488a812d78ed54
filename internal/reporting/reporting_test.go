package reporting

import (
	"strings"
	"testing"
	"time"

	"dca-lab/internal/domain"
)

func sampleResult() *domain.SimulationResult {
	d := func(day int) time.Time {
		return time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC)
	}
	return &domain.SimulationResult{
		Symbol:        "BTC",
		RequestedDays: 5,
		EffectiveDays: 2,
		Records: []*domain.DayRecord{
			{DayIndex: 1, Date: d(1), Price: 100, UnitsBought: 1, CumulativeUnits: 1, PortfolioValue: 100, TotalInvested: 100},
			{DayIndex: 2, Date: d(2), Price: 200, UnitsBought: 0.5, CumulativeUnits: 1.5, PortfolioValue: 300, TotalInvested: 200},
		},
	}
}

func TestRenderCSV(t *testing.T) {
	out := RenderCSV(sampleResult())

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "day,date,price,units_bought,cumulative_units,portfolio_value,total_invested" {
		t.Errorf("header wrong: %s", lines[0])
	}
	if lines[1] != "1,2024-01-01,100.00,1.00000000,1.00000000,100.00,100.00" {
		t.Errorf("row 1 wrong: %s", lines[1])
	}
	if lines[2] != "2,2024-01-02,200.00,0.50000000,1.50000000,300.00,200.00" {
		t.Errorf("row 2 wrong: %s", lines[2])
	}
}

func TestRenderCSV_EmptyResult(t *testing.T) {
	out := RenderCSV(&domain.SimulationResult{Symbol: "BTC", RequestedDays: 10})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1 {
		t.Errorf("expected header only, got %d lines", len(lines))
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown(sampleResult())

	for _, want := range []string{
		"# DCA Simulation — BTC",
		"only 2 of the requested 5 days were available",
		"| Final Portfolio Value | 300.00 |",
		"| Total Invested | 200.00 |",
		"| Units Held | 1.50000000 |",
		"| P&L | 100.00 |",
		"| 1 | 2024-01-01 | 100.00 | 100.00 | 100.00 |",
		"| 2 | 2024-01-02 | 200.00 | 300.00 | 200.00 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}
}

func TestRenderMarkdown_FullWindowHasNoNote(t *testing.T) {
	result := sampleResult()
	result.RequestedDays = 2

	out := RenderMarkdown(result)
	if strings.Contains(out, "**Note:**") {
		t.Error("full window must not carry the insufficiency note")
	}
}

func TestRenderMarkdown_EmptyResult(t *testing.T) {
	out := RenderMarkdown(&domain.SimulationResult{Symbol: "BTC", RequestedDays: 10})
	if !strings.Contains(out, "No data available to display.") {
		t.Errorf("empty result message missing:\n%s", out)
	}
}

func TestChartData(t *testing.T) {
	chart := ChartData(sampleResult())

	if len(chart.Days) != 2 || len(chart.PortfolioValue) != 2 || len(chart.TotalInvested) != 2 {
		t.Fatalf("slices must be parallel: %+v", chart)
	}
	if chart.Days[0] != 1 || chart.Days[1] != 2 {
		t.Errorf("days wrong: %v", chart.Days)
	}
	if chart.PortfolioValue[1] != 300 || chart.TotalInvested[1] != 200 {
		t.Errorf("series wrong: %+v", chart)
	}
}

func TestChartData_Empty(t *testing.T) {
	chart := ChartData(&domain.SimulationResult{})
	if len(chart.Days) != 0 {
		t.Errorf("expected empty chart, got %+v", chart)
	}
}
