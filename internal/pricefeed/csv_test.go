package pricefeed

import (
	"strings"
	"testing"

	"dca-lab/internal/domain"
)

func TestParseCSV(t *testing.T) {
	input := strings.Join([]string{
		"Date,Open,High,Low,Close,Volume",
		"2024-01-02,101,112,99,110,2000",
		"2024-01-01,100,105,95,100,1000",
		"2024-01-03,110,125,108,\"1,205.50\",3000",
	}, "\n")

	series, err := ParseCSV(strings.NewReader(input), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(series))
	}
	if got := series[0].Date.Format(domain.DateOnly); got != "2024-01-01" {
		t.Errorf("rows must be sorted, first date %s", got)
	}
	if series[2].Price != 1205.50 {
		t.Errorf("thousands separator not stripped: %v", series[2].Price)
	}
	for i, obs := range series {
		if obs.Symbol != "BTC" {
			t.Errorf("row %d: symbol %q", i, obs.Symbol)
		}
	}
}

func TestParseCSV_HeaderCaseInsensitive(t *testing.T) {
	input := "date,close\n2024-01-01,100\n"
	series, err := ParseCSV(strings.NewReader(input), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 1 {
		t.Errorf("expected 1 row, got %d", len(series))
	}
}

func TestParseCSV_SkipsRowsWithoutClose(t *testing.T) {
	input := strings.Join([]string{
		"Date,Close",
		"2024-01-01,100",
		"2024-01-02,",    // holiday padding
		"2024-01-03,n/a", // unparsable close
		"2024-01-04,104",
	}, "\n")

	series, err := ParseCSV(strings.NewReader(input), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(series))
	}
	if got := series[1].Date.Format(domain.DateOnly); got != "2024-01-04" {
		t.Errorf("wrong second row: %s", got)
	}
}

func TestParseCSV_AlternateDateLayouts(t *testing.T) {
	input := strings.Join([]string{
		"Date,Close",
		"01/15/2024,100",
		"2024-01-16 00:00:00,110",
	}, "\n")

	series, err := ParseCSV(strings.NewReader(input), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(series))
	}
	if got := series[0].Date.Format(domain.DateOnly); got != "2024-01-15" {
		t.Errorf("US layout parsed wrong: %s", got)
	}
	if got := series[1].Date.Format(domain.DateOnly); got != "2024-01-16" {
		t.Errorf("timestamp layout parsed wrong: %s", got)
	}
}

func TestParseCSV_Errors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"missing columns", "Timestamp,Price\n2024-01-01,100\n"},
		{"bad date", "Date,Close\nyesterday,100\n"},
		{"duplicate date", "Date,Close\n2024-01-01,100\n2024-01-01,110\n"},
		{"negative close", "Date,Close\n2024-01-01,-5\n"},
		{"empty input", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseCSV(strings.NewReader(tc.input), "BTC"); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
