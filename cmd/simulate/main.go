// Package main runs a one-shot DCA simulation against a JSON price fixture
// or a PostgreSQL price store and prints the result as Markdown or CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"dca-lab/internal/domain"
	"dca-lab/internal/pricefeed"
	"dca-lab/internal/reporting"
	"dca-lab/internal/simulation"
	pgstore "dca-lab/internal/storage/postgres"
)

func main() {
	priceFile := flag.String("price-file", "", "JSON price fixture (e.g. btc_prices.json)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (alternative to --price-file)")
	symbol := flag.String("symbol", "BTC", "Asset symbol")
	days := flag.Int("days", 120, "Number of days to go back (1-365, counted in price rows)")
	amount := flag.Float64("amount", domain.DefaultDailyContribution, "Daily investment amount")
	format := flag.String("format", "markdown", "Output format: markdown or csv")
	flag.Parse()

	ctx := context.Background()

	if *priceFile == "" && *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --price-file or --postgres-dsn is required")
		os.Exit(1)
	}

	var source pricefeed.Source
	if *priceFile != "" {
		source = pricefeed.NewFileSource(*priceFile, *symbol)
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
			os.Exit(1)
		}
		defer pool.Close()
		source = pricefeed.NewStoreSource(pgstore.NewPriceSeriesStore(pool))
	}

	// One-shot run, no persistence
	runner := simulation.NewRunner(simulation.RunnerOptions{Source: source})

	params := domain.SimulationParameters{
		LookbackDays:      *days,
		DailyContribution: *amount,
	}

	result, err := runner.Run(ctx, *symbol, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Simulation error: %v\n", err)
		os.Exit(1)
	}

	if result.Insufficient() {
		fmt.Fprintf(os.Stderr, "Warning: only %d days of data are available, but you requested %d days. Showing all available data.\n",
			result.EffectiveDays, result.RequestedDays)
	}

	switch *format {
	case "markdown":
		fmt.Print(reporting.RenderMarkdown(result))
	case "csv":
		fmt.Print(reporting.RenderCSV(result))
	default:
		fmt.Fprintf(os.Stderr, "Unknown format %q (want markdown or csv)\n", *format)
		os.Exit(1)
	}
}
