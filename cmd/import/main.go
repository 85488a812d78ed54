// Package main converts an exported price history CSV into the JSON fixture
// format and/or loads it directly into the PostgreSQL price store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"dca-lab/internal/ingestion"
	"dca-lab/internal/pricefeed"
	"dca-lab/internal/storage/migrations"
	pgstore "dca-lab/internal/storage/postgres"
)

func main() {
	csvPath := flag.String("csv", "", "Input CSV with Date and Close columns")
	jsonOut := flag.String("json-out", "", "Output JSON fixture path (optional)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string to load into (optional)")
	symbol := flag.String("symbol", "BTC", "Asset symbol for the imported series")
	flag.Parse()

	logger := log.New(os.Stdout, "[import] ", log.LstdFlags)

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --csv is required")
		os.Exit(1)
	}
	if *jsonOut == "" && *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --json-out or --postgres-dsn is required")
		os.Exit(1)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		logger.Fatalf("Open CSV: %v", err)
	}
	defer f.Close()

	series, err := pricefeed.ParseCSV(f, *symbol)
	if err != nil {
		logger.Fatalf("Parse CSV: %v", err)
	}
	logger.Printf("Parsed %d observations for %s", len(series), *symbol)

	if *jsonOut != "" {
		if err := pricefeed.WriteFile(*jsonOut, series); err != nil {
			logger.Fatalf("Write JSON fixture: %v", err)
		}
		logger.Printf("Wrote %s", *jsonOut)
	}

	if *postgresDSN != "" {
		ctx := context.Background()

		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("Postgres migrations: %v", err)
		}

		store := pgstore.NewPriceSeriesStore(pool)
		result, err := ingestion.Backfill(ctx, pricefeed.NewStaticSource(series), store, *symbol, logger)
		if err != nil {
			logger.Fatalf("Load into postgres: %v", err)
		}
		logger.Printf("Loaded %d new observations (%d already present)", result.Stored, result.Skipped)
	}
}
