// Package main provides the unified DCA service:
// - Ingestion (continuous): daily close polling, optional live spot ticker
// - HTTP API: simulate endpoint, stored history, health/status/metrics
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dca-lab/internal/ingestion"
	"dca-lab/internal/pricefeed"
	"dca-lab/internal/server"
	"dca-lab/internal/simulation"
	"dca-lab/internal/storage"
	chstore "dca-lab/internal/storage/clickhouse"
	"dca-lab/internal/storage/memory"
	"dca-lab/internal/storage/migrations"
	pgstore "dca-lab/internal/storage/postgres"
)

// stores holds all storage implementations.
type stores struct {
	priceSeries storage.PriceSeriesStore
	runs        storage.SimulationRunStore
	curves      storage.CurveStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	feedEndpoint := flag.String("feed-endpoint", os.Getenv("FEED_ENDPOINT"), "Market data REST endpoint for daily closes")
	tickerEndpoint := flag.String("ticker-endpoint", os.Getenv("TICKER_ENDPOINT"), "WebSocket endpoint for live spot prices (optional)")
	priceFile := flag.String("price-file", os.Getenv("PRICE_FILE"), "JSON price fixture to backfill on startup (optional)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	symbols := flag.String("symbols", envOr("SYMBOLS", "BTC"), "Comma-separated asset symbols to track")
	pollInterval := flag.Duration("poll-interval", 1*time.Hour, "Daily close poll interval")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *feedEndpoint == "" && *priceFile == "" {
		logger.Fatal("--feed-endpoint or --price-file is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	symbolList := splitSymbols(*symbols)
	if len(symbolList) == 0 {
		logger.Fatal("No symbols specified")
	}
	logger.Printf("Tracking symbols: %v", symbolList)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	st, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Backfill from fixture file before serving
	if *priceFile != "" {
		for _, symbol := range symbolList {
			fileSource := pricefeed.NewFileSource(*priceFile, symbol)
			if _, err := ingestion.Backfill(ctx, fileSource, st.priceSeries, symbol, logger); err != nil {
				logger.Fatalf("Backfill %s from %s: %v", symbol, *priceFile, err)
			}
		}
	}

	// Wire the simulation runner against the cached store path
	runner := simulation.NewRunner(simulation.RunnerOptions{
		Source:     pricefeed.NewStoreSource(st.priceSeries),
		RunStore:   st.runs,
		CurveStore: st.curves,
	})

	errCh := make(chan error, 3)

	// Continuous ingestion from the REST feed
	if *feedEndpoint != "" {
		ingestRunner := ingestion.NewRunner(ingestion.RunnerOptions{
			Source:   pricefeed.NewHTTPSource(*feedEndpoint),
			Store:    st.priceSeries,
			Symbols:  symbolList,
			Interval: *pollInterval,
			Logger:   log.New(os.Stdout, "[ingestion] ", log.LstdFlags|log.Lshortfile),
		})
		go func() {
			if err := ingestRunner.Run(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("ingestion: %w", err)
			}
		}()
	}

	// Live spot ticker
	var ticker *ingestion.LiveTicker
	if *tickerEndpoint != "" {
		ticker = ingestion.NewLiveTicker(*tickerEndpoint, symbolList, nil,
			log.New(os.Stdout, "[ticker] ", log.LstdFlags|log.Lshortfile))
		go func() {
			if err := ticker.Run(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("ticker: %w", err)
			}
		}()
	}

	// HTTP server
	srv := server.New(server.Options{
		Runner:  runner,
		Store:   st.priceSeries,
		Ticker:  ticker,
		Symbols: symbolList,
		Logger:  logger,
	})
	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: srv.Handler(),
	}
	go func() {
		logger.Printf("Starting HTTP server on %s", *listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, shutting down...", sig)
	case err := <-errCh:
		logger.Printf("Component error: %v, shutting down...", err)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores and runs migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*stores, func(), error) {
	if useMemory {
		st := &stores{
			priceSeries: memory.NewPriceSeriesStore(),
			runs:        memory.NewSimulationRunStore(),
			curves:      memory.NewCurveStore(),
		}
		return st, func() {}, nil
	}

	// PostgreSQL (source data + simulation runs)
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse (analytics curves)
	chConn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
		chConn.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	st := &stores{
		priceSeries: pgstore.NewPriceSeriesStore(pool),
		runs:        pgstore.NewSimulationRunStore(pool),
		curves:      chstore.NewCurveStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return st, cleanup, nil
}

// splitSymbols parses the comma-separated symbol list.
func splitSymbols(s string) []string {
	var list []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToUpper(part))
		if part != "" {
			list = append(list, part)
		}
	}
	return list
}

// envOr returns the env var value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
