package ingestion

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"dca-lab/internal/domain"
	"dca-lab/internal/pricefeed"
	"dca-lab/internal/storage/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func obs(symbol string, date time.Time, price float64) *domain.PriceObservation {
	return &domain.PriceObservation{Symbol: symbol, Date: date, Price: price}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestSyncSymbol_StoresOnlyCompletedDays(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPriceSeriesStore()

	now := day(2024, time.June, 10).Add(15 * time.Hour)
	source := pricefeed.NewStaticSource([]*domain.PriceObservation{
		obs("BTC", day(2024, time.June, 8), 100),
		obs("BTC", day(2024, time.June, 9), 110),
		obs("BTC", day(2024, time.June, 10), 120), // today, provisional
	})

	runner := NewRunner(RunnerOptions{
		Source:  source,
		Store:   store,
		Symbols: []string{"BTC"},
		Logger:  quietLogger(),
		Now:     func() time.Time { return now },
	})

	stored, err := runner.SyncSymbol(ctx, "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != 2 {
		t.Errorf("expected 2 stored rows, got %d", stored)
	}

	latest, err := store.LatestDate(ctx, "BTC")
	if err != nil {
		t.Fatalf("LatestDate: %v", err)
	}
	if !latest.Equal(day(2024, time.June, 9)) {
		t.Errorf("current day must not be stored, latest = %v", latest)
	}
}

func TestSyncSymbol_AppendsOnlyNewDates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPriceSeriesStore()

	if err := store.InsertBulk(ctx, []*domain.PriceObservation{
		obs("BTC", day(2024, time.June, 8), 100),
	}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	source := pricefeed.NewStaticSource([]*domain.PriceObservation{
		obs("BTC", day(2024, time.June, 7), 90), // older than stored, skipped
		obs("BTC", day(2024, time.June, 8), 100),
		obs("BTC", day(2024, time.June, 9), 110),
	})

	runner := NewRunner(RunnerOptions{
		Source:  source,
		Store:   store,
		Symbols: []string{"BTC"},
		Logger:  quietLogger(),
		Now:     func() time.Time { return day(2024, time.June, 11) },
	})

	stored, err := runner.SyncSymbol(ctx, "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != 1 {
		t.Errorf("expected 1 new row, got %d", stored)
	}

	series, err := store.GetRecent(ctx, "BTC", 0)
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if len(series) != 2 {
		t.Errorf("expected 2 rows total, got %d", len(series))
	}
}

func TestSyncSymbol_NothingNew(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPriceSeriesStore()

	seed := obs("BTC", day(2024, time.June, 9), 110)
	if err := store.InsertBulk(ctx, []*domain.PriceObservation{seed}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	runner := NewRunner(RunnerOptions{
		Source:  pricefeed.NewStaticSource([]*domain.PriceObservation{seed}),
		Store:   store,
		Symbols: []string{"BTC"},
		Logger:  quietLogger(),
		Now:     func() time.Time { return day(2024, time.June, 10) },
	})

	stored, err := runner.SyncSymbol(ctx, "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != 0 {
		t.Errorf("expected no new rows, got %d", stored)
	}
}

func TestSyncSymbol_SourceError(t *testing.T) {
	runner := NewRunner(RunnerOptions{
		Source:  failingSource{},
		Store:   memory.NewPriceSeriesStore(),
		Symbols: []string{"BTC"},
		Logger:  quietLogger(),
	})

	if _, err := runner.SyncSymbol(context.Background(), "BTC"); !errors.Is(err, errFeedDown) {
		t.Fatalf("expected feed error, got %v", err)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	runner := NewRunner(RunnerOptions{
		Source:   pricefeed.NewStaticSource(nil),
		Store:    memory.NewPriceSeriesStore(),
		Symbols:  []string{"BTC"},
		Interval: time.Millisecond,
		Logger:   quietLogger(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := runner.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

var errFeedDown = errors.New("feed down")

type failingSource struct{}

func (failingSource) GetRecentSeries(context.Context, string, int) ([]*domain.PriceObservation, error) {
	return nil, errFeedDown
}
