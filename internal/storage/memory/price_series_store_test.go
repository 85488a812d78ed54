package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"dca-lab/internal/domain"
	"dca-lab/internal/storage"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func obs(symbol string, date time.Time, price float64) *domain.PriceObservation {
	return &domain.PriceObservation{Symbol: symbol, Date: date, Price: price}
}

func TestPriceSeriesStore_InsertAndGetRecent(t *testing.T) {
	ctx := context.Background()
	store := NewPriceSeriesStore()

	err := store.InsertBulk(ctx, []*domain.PriceObservation{
		obs("BTC", day(3), 120),
		obs("BTC", day(1), 100),
		obs("BTC", day(2), 110),
		obs("ETH", day(1), 10),
	})
	if err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	all, err := store.GetRecent(ctx, "BTC", 0)
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 BTC rows, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if !all[i-1].Date.Before(all[i].Date) {
			t.Errorf("rows not sorted ASC at %d", i)
		}
	}

	tail, err := store.GetRecent(ctx, "BTC", 2)
	if err != nil {
		t.Fatalf("GetRecent limited: %v", err)
	}
	if len(tail) != 2 || !tail[0].Date.Equal(day(2)) {
		t.Errorf("expected trailing 2 rows starting Jan 2, got %+v", tail)
	}

	none, err := store.GetRecent(ctx, "DOGE", 0)
	if err != nil {
		t.Fatalf("GetRecent unknown: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected empty series for unknown symbol")
	}
}

func TestPriceSeriesStore_DuplicateDetection(t *testing.T) {
	ctx := context.Background()
	store := NewPriceSeriesStore()

	if err := store.InsertBulk(ctx, []*domain.PriceObservation{obs("BTC", day(1), 100)}); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	// Existing duplicate fails the whole batch, including the fresh row.
	err := store.InsertBulk(ctx, []*domain.PriceObservation{
		obs("BTC", day(2), 110),
		obs("BTC", day(1), 105),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	series, _ := store.GetRecent(ctx, "BTC", 0)
	if len(series) != 1 {
		t.Errorf("failed batch must not be partially applied, got %d rows", len(series))
	}

	// Intra-batch duplicate is also rejected.
	err = store.InsertBulk(ctx, []*domain.PriceObservation{
		obs("BTC", day(5), 100),
		obs("BTC", day(5), 101),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}

	// Same date for a different symbol is fine.
	if err := store.InsertBulk(ctx, []*domain.PriceObservation{obs("ETH", day(1), 10)}); err != nil {
		t.Errorf("different symbol same date rejected: %v", err)
	}
}

func TestPriceSeriesStore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	store := NewPriceSeriesStore()

	if err := store.InsertBulk(ctx, []*domain.PriceObservation{nil}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil observation: expected ErrInvalidInput, got %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.PriceObservation{obs("", day(1), 100)}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty symbol: expected ErrInvalidInput, got %v", err)
	}
	if err := store.InsertBulk(ctx, nil); err != nil {
		t.Errorf("empty batch must be a no-op, got %v", err)
	}
}

func TestPriceSeriesStore_GetByDateRange(t *testing.T) {
	ctx := context.Background()
	store := NewPriceSeriesStore()

	if err := store.InsertBulk(ctx, []*domain.PriceObservation{
		obs("BTC", day(1), 100),
		obs("BTC", day(2), 110),
		obs("BTC", day(3), 120),
		obs("BTC", day(4), 130),
	}); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	got, err := store.GetByDateRange(ctx, "BTC", day(2), day(3))
	if err != nil {
		t.Fatalf("GetByDateRange: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows in range, got %d", len(got))
	}
	if !got[0].Date.Equal(day(2)) || !got[1].Date.Equal(day(3)) {
		t.Errorf("range bounds must be inclusive: %+v", got)
	}
}

func TestPriceSeriesStore_LatestDate(t *testing.T) {
	ctx := context.Background()
	store := NewPriceSeriesStore()

	if _, err := store.LatestDate(ctx, "BTC"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("empty store: expected ErrNotFound, got %v", err)
	}

	if err := store.InsertBulk(ctx, []*domain.PriceObservation{
		obs("BTC", day(1), 100),
		obs("BTC", day(7), 110),
		obs("BTC", day(3), 120),
	}); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	latest, err := store.LatestDate(ctx, "BTC")
	if err != nil {
		t.Fatalf("LatestDate: %v", err)
	}
	if !latest.Equal(day(7)) {
		t.Errorf("latest = %v, want Jan 7", latest)
	}
}

func TestPriceSeriesStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewPriceSeriesStore()

	if err := store.InsertBulk(ctx, []*domain.PriceObservation{obs("BTC", day(1), 100)}); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	got, _ := store.GetRecent(ctx, "BTC", 0)
	got[0].Price = 999

	again, _ := store.GetRecent(ctx, "BTC", 0)
	if again[0].Price != 100 {
		t.Errorf("store mutated through returned value: %v", again[0].Price)
	}
}
