package storage_test

import (
	"context"
	"testing"
	"time"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/storage"
	"graduation-lab/internal/storage/memory"
)

func TestCandleSource_ReplaysStoredCandles(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCandleStore()

	s := domain.CandleSeries{TokenID: "t1", Chart: domain.ChartMarketCap}
	for i := int64(1); i <= 5; i++ {
		s.Candles = append(s.Candles, domain.Candle{Time: i * 60, Close: float64(i), Volume: 10})
	}
	if err := store.InsertSeries(ctx, s); err != nil {
		t.Fatalf("InsertSeries failed: %v", err)
	}

	src := storage.NewCandleSource(store)

	all, err := src.Candles(ctx, "t1", domain.ChartMarketCap, 0, time.Time{})
	if err != nil {
		t.Fatalf("Candles failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("Expected 5 candles, got %d", len(all))
	}

	last, err := src.Candles(ctx, "t1", domain.ChartMarketCap, 2, time.Unix(240, 0))
	if err != nil {
		t.Fatalf("Candles failed: %v", err)
	}
	if len(last) != 2 || last[0].Time != 180 || last[1].Time != 240 {
		t.Errorf("unexpected candles: %+v", last)
	}
}
