package storage

import (
	"context"
	"time"

	"graduation-lab/internal/domain"
)

// CandleSource replays stored candles as if they came from the market-data API.
type CandleSource struct {
	store CandleStore
}

// NewCandleSource wraps a candle store.
func NewCandleSource(store CandleStore) *CandleSource {
	return &CandleSource{store: store}
}

// Candles returns up to count stored candles ending at or before to.
// A zero to replays the whole series.
func (s *CandleSource) Candles(ctx context.Context, tokenID string, chart domain.ChartType, count int, to time.Time) ([]domain.Candle, error) {
	var (
		candles []domain.Candle
		err     error
	)
	if to.IsZero() {
		candles, err = s.store.GetSeries(ctx, tokenID, chart)
	} else {
		candles, err = s.store.GetByTimeRange(ctx, tokenID, chart, 0, to.Unix())
	}
	if err != nil {
		return nil, err
	}
	if count > 0 && len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	return candles, nil
}

var _ domain.CandleSource = (*CandleSource)(nil)
