package domain

import (
	"context"
	"time"
)

// CandleSource supplies one-minute candles for a token, oldest first.
// count is the number of candles ending at to.
type CandleSource interface {
	Candles(ctx context.Context, tokenID string, chart ChartType, count int, to time.Time) ([]Candle, error)
}
