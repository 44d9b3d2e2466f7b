package storage

import (
	"context"

	"graduation-lab/internal/domain"
)

// CandleStore provides access to candles storage.
type CandleStore interface {
	// InsertSeries adds a token's candles for one chart.
	// Fails entire batch on duplicate (token_id, chart, time).
	InsertSeries(ctx context.Context, s domain.CandleSeries) error

	// GetSeries retrieves all candles for a token and chart, ordered by time ASC.
	GetSeries(ctx context.Context, tokenID string, chart domain.ChartType) ([]domain.Candle, error)

	// GetByTimeRange retrieves candles within [start, end] (inclusive, unix seconds).
	GetByTimeRange(ctx context.Context, tokenID string, chart domain.ChartType, start, end int64) ([]domain.Candle, error)
}

// TokenSnapshotStore provides access to token_snapshots storage.
type TokenSnapshotStore interface {
	// InsertBulk adds snapshots atomically. Fails entire batch on duplicate (batch_id, id).
	InsertBulk(ctx context.Context, snapshots []domain.TokenSnapshot) error

	// GetByBatch retrieves the snapshots of one fetch batch, newest token first.
	GetByBatch(ctx context.Context, batchID string) ([]domain.TokenSnapshot, error)

	// GetLatest retrieves the most recent snapshot of a token. Returns ErrNotFound if none.
	GetLatest(ctx context.Context, tokenID string) (domain.TokenSnapshot, error)
}

// ScoreRecordStore provides access to score_records storage.
type ScoreRecordStore interface {
	// InsertBulk adds records atomically. Fails entire batch on duplicate (batch_id, variant, token_id).
	InsertBulk(ctx context.Context, records []domain.ScoreRecord) error

	// GetByBatch retrieves one variant's records of a batch in insertion order.
	GetByBatch(ctx context.Context, batchID, variant string) ([]domain.ScoreRecord, error)

	// GetByToken retrieves every record of a token, oldest first.
	GetByToken(ctx context.Context, tokenID string) ([]domain.ScoreRecord, error)
}
