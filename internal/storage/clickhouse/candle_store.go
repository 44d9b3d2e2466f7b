package clickhouse

import (
	"context"
	"fmt"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse.
// MergeTree does not enforce uniqueness, so duplicates are checked before insert.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertSeries adds a token's candles. Fails entire batch on duplicate (token_id, chart, time).
func (s *CandleStore) InsertSeries(ctx context.Context, series domain.CandleSeries) error {
	if series.TokenID == "" || !series.Chart.IsValid() {
		return storage.ErrInvalidInput
	}
	if len(series.Candles) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{}, len(series.Candles))
	minTime, maxTime := series.Candles[0].Time, series.Candles[0].Time
	for _, c := range series.Candles {
		if _, exists := seen[c.Time]; exists {
			return storage.ErrDuplicateKey
		}
		seen[c.Time] = struct{}{}
		minTime = min(minTime, c.Time)
		maxTime = max(maxTime, c.Time)
	}

	// Check for duplicates against existing rows in one range query
	existing, err := s.GetByTimeRange(ctx, series.TokenID, series.Chart, minTime, maxTime)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for _, c := range existing {
		if _, dup := seen[c.Time]; dup {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			token_id, chart, time, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range series.Candles {
		err = batch.Append(
			series.TokenID, string(series.Chart), c.Time,
			c.Open, c.High, c.Low, c.Close, c.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetSeries retrieves all candles for a token and chart, ordered by time ASC.
func (s *CandleStore) GetSeries(ctx context.Context, tokenID string, chart domain.ChartType) ([]domain.Candle, error) {
	query := `
		SELECT time, open, high, low, close, volume
		FROM candles
		WHERE token_id = ? AND chart = ?
		ORDER BY time ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenID, string(chart))
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// GetByTimeRange retrieves candles within [start, end] (inclusive).
func (s *CandleStore) GetByTimeRange(ctx context.Context, tokenID string, chart domain.ChartType, start, end int64) ([]domain.Candle, error) {
	query := `
		SELECT time, open, high, low, close, volume
		FROM candles
		WHERE token_id = ? AND chart = ? AND time >= ? AND time <= ?
		ORDER BY time ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenID, string(chart), start, end)
	if err != nil {
		return nil, fmt.Errorf("query candles by time range: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// scanCandles scans multiple rows.
func scanCandles(rs rows) ([]domain.Candle, error) {
	candles := []domain.Candle{}

	for rs.Next() {
		var c domain.Candle
		if err := rs.Scan(&c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}
		candles = append(candles, c)
	}

	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}

	return candles, nil
}
