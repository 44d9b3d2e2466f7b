package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]domain.Candle // series key -> candle time -> candle
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[string]map[int64]domain.Candle),
	}
}

// seriesKey generates a unique key for a token chart.
func seriesKey(tokenID string, chart domain.ChartType) string {
	return fmt.Sprintf("%s|%s", tokenID, chart)
}

// InsertSeries adds a token's candles. Fails entire batch on duplicate.
func (s *CandleStore) InsertSeries(_ context.Context, series domain.CandleSeries) error {
	if series.TokenID == "" || !series.Chart.IsValid() {
		return storage.ErrInvalidInput
	}
	if len(series.Candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := seriesKey(series.TokenID, series.Chart)
	existing := s.data[key]

	// First pass: check for duplicates (existing + intra-batch)
	batchTimes := make(map[int64]struct{}, len(series.Candles))
	for _, c := range series.Candles {
		if _, exists := existing[c.Time]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchTimes[c.Time]; exists {
			return storage.ErrDuplicateKey
		}
		batchTimes[c.Time] = struct{}{}
	}

	// Second pass: insert all
	if existing == nil {
		existing = make(map[int64]domain.Candle, len(series.Candles))
		s.data[key] = existing
	}
	for _, c := range series.Candles {
		existing[c.Time] = c
	}
	return nil
}

// GetSeries retrieves all candles for a token and chart, ordered by time ASC.
func (s *CandleStore) GetSeries(_ context.Context, tokenID string, chart domain.ChartType) ([]domain.Candle, error) {
	return s.collect(tokenID, chart, func(int64) bool { return true }), nil
}

// GetByTimeRange retrieves candles within [start, end] (inclusive).
func (s *CandleStore) GetByTimeRange(_ context.Context, tokenID string, chart domain.ChartType, start, end int64) ([]domain.Candle, error) {
	return s.collect(tokenID, chart, func(ts int64) bool { return ts >= start && ts <= end }), nil
}

func (s *CandleStore) collect(tokenID string, chart domain.ChartType, keep func(int64) bool) []domain.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.Candle{}
	for ts, c := range s.data[seriesKey(tokenID, chart)] {
		if keep(ts) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Time < result[j].Time
	})
	return result
}

var _ storage.CandleStore = (*CandleStore)(nil)
