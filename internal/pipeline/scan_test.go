package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/metrics"
	"graduation-lab/internal/scoring"
	"graduation-lab/internal/storage/memory"
)

var scanTime = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type fetchCall struct {
	TokenID string
	Chart   domain.ChartType
	Count   int
	To      time.Time
}

// fakeSource serves fixed series per token and records every request.
type fakeSource struct {
	mu     sync.Mutex
	series map[string][]domain.Candle
	errs   map[string]error
	calls  []fetchCall
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		series: make(map[string][]domain.Candle),
		errs:   make(map[string]error),
	}
}

func (f *fakeSource) Candles(_ context.Context, tokenID string, chart domain.ChartType, count int, to time.Time) ([]domain.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{TokenID: tokenID, Chart: chart, Count: count, To: to})
	if err := f.errs[tokenID]; err != nil {
		return nil, err
	}
	out := make([]domain.Candle, len(f.series[tokenID]))
	copy(out, f.series[tokenID])
	return out, nil
}

func (f *fakeSource) charts() map[domain.ChartType]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[domain.ChartType]int)
	for _, c := range f.calls {
		out[c.Chart]++
	}
	return out
}

func flatSeries(n int, vol float64) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		out[i] = domain.Candle{Time: int64(i * 60), Open: 1, High: 1, Low: 1, Close: 1, Volume: vol}
	}
	return out
}

func snapshot(id string, graduated bool) domain.TokenSnapshot {
	return domain.TokenSnapshot{
		ID:          id,
		Symbol:      "T" + id,
		HolderCount: 60,
		MinutesAgo:  30,
		FetchedAt:   scanTime.Add(-time.Minute),
		IsGraduated: graduated,
	}
}

func newTestScanner(t *testing.T, src *fakeSource, variants []string, mutate func(*Options)) *Scanner {
	t.Helper()
	scorers, err := scoring.NewSet(variants, scoring.DefaultConfig())
	require.NoError(t, err)
	opts := Options{
		Source:     src,
		Scorers:    scorers,
		Aggregator: metrics.NewAggregator(metrics.DefaultOptions(), nil),
		Clock:      func() time.Time { return scanTime },
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := NewScanner(opts)
	require.NoError(t, err)
	return s
}

func TestNewScanner_RequiresDependencies(t *testing.T) {
	scorers, err := scoring.NewSet([]string{domain.VariantV1}, scoring.DefaultConfig())
	require.NoError(t, err)
	agg := metrics.NewAggregator(metrics.DefaultOptions(), nil)

	_, err = NewScanner(Options{Scorers: scorers, Aggregator: agg})
	assert.Error(t, err, "nil source")
	_, err = NewScanner(Options{Source: newFakeSource(), Aggregator: agg})
	assert.Error(t, err, "no scorers")
	_, err = NewScanner(Options{Source: newFakeSource(), Scorers: scorers})
	assert.Error(t, err, "nil aggregator")
}

func TestScanner_Run_ScoresEveryToken(t *testing.T) {
	src := newFakeSource()
	src.series["a"] = flatSeries(30, 20_000)
	src.series["b"] = flatSeries(30, 20_000)

	s := newTestScanner(t, src, []string{domain.VariantV1}, nil)
	res, err := s.Run(context.Background(), "batch-1", []domain.TokenSnapshot{snapshot("a", false), snapshot("b", false)})
	require.NoError(t, err)

	assert.Equal(t, "batch-1", res.BatchID)
	assert.Equal(t, 2, res.Requested)
	assert.Equal(t, 2, res.Scored)
	assert.Empty(t, res.Skipped)
	require.Len(t, res.Batches, 1)

	batch, ok := res.Batch(domain.VariantV1)
	require.True(t, ok)
	assert.Equal(t, "batch-1", batch.ID)
	require.Len(t, batch.Sorted, 2)

	expected := scoring.NewV1Scorer(domain.VariantV1, scoring.DefaultConfig().V1).Score(scoring.Input{
		Token:         snapshot("a", false),
		VolumeCandles: flatSeries(30, 20_000),
	})
	for _, rec := range batch.Sorted {
		assert.Equal(t, "batch-1", rec.BatchID)
		assert.Equal(t, scanTime, rec.ScoredAt)
		assert.Equal(t, expected.Total, rec.Total)
		assert.Equal(t, expected.Label, rec.Label)
	}

	_, ok = res.Batch(domain.VariantV2)
	assert.False(t, ok)
}

func TestScanner_Run_FetchesPriceOnlyWhenNeeded(t *testing.T) {
	tests := []struct {
		name      string
		variants  []string
		wantPrice int
	}{
		{"volume only", []string{domain.VariantV1, domain.VariantV1Legacy}, 0},
		{"combined", []string{domain.VariantV2}, 1},
		{"price", []string{domain.VariantPrice, domain.VariantV1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			src.series["a"] = flatSeries(20, 1_000)

			s := newTestScanner(t, src, tt.variants, nil)
			res, err := s.Run(context.Background(), "b", []domain.TokenSnapshot{snapshot("a", false)})
			require.NoError(t, err)

			charts := src.charts()
			assert.Equal(t, 1, charts[domain.ChartMarketCap])
			assert.Equal(t, tt.wantPrice, charts[domain.ChartPrice])
			assert.Len(t, res.Batches, len(tt.variants))
		})
	}
}

func TestScanner_Run_RequestsHistoryForTokenAge(t *testing.T) {
	src := newFakeSource()
	src.series["a"] = flatSeries(5, 1_000)

	s := newTestScanner(t, src, []string{domain.VariantV1}, nil)
	tok := snapshot("a", false)
	tok.MinutesAgo = 12.7
	tok.FetchedAt = time.Time{}

	_, err := s.Run(context.Background(), "b", []domain.TokenSnapshot{tok})
	require.NoError(t, err)

	require.Len(t, src.calls, 1)
	assert.Equal(t, 72, src.calls[0].Count)
	assert.Equal(t, scanTime, src.calls[0].To, "zero fetch time falls back to the clock")
}

func TestScanner_Run_SkipsFailedFetches(t *testing.T) {
	src := newFakeSource()
	src.series["a"] = flatSeries(30, 20_000)
	src.errs["b"] = errors.New("upstream 502")
	src.series["c"] = flatSeries(30, 20_000)

	s := newTestScanner(t, src, []string{domain.VariantV1}, nil)
	res, err := s.Run(context.Background(), "b1", []domain.TokenSnapshot{
		snapshot("a", false), snapshot("b", false), snapshot("c", false),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Requested)
	assert.Equal(t, 2, res.Scored)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, Skip{TokenID: "b", Reason: SkipFetchError, Err: "upstream 502"}, res.Skipped[0])

	batch, _ := res.Batch(domain.VariantV1)
	assert.Len(t, batch.Sorted, 2)
}

func TestScanner_Run_AbortsOnCancel(t *testing.T) {
	src := newFakeSource()
	src.series["a"] = flatSeries(5, 1_000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestScanner(t, src, []string{domain.VariantV1}, nil)
	_, err := s.Run(ctx, "b", []domain.TokenSnapshot{snapshot("a", false)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, src.calls)
}

func TestScanner_Run_SelectsTokens(t *testing.T) {
	snaps := []domain.TokenSnapshot{
		snapshot("a", false),
		snapshot("g", true),
		snapshot("a", false),
		snapshot("b", false),
		snapshot("c", false),
	}

	t.Run("excludes graduated and duplicates", func(t *testing.T) {
		s := newTestScanner(t, newFakeSource(), []string{domain.VariantV1}, nil)
		res, err := s.Run(context.Background(), "b", snaps)
		require.NoError(t, err)

		assert.Equal(t, 3, res.Requested)
		require.Len(t, res.Skipped, 1)
		assert.Equal(t, SkipDuplicate, res.Skipped[0].Reason)
		assert.Equal(t, "a", res.Skipped[0].TokenID)
	})

	t.Run("includes graduated", func(t *testing.T) {
		s := newTestScanner(t, newFakeSource(), []string{domain.VariantV1}, func(o *Options) {
			o.IncludeGraduated = true
		})
		res, err := s.Run(context.Background(), "b", snaps)
		require.NoError(t, err)
		assert.Equal(t, 4, res.Requested)
	})

	t.Run("limit", func(t *testing.T) {
		src := newFakeSource()
		s := newTestScanner(t, src, []string{domain.VariantV1}, func(o *Options) {
			o.Limit = 2
		})
		res, err := s.Run(context.Background(), "b", snaps)
		require.NoError(t, err)

		assert.Equal(t, 2, res.Requested)
		ids := make([]string, 0, len(src.calls))
		for _, c := range src.calls {
			ids = append(ids, c.TokenID)
		}
		assert.Equal(t, []string{"a", "b"}, ids)
	})
}

func TestScanner_Run_PersistsRecordsAndCandles(t *testing.T) {
	src := newFakeSource()
	src.series["a"] = flatSeries(30, 20_000)
	candles := memory.NewCandleStore()
	records := memory.NewScoreRecordStore()

	s := newTestScanner(t, src, []string{domain.VariantV1, domain.VariantV2}, func(o *Options) {
		o.CandleStore = candles
		o.RecordStore = records
	})
	ctx := context.Background()
	_, err := s.Run(ctx, "batch-1", []domain.TokenSnapshot{snapshot("a", false)})
	require.NoError(t, err)

	for _, variant := range []string{domain.VariantV1, domain.VariantV2} {
		stored, err := records.GetByBatch(ctx, "batch-1", variant)
		require.NoError(t, err)
		require.Len(t, stored, 1, variant)
		assert.Equal(t, "a", stored[0].TokenID)
	}

	for _, chart := range []domain.ChartType{domain.ChartMarketCap, domain.ChartPrice} {
		stored, err := candles.GetSeries(ctx, "a", chart)
		require.NoError(t, err)
		assert.Len(t, stored, 30, chart.String())
	}

	// The next scan overlaps the stored history by 30 minutes.
	src.series["a"] = append(flatSeries(30, 20_000), flatSeries(40, 20_000)[30:]...)
	_, err = s.Run(ctx, "batch-2", []domain.TokenSnapshot{snapshot("a", false)})
	require.NoError(t, err, "overlapping candles are not inserted twice")

	stored, err := candles.GetSeries(ctx, "a", domain.ChartMarketCap)
	require.NoError(t, err)
	assert.Len(t, stored, 40)

	byToken, err := records.GetByToken(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, byToken, 4)
}

func TestScanner_Run_EmptyBatch(t *testing.T) {
	s := newTestScanner(t, newFakeSource(), []string{domain.VariantV2}, func(o *Options) {
		o.RecordStore = memory.NewScoreRecordStore()
	})
	res, err := s.Run(context.Background(), "b", nil)
	require.NoError(t, err)

	assert.Zero(t, res.Scored)
	require.Len(t, res.Batches, 1)
	assert.Empty(t, res.Batches[0].Sorted)
	assert.False(t, res.Quality.AllPass)
}

func TestScanner_Run_RanksAcrossTokens(t *testing.T) {
	src := newFakeSource()
	snaps := make([]domain.TokenSnapshot, 0, 6)
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("tok%d", i)
		src.series[id] = flatSeries(30, float64(1_000*(i+1)*(i+1)))
		snaps = append(snaps, snapshot(id, false))
	}

	s := newTestScanner(t, src, []string{domain.VariantV1}, nil)
	res, err := s.Run(context.Background(), "b", snaps)
	require.NoError(t, err)

	batch, _ := res.Batch(domain.VariantV1)
	require.Len(t, batch.Sorted, 6)
	for i := 1; i < len(batch.Sorted); i++ {
		assert.GreaterOrEqual(t, batch.Sorted[i-1].Total, batch.Sorted[i].Total)
	}
	assert.True(t, res.Quality.AllPass, "%+v", res.Quality.Checks)
}
