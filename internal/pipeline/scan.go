// Package pipeline runs batch scans: fetch candles, score, aggregate, persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/jupiter"
	"graduation-lab/internal/metrics"
	"graduation-lab/internal/observability"
	"graduation-lab/internal/scoring"
	"graduation-lab/internal/storage"
)

// Skip reasons.
const (
	SkipFetchError = "fetch_error"
	SkipDuplicate  = "duplicate"
)

// Options contains configuration for creating a Scanner.
type Options struct {
	Source     domain.CandleSource
	Scorers    []scoring.Scorer
	Aggregator *metrics.Aggregator

	// Optional persistence.
	CandleStore storage.CandleStore
	RecordStore storage.ScoreRecordStore

	Metrics *observability.Metrics
	Logger  *zerolog.Logger

	IncludeGraduated bool
	Limit            int                          // 0 scans every token
	CandleCount      func(minutesAgo float64) int // Default: jupiter.CandleCount
	Clock            func() time.Time
}

// Skip records a token left out of a batch.
type Skip struct {
	TokenID string
	Reason  string
	Err     string
}

// Coverage is the candle history obtained for one scored token.
type Coverage struct {
	TokenID       string
	PriceCandles  int
	VolumeCandles int
}

// Result is the outcome of one scan.
type Result struct {
	BatchID   string
	Started   time.Time
	Finished  time.Time
	Requested int // tokens selected for scanning
	Scored    int
	Skipped   []Skip
	Coverage  []Coverage
	Batches   []domain.Batch // one per scorer, in scorer order
	Quality   SufficiencyResult
}

// Batch returns the aggregated batch of a variant.
func (r *Result) Batch(variant string) (domain.Batch, bool) {
	for _, b := range r.Batches {
		if b.Variant == variant {
			return b, true
		}
	}
	return domain.Batch{}, false
}

// Scanner scores a list of token snapshots.
type Scanner struct {
	opts       Options
	needsPrice bool
	logger     zerolog.Logger
}

// NewScanner creates a scanner. Source, Scorers and Aggregator are required.
func NewScanner(opts Options) (*Scanner, error) {
	if opts.Source == nil {
		return nil, errors.New("scanner: nil candle source")
	}
	if len(opts.Scorers) == 0 {
		return nil, errors.New("scanner: no scorers")
	}
	if opts.Aggregator == nil {
		return nil, errors.New("scanner: nil aggregator")
	}
	if opts.CandleCount == nil {
		opts.CandleCount = jupiter.CandleCount
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	variants := make([]string, len(opts.Scorers))
	for i, s := range opts.Scorers {
		variants[i] = s.Variant()
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "scanner").Logger()
	}
	return &Scanner{
		opts:       opts,
		needsPrice: scoring.NeedsPrice(variants),
		logger:     logger,
	}, nil
}

// Run scans the snapshots sequentially. Per-token fetch failures are logged
// and skipped; the batch still completes. Persistence failures and context
// cancellation abort the run.
func (s *Scanner) Run(ctx context.Context, batchID string, snaps []domain.TokenSnapshot) (*Result, error) {
	res := &Result{
		BatchID: batchID,
		Started: s.opts.Clock().UTC(),
	}
	status := "error"
	defer func() {
		s.opts.Metrics.RecordBatch("scan", status, s.opts.Clock().Sub(res.Started))
	}()

	selected := s.selectTokens(snaps, res)
	res.Requested = len(selected)
	s.logger.Info().Str("batch_id", batchID).Int("tokens", len(selected)).Msg("scan started")

	records := make([][]domain.ScoreRecord, len(s.opts.Scorers))
	for i, tok := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		in, err := s.fetch(ctx, tok)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn().Err(err).Str("token", tok.ID).Str("symbol", tok.Symbol).Msg("skipping token")
			s.opts.Metrics.RecordSkipped(SkipFetchError)
			res.Skipped = append(res.Skipped, Skip{TokenID: tok.ID, Reason: SkipFetchError, Err: err.Error()})
			continue
		}
		res.Coverage = append(res.Coverage, Coverage{
			TokenID:       tok.ID,
			PriceCandles:  len(in.PriceCandles),
			VolumeCandles: len(in.VolumeCandles),
		})

		if err := s.persistCandles(ctx, tok.ID, in); err != nil {
			return nil, err
		}

		scoredAt := s.opts.Clock().UTC()
		for j, scorer := range s.opts.Scorers {
			rec := scorer.Score(in)
			rec.BatchID = batchID
			rec.ScoredAt = scoredAt
			records[j] = append(records[j], rec)
			s.opts.Metrics.RecordScore(rec.Variant, rec.Total)
		}
		res.Scored++

		s.logger.Debug().
			Int("n", i+1).
			Str("token", tok.ID).
			Int("price_candles", len(in.PriceCandles)).
			Int("volume_candles", len(in.VolumeCandles)).
			Msg("token scored")
	}

	for j, scorer := range s.opts.Scorers {
		variant := scorer.Variant()
		batch := s.opts.Aggregator.Aggregate(variant, records[j])
		batch.ID = batchID
		res.Batches = append(res.Batches, batch)
		s.opts.Metrics.SetImminent(variant, len(batch.Imminent))

		if s.opts.RecordStore != nil && len(records[j]) > 0 {
			start := time.Now()
			err := s.opts.RecordStore.InsertBulk(ctx, records[j])
			s.opts.Metrics.RecordDBQuery("score_records", "insert", time.Since(start), err)
			if err != nil {
				return nil, fmt.Errorf("persist %s records: %w", variant, err)
			}
		}
	}

	res.Finished = s.opts.Clock().UTC()
	res.Quality = CheckSufficiency(res, DefaultSufficiencyThresholds())
	status = "success"

	s.logger.Info().
		Str("batch_id", batchID).
		Int("scored", res.Scored).
		Int("skipped", len(res.Skipped)).
		Bool("sufficient", res.Quality.AllPass).
		Msg("scan finished")
	return res, nil
}

// selectTokens drops graduated tokens (unless included) and repeated ids,
// then applies the limit.
func (s *Scanner) selectTokens(snaps []domain.TokenSnapshot, res *Result) []domain.TokenSnapshot {
	seen := make(map[string]struct{}, len(snaps))
	out := make([]domain.TokenSnapshot, 0, len(snaps))
	for _, tok := range snaps {
		if tok.IsGraduated && !s.opts.IncludeGraduated {
			continue
		}
		if _, dup := seen[tok.ID]; dup {
			s.opts.Metrics.RecordSkipped(SkipDuplicate)
			res.Skipped = append(res.Skipped, Skip{TokenID: tok.ID, Reason: SkipDuplicate})
			continue
		}
		seen[tok.ID] = struct{}{}
		out = append(out, tok)
		if s.opts.Limit > 0 && len(out) == s.opts.Limit {
			break
		}
	}
	return out
}

// fetch loads the market-cap chart and, when a scorer reads it, the price chart.
func (s *Scanner) fetch(ctx context.Context, tok domain.TokenSnapshot) (scoring.Input, error) {
	in := scoring.Input{Token: tok}
	count := s.opts.CandleCount(tok.AgeMinutes())
	to := tok.FetchedAt
	if to.IsZero() {
		to = s.opts.Clock()
	}

	var err error
	in.VolumeCandles, err = s.opts.Source.Candles(ctx, tok.ID, domain.ChartMarketCap, count, to)
	if err != nil {
		return in, err
	}
	if s.needsPrice {
		in.PriceCandles, err = s.opts.Source.Candles(ctx, tok.ID, domain.ChartPrice, count, to)
		if err != nil {
			return in, err
		}
	}
	return in, nil
}

// persistCandles stores the candles not already present for the token.
func (s *Scanner) persistCandles(ctx context.Context, tokenID string, in scoring.Input) error {
	if s.opts.CandleStore == nil {
		return nil
	}
	for _, series := range []domain.CandleSeries{
		{TokenID: tokenID, Chart: domain.ChartMarketCap, Candles: in.VolumeCandles},
		{TokenID: tokenID, Chart: domain.ChartPrice, Candles: in.PriceCandles},
	} {
		fresh, err := s.newCandles(ctx, series)
		if err != nil {
			return err
		}
		if len(fresh.Candles) == 0 {
			continue
		}
		start := time.Now()
		err = s.opts.CandleStore.InsertSeries(ctx, fresh)
		s.opts.Metrics.RecordDBQuery("candles", "insert", time.Since(start), err)
		if err != nil {
			return fmt.Errorf("persist %s candles for %s: %w", series.Chart, tokenID, err)
		}
	}
	return nil
}

func (s *Scanner) newCandles(ctx context.Context, series domain.CandleSeries) (domain.CandleSeries, error) {
	if len(series.Candles) == 0 {
		return series, nil
	}
	first := series.Candles[0].Time
	last := series.Candles[len(series.Candles)-1].Time
	existing, err := s.opts.CandleStore.GetByTimeRange(ctx, series.TokenID, series.Chart, first, last)
	if err != nil {
		return series, fmt.Errorf("load stored %s candles for %s: %w", series.Chart, series.TokenID, err)
	}
	if len(existing) == 0 {
		return series, nil
	}

	stored := make(map[int64]struct{}, len(existing))
	for _, c := range existing {
		stored[c.Time] = struct{}{}
	}
	fresh := series
	fresh.Candles = nil
	for _, c := range series.Candles {
		if _, ok := stored[c.Time]; !ok {
			fresh.Candles = append(fresh.Candles, c)
		}
	}
	return fresh, nil
}
