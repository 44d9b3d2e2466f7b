package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/metrics"
	"graduation-lab/internal/observability"
	"graduation-lab/internal/scoring"
	"graduation-lab/internal/storage"
)

// CalibrationCandles is the history fetched per graduated token.
const CalibrationCandles = 720

// ErrNoGraduated is returned when a calibration run has no graduated token to learn from.
var ErrNoGraduated = errors.New("no graduated tokens to calibrate from")

// CalibrationOptions configures a calibration run.
type CalibrationOptions struct {
	Source      domain.CandleSource
	Base        scoring.Config
	Aggregator  *metrics.Aggregator
	CandleStore storage.CandleStore
	RecordStore storage.ScoreRecordStore
	Metrics     *observability.Metrics
	Logger      *zerolog.Logger
	Limit       int
}

// CalibrationResult holds the scan over graduated tokens and the fitted config.
type CalibrationResult struct {
	Scan   *Result
	Config scoring.Config
}

// Calibrate scores graduated tokens over a long history with the combined and
// price scorers, then fits the combined and predictor thresholds to the batch.
func Calibrate(ctx context.Context, batchID string, snaps []domain.TokenSnapshot, opts CalibrationOptions) (*CalibrationResult, error) {
	graduated := make([]domain.TokenSnapshot, 0, len(snaps))
	for _, s := range snaps {
		if s.IsGraduated {
			graduated = append(graduated, s)
		}
	}
	if len(graduated) == 0 {
		return nil, ErrNoGraduated
	}

	scorers, err := scoring.NewSet([]string{domain.VariantV2, domain.VariantPrice}, opts.Base)
	if err != nil {
		return nil, err
	}
	scanner, err := NewScanner(Options{
		Source:           opts.Source,
		Scorers:          scorers,
		Aggregator:       opts.Aggregator,
		CandleStore:      opts.CandleStore,
		RecordStore:      opts.RecordStore,
		Metrics:          opts.Metrics,
		Logger:           opts.Logger,
		IncludeGraduated: true,
		Limit:            opts.Limit,
		CandleCount:      func(float64) int { return CalibrationCandles },
	})
	if err != nil {
		return nil, err
	}

	res, err := scanner.Run(ctx, batchID, graduated)
	if err != nil {
		return nil, fmt.Errorf("calibration scan: %w", err)
	}

	combined, _ := res.Batch(domain.VariantV2)
	if combined.Stats.Count == 0 {
		return nil, ErrNoGraduated
	}
	return &CalibrationResult{
		Scan:   res,
		Config: scoring.Calibrate(opts.Base, combined.Stats, combined.Thresholds),
	}, nil
}
