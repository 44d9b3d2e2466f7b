// Package scoring turns candle series and token snapshots into score records.
//
// Every scorer is a pure function of its input and its own config: no clock,
// no randomness, no shared state. Calling Score twice on the same input
// yields identical records.
package scoring

import (
	"fmt"

	"graduation-lab/internal/domain"
)

// Input is everything a scorer reads for one token.
type Input struct {
	Token         domain.TokenSnapshot
	PriceCandles  []domain.Candle // price chart, oldest first
	VolumeCandles []domain.Candle // market-cap chart, used as the volume proxy
}

// Scorer maps one token's input to a score record.
type Scorer interface {
	Variant() string
	Score(in Input) domain.ScoreRecord
}

// Variants lists the known variants in display order.
var Variants = []string{
	domain.VariantV1,
	domain.VariantV1Legacy,
	domain.VariantPrice,
	domain.VariantV2,
	domain.VariantPredictor,
}

// New builds the scorer for a variant.
func New(variant string, cfg Config) (Scorer, error) {
	switch variant {
	case domain.VariantV1:
		return NewV1Scorer(domain.VariantV1, cfg.V1), nil
	case domain.VariantV1Legacy:
		return NewV1Scorer(domain.VariantV1Legacy, cfg.V1Legacy), nil
	case domain.VariantPrice:
		return NewPriceScorer(cfg.Price), nil
	case domain.VariantV2:
		return NewV2Scorer(cfg.V2), nil
	case domain.VariantPredictor:
		return NewPredictor(cfg.Predictor), nil
	default:
		return nil, fmt.Errorf("unknown scorer variant %q", variant)
	}
}

// NewSet builds scorers for several variants.
func NewSet(variants []string, cfg Config) ([]Scorer, error) {
	out := make([]Scorer, 0, len(variants))
	for _, v := range variants {
		s, err := New(v, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// NeedsPrice reports whether any of the variants reads the price chart.
func NeedsPrice(variants []string) bool {
	for _, v := range variants {
		if v == domain.VariantPrice || v == domain.VariantV2 {
			return true
		}
	}
	return false
}

const noCandlesWarning = "no candle data"

func newRecord(variant string, tok domain.TokenSnapshot) domain.ScoreRecord {
	return domain.ScoreRecord{
		TokenID:   tok.ID,
		Symbol:    tok.Symbol,
		Name:      tok.Name,
		Variant:   variant,
		SubScores: make(map[string]float64),
		Metrics: map[string]float64{
			domain.MetricAgeMinutes: tok.AgeMinutes(),
		},
		Signals:  []string{},
		Warnings: []string{},
	}
}

// emptyRecord is the all-zero record for a token without candles.
func emptyRecord(rec domain.ScoreRecord, subScores []string, label string) domain.ScoreRecord {
	for _, name := range subScores {
		rec.SubScores[name] = 0
	}
	rec.Total = 0
	rec.Label = label
	rec.Warnings = append(rec.Warnings, noCandlesWarning)
	return rec
}

type recordBuilder struct {
	rec domain.ScoreRecord
}

func (r *recordBuilder) signal(format string, args ...any) {
	r.rec.Signals = append(r.rec.Signals, fmt.Sprintf(format, args...))
}

func (r *recordBuilder) warn(format string, args ...any) {
	r.rec.Warnings = append(r.rec.Warnings, fmt.Sprintf(format, args...))
}

func (r *recordBuilder) metric(name string, v float64) {
	r.rec.Metrics[name] = v
}

// note appends the label tier's note as a signal or warning.
func (r *recordBuilder) note(t LabelTier) {
	if t.Note == "" {
		return
	}
	if t.Warn {
		r.warn("%s", t.Note)
		return
	}
	r.signal("%s", t.Note)
}

func kilo(v float64) string {
	return fmt.Sprintf("%.0fK", v/1000)
}
