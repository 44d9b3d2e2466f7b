package scoring

import (
	"graduation-lab/internal/domain"
	"graduation-lab/internal/patterns"
)

// PriceScorer blends checkpoint increases, green runs, breakouts and efficiency
// into a 0-100 momentum score, labelled with the growth pattern.
type PriceScorer struct {
	cfg PriceConfig
}

// NewPriceScorer creates a price-only scorer.
func NewPriceScorer(cfg PriceConfig) *PriceScorer {
	return &PriceScorer{cfg: cfg}
}

// Variant returns the scorer name.
func (s *PriceScorer) Variant() string { return domain.VariantPrice }

// Score scores the price series.
func (s *PriceScorer) Score(in Input) domain.ScoreRecord {
	b := &recordBuilder{rec: newRecord(domain.VariantPrice, in.Token)}
	if len(in.PriceCandles) == 0 {
		return emptyRecord(b.rec, []string{domain.SubMomentum}, domain.PatternUnknown)
	}
	cfg := s.cfg
	f := patterns.Analyze(in.PriceCandles)
	b.metric(domain.MetricCandles, float64(f.Candles))
	b.priceMetrics(f)

	momentum := cfg.Increase10m.Apply(f.Increase(domain.Minute10)) +
		cfg.Increase30m.Apply(f.Increase(domain.Minute30)) +
		cfg.GreenRun.Apply(float64(f.MaxGreenRun)) +
		float64(len(f.Breakouts))*cfg.BreakoutPoints +
		cfg.Efficiency.Apply(f.Efficiency)
	momentum = clamp(momentum, 0, cfg.MaxScore)

	pattern := patterns.AnalysisRules.Classify(f)

	if f.TimeTo2x != nil {
		b.signal("doubled by minute %d", *f.TimeTo2x)
	}
	if f.TimeTo3x != nil {
		b.signal("tripled by minute %d", *f.TimeTo3x)
	}
	if n := len(f.Breakouts); n > 0 {
		b.signal("%d breakouts", n)
	}
	if f.MaxDrawdown > 50 {
		b.warn("max drawdown %.1f%%", f.MaxDrawdown)
	}

	b.rec.SubScores[domain.SubMomentum] = momentum
	b.rec.Total = momentum
	b.rec.Pattern = pattern
	b.rec.Label = pattern
	return b.rec
}
