package scoring

import (
	"math"

	"graduation-lab/internal/checkpoint"
	"graduation-lab/internal/domain"
	"graduation-lab/internal/patterns"
)

var v2SubScores = []string{domain.SubVolume, domain.SubPrice, domain.SubTime, domain.SubMomentum}

// V2Scorer blends volume, price, time and momentum sub-scores (each 0-100)
// into a rounded weighted total with a time-to-graduation estimate.
type V2Scorer struct {
	cfg V2Config
}

// NewV2Scorer creates a combined scorer.
func NewV2Scorer(cfg V2Config) *V2Scorer {
	return &V2Scorer{cfg: cfg}
}

// Variant returns the scorer name.
func (s *V2Scorer) Variant() string { return domain.VariantV2 }

// Score scores a token from both charts. Either chart stands in for the
// other when one is missing.
func (s *V2Scorer) Score(in Input) domain.ScoreRecord {
	b := &recordBuilder{rec: newRecord(domain.VariantV2, in.Token)}
	volumeSeries, priceSeries := in.VolumeCandles, in.PriceCandles
	if len(volumeSeries) == 0 && len(priceSeries) == 0 {
		return emptyRecord(b.rec, v2SubScores, s.cfg.Labels.Lowest())
	}
	if len(volumeSeries) == 0 {
		volumeSeries = priceSeries
	}
	if len(priceSeries) == 0 {
		priceSeries = volumeSeries
	}
	age := in.Token.AgeMinutes()

	profile := patterns.Profile(volumeSeries, s.cfg.GraduationVolume)
	features := patterns.Analyze(priceSeries)
	b.metric(domain.MetricCandles, float64(len(volumeSeries)))
	b.profileMetrics(profile)
	b.priceMetrics(features)

	volume := s.volumeScore(b, profile.Checkpoints, age)
	price := s.priceScore(b, features, profile.Checkpoints, age)
	timing := s.cfg.Age.Score(age)
	momentum := s.momentumScore(b, volumeSeries, priceSeries, features)

	w := s.cfg.Weights
	total := volume*w.Volume + price*w.Price + timing*w.Time + momentum*w.Momentum
	total = clamp(math.Round(total), 0, 100)

	b.rec.SubScores[domain.SubVolume] = volume
	b.rec.SubScores[domain.SubPrice] = price
	b.rec.SubScores[domain.SubTime] = timing
	b.rec.SubScores[domain.SubMomentum] = momentum
	b.rec.Total = total
	b.rec.Pattern = patterns.CombinedRules.Classify(features)

	tier := s.cfg.Labels.Pick(total)
	b.rec.Label = tier.Label
	b.note(tier)

	velocity := profile.RecentVelocity
	needed := s.cfg.VolumeAverage.Min30 - profile.Checkpoints.Total
	if velocity > 0 && total >= s.cfg.ETAMinScore && needed > 0 {
		eta := int(math.Round(needed / velocity))
		b.rec.ETAMinutes = &eta
	}
	return b.rec
}

func (s *V2Scorer) volumeScore(b *recordBuilder, vs checkpoint.VolumeSet, age float64) float64 {
	crit, pts := s.cfg.VolumeCritical, s.cfg.Points
	gates := []struct {
		minute    int
		threshold float64
		points    float64
	}{
		{domain.Minute5, crit.Min5, pts.Volume5},
		{domain.Minute10, crit.Min10, pts.Volume10},
		{domain.Minute30, crit.Min30, pts.Volume30},
	}
	score := 0.0
	for _, g := range gates {
		cp := vs.Cumulative.At(g.minute)
		if age < float64(g.minute) || !cp.Set {
			continue
		}
		if cp.Value >= g.threshold {
			score += g.points
			b.signal("%d-min volume %s above critical %s", g.minute, kilo(cp.Value), kilo(g.threshold))
		}
	}
	return score
}

func (s *V2Scorer) priceScore(b *recordBuilder, f patterns.PriceFeatures, vs checkpoint.VolumeSet, age float64) float64 {
	crit, pts := s.cfg.PriceCritical, s.cfg.Points
	score := 0.0

	if age >= domain.Minute5 && f.Checkpoints.Increases.Has(domain.Minute5) {
		inc := f.Increase(domain.Minute5)
		switch {
		case inc >= crit.Min5:
			score += pts.Price5
			b.signal("5-min price +%.0f%%", inc)
		case inc > s.cfg.Price5Strong:
			score += pts.Price5Strong
		case inc < 0 && vs.Cumulative.Value(domain.Minute5) > s.cfg.AccumulationVolume:
			score += pts.Price5Accumulation
			b.signal("accumulation phase: price down with strong volume")
		}
	}
	if age >= domain.Minute10 && f.Checkpoints.Increases.Has(domain.Minute10) {
		inc := f.Increase(domain.Minute10)
		switch {
		case inc >= crit.Min10:
			score += pts.Price10
			b.signal("10-min price +%.0f%%", inc)
		case inc > s.cfg.Price10Strong:
			score += pts.Price10Strong
		}
	}
	if age >= domain.Minute30 && f.Checkpoints.Increases.Has(domain.Minute30) {
		if inc := f.Increase(domain.Minute30); inc >= crit.Min30 {
			score += pts.Price30
			b.signal("30-min price +%.0f%%", inc)
		}
	}
	if patterns.CombinedRules.Classify(f) == domain.PatternExplosiveGrowth {
		score += pts.ExplosiveBonus
		b.signal("explosive growth pattern")
	}
	return math.Min(score, 100)
}

func (s *V2Scorer) momentumScore(b *recordBuilder, volumeSeries, priceSeries []domain.Candle, f patterns.PriceFeatures) float64 {
	cfg, pts := s.cfg, s.cfg.Points
	score := 0.0

	if early, recent, ok := patterns.EarlyRecent(volumeSeries, cfg.TrendWindow, patterns.VolumeOf); ok {
		b.metric(domain.MetricEarlyVolume, early)
		b.metric(domain.MetricRecentVolume, recent)
		switch {
		case recent > early*cfg.VolumeTrendUp:
			score += pts.VolumeTrend
			b.signal("volume momentum increasing")
		case recent < early*cfg.VolumeTrendDown:
			b.warn("Volume momentum decreasing")
		}
	}
	// Sums over equal windows compare the same way as averages.
	if early, recent, ok := patterns.EarlyRecent(priceSeries, cfg.TrendWindow, patterns.CloseOf); ok {
		if recent > early*cfg.PriceTrendUp {
			score += pts.PriceTrend
			b.signal("price trending up")
		}
	}
	if f.MaxGreenRun >= cfg.GreenRunMin {
		score += pts.GreenRun
		b.signal("%d consecutive green candles", f.MaxGreenRun)
	}
	return math.Min(score, 100)
}
