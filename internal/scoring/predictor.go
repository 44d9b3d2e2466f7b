package scoring

import (
	"math"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/patterns"
)

var predictorSubScores = []string{domain.SubVolume, domain.SubMomentum}

// Predictor scores a token against calibrated cumulative volume checkpoints
// and estimates minutes until the graduation volume target.
type Predictor struct {
	cfg PredictorConfig
}

// NewPredictor creates a checkpoint predictor.
func NewPredictor(cfg PredictorConfig) *Predictor {
	return &Predictor{cfg: cfg}
}

// Variant returns the scorer name.
func (p *Predictor) Variant() string { return domain.VariantPredictor }

// Score scores the market-cap series, falling back to the price series.
func (p *Predictor) Score(in Input) domain.ScoreRecord {
	b := &recordBuilder{rec: newRecord(domain.VariantPredictor, in.Token)}
	series := in.VolumeCandles
	if len(series) == 0 {
		series = in.PriceCandles
	}
	if len(series) == 0 {
		return emptyRecord(b.rec, predictorSubScores, p.cfg.Labels.Lowest())
	}
	cfg, pts := p.cfg, p.cfg.Points
	age := in.Token.AgeMinutes()

	profile := patterns.Profile(series, cfg.TotalVolumeTarget)
	b.metric(domain.MetricCandles, float64(len(series)))
	b.profileMetrics(profile)

	volume := 0.0
	gates := []struct {
		minute    int
		threshold float64
		points    float64
	}{
		{domain.Minute5, cfg.Critical.Min5, pts.Volume5},
		{domain.Minute10, cfg.Critical.Min10, pts.Volume10},
		{domain.Minute30, cfg.Critical.Min30, pts.Volume30},
	}
	for _, g := range gates {
		cp := profile.Checkpoints.Cumulative.At(g.minute)
		if age < float64(g.minute) || !cp.Set || cp.Value <= 0 {
			continue
		}
		if cp.Value >= g.threshold {
			volume += g.points
			b.signal("%d-min volume %s meets critical %s", g.minute, kilo(cp.Value), kilo(g.threshold))
			continue
		}
		b.warn("%d-min volume at %.0f%% of critical", g.minute, cp.Value/g.threshold*100)
	}

	momentum := 0.0
	velocity := profile.RecentVelocity
	if velocity >= cfg.Critical.VelocityPerMin {
		momentum += pts.Velocity
		b.signal("velocity %s/min", kilo(velocity))
	} else {
		b.warn("velocity %s/min below %s/min", kilo(velocity), kilo(cfg.Critical.VelocityPerMin))
	}
	if n := len(profile.Spikes); n >= cfg.MinSpikes {
		momentum += pts.Spikes
		b.signal("%d volume spikes", n)
	}
	if early, recent, ok := patterns.EarlyRecent(series, cfg.TrendWindow, patterns.VolumeOf); ok {
		b.metric(domain.MetricEarlyVolume, early)
		b.metric(domain.MetricRecentVolume, recent)
		switch {
		case recent > early*cfg.TrendUp:
			momentum += pts.Momentum
			b.signal("volume momentum increasing")
		case recent < early*cfg.TrendDown:
			momentum -= pts.Momentum
			b.warn("Volume momentum decreasing")
		}
	}
	buyPressure := patterns.BuyPressure(series)
	b.metric(domain.MetricBuyPressure, buyPressure)
	if buyPressure > cfg.BuyPressureAbove {
		momentum += pts.BuyPressure
		b.signal("buy pressure %.0f%%", buyPressure)
	}

	total := clamp(volume+momentum, 0, 100)
	b.rec.SubScores[domain.SubVolume] = volume
	b.rec.SubScores[domain.SubMomentum] = momentum
	b.rec.Total = total

	tier := cfg.Labels.Pick(total)
	b.rec.Label = tier.Label
	b.note(tier)

	needed := cfg.TotalVolumeTarget - profile.Checkpoints.Total
	switch {
	case needed <= 0:
		b.signal("graduation volume target reached")
	case velocity > 0:
		eta := int(math.Round(needed / velocity))
		b.rec.ETAMinutes = &eta
	}
	return b.rec
}
