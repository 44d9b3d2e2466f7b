package scoring

import (
	"math"

	"graduation-lab/internal/checkpoint"
	"graduation-lab/internal/domain"
	"graduation-lab/internal/patterns"
)

var v1SubScores = []string{
	domain.SubVolume, domain.SubPrice, domain.SubMomentum,
	domain.SubStability, domain.SubHolders, domain.SubTime,
}

// V1Scorer sums six tiered dimensions of a single market-cap series into 0-100.
type V1Scorer struct {
	variant string
	cfg     V1Config
}

// NewV1Scorer creates a V1 scorer. The same logic serves the calibrated and legacy presets.
func NewV1Scorer(variant string, cfg V1Config) *V1Scorer {
	return &V1Scorer{variant: variant, cfg: cfg}
}

// Variant returns the scorer name.
func (s *V1Scorer) Variant() string { return s.variant }

// Score scores the market-cap series, falling back to the price series when it is empty.
func (s *V1Scorer) Score(in Input) domain.ScoreRecord {
	b := &recordBuilder{rec: newRecord(s.variant, in.Token)}
	series := in.VolumeCandles
	if len(series) == 0 {
		series = in.PriceCandles
	}
	if len(series) == 0 {
		return emptyRecord(b.rec, v1SubScores, s.cfg.Labels.Lowest())
	}
	cfg := s.cfg
	b.metric(domain.MetricCandles, float64(len(series)))

	// Volume
	vs := checkpoint.Volume(series)
	b.volumeMetrics(vs)
	volume := cfg.VolumeTiers.Score(vs.Total)
	for _, bonus := range cfg.VolumeBonuses {
		cp := vs.Cumulative.At(bonus.Minute)
		if cp.Set && cp.Value > bonus.Above {
			volume += bonus.Points
			b.signal("%d-min volume %s above %s", bonus.Minute, kilo(cp.Value), kilo(bonus.Above))
		}
	}
	volume = math.Min(volume, cfg.VolumeCap)

	// Price trend
	price := 0.0
	if len(series) > cfg.PriceMinCandles {
		change := checkpoint.PercentChange(series[0].Close, series[len(series)-1].Close)
		b.metric(domain.MetricPriceChange, change)
		price = cfg.PriceTiers.Score(change)
	}

	// Momentum
	momentum := 0.0
	if early, recent, ok := patterns.EarlyRecent(series, cfg.MomentumWindow, patterns.VolumeOf); ok {
		b.metric(domain.MetricEarlyVolume, early)
		b.metric(domain.MetricRecentVolume, recent)
		momentum = cfg.MomentumTiers.Score(early, recent)
	}

	// Stability
	volatility := patterns.Volatility(series)
	b.metric(domain.MetricVolatility, volatility)
	stability := cfg.StabilityTiers.Score(volatility)

	holders := cfg.HolderTiers.Score(float64(in.Token.HolderCount))
	age := cfg.Age.Score(in.Token.AgeMinutes())

	b.rec.SubScores[domain.SubVolume] = volume
	b.rec.SubScores[domain.SubPrice] = price
	b.rec.SubScores[domain.SubMomentum] = momentum
	b.rec.SubScores[domain.SubStability] = stability
	b.rec.SubScores[domain.SubHolders] = holders
	b.rec.SubScores[domain.SubTime] = age

	b.rec.Total = volume + price + momentum + stability + holders + age
	tier := cfg.Labels.Pick(b.rec.Total)
	b.rec.Label = tier.Label
	b.note(tier)
	return b.rec
}
