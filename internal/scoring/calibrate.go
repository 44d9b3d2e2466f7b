package scoring

import (
	"graduation-lab/internal/domain"
)

// Calibrated returns a copy of the config whose volume and price thresholds are
// taken from a batch of graduated tokens: averages from the batch means,
// critical values from the high threshold tier. Keys the batch did not observe
// keep their current values.
func (c V2Config) Calibrated(stats domain.BatchStats, th domain.ThresholdSet) V2Config {
	if stats.Count == 0 {
		return c
	}
	mean := metricMeans(stats)
	c.VolumeAverage = calibrateVolume(c.VolumeAverage, mean)
	c.VolumeCritical = calibrateVolume(c.VolumeCritical, th.High)
	c.PriceAverage = calibratePrice(c.PriceAverage, mean)
	c.PriceCritical = calibratePrice(c.PriceCritical, th.High)
	return c
}

// Calibrated returns a copy of the predictor config fitted to a graduated batch.
func (c PredictorConfig) Calibrated(stats domain.BatchStats, th domain.ThresholdSet) PredictorConfig {
	if stats.Count == 0 {
		return c
	}
	mean := metricMeans(stats)
	c.Average = calibrateVolume(c.Average, mean)
	c.Critical = calibrateVolume(c.Critical, th.High)
	setPositive(&c.TotalVolumeTarget, mean, domain.MetricVolumeToTarget)
	setPositive(&c.AvgTimeMinutes, mean, domain.MetricMinutesToTarget)
	return c
}

// Calibrate applies a batch of graduated-token statistics to the variants that
// carry calibrated thresholds. The result is meant to be saved and reviewed
// before a later scan loads it.
func Calibrate(cfg Config, stats domain.BatchStats, th domain.ThresholdSet) Config {
	cfg.V2 = cfg.V2.Calibrated(stats, th)
	cfg.Predictor = cfg.Predictor.Calibrated(stats, th)
	return cfg
}

func metricMeans(stats domain.BatchStats) map[string]float64 {
	out := make(map[string]float64, len(stats.Metrics))
	for name, s := range stats.Metrics {
		out[name] = s.Mean
	}
	if v30, ok := out[domain.VolumeMetric(domain.Minute30)]; ok {
		out[domain.MetricVelocity30] = v30 / 30
	}
	return out
}

func calibrateVolume(t VolumeThresholds, values map[string]float64) VolumeThresholds {
	setPositive(&t.Min5, values, domain.VolumeMetric(domain.Minute5))
	setPositive(&t.Min10, values, domain.VolumeMetric(domain.Minute10))
	setPositive(&t.Min30, values, domain.VolumeMetric(domain.Minute30))
	setPositive(&t.Min60, values, domain.VolumeMetric(domain.Minute60))
	setPositive(&t.VelocityPerMin, values, domain.MetricVelocity30)
	return t
}

func calibratePrice(t PriceThresholds, values map[string]float64) PriceThresholds {
	setPositive(&t.Min5, values, domain.PriceIncreaseMetric(domain.Minute5))
	setPositive(&t.Min10, values, domain.PriceIncreaseMetric(domain.Minute10))
	setPositive(&t.Min30, values, domain.PriceIncreaseMetric(domain.Minute30))
	setPositive(&t.Min60, values, domain.PriceIncreaseMetric(domain.Minute60))
	return t
}

func setPositive(dst *float64, values map[string]float64, key string) {
	if v, ok := values[key]; ok && v > 0 {
		*dst = v
	}
}
