package scoring

import (
	"graduation-lab/internal/checkpoint"
	"graduation-lab/internal/domain"
	"graduation-lab/internal/patterns"
)

// volumeMetrics records the cumulative checkpoints that were reached.
func (r *recordBuilder) volumeMetrics(vs checkpoint.VolumeSet) {
	for _, m := range domain.CheckpointMinutes {
		if cp := vs.Cumulative.At(m); cp.Set {
			r.metric(domain.VolumeMetric(m), cp.Value)
		}
	}
	r.metric(domain.MetricCumulativeVolume, vs.Total)
}

// profileMetrics records the accumulation profile of a volume series.
func (r *recordBuilder) profileMetrics(p patterns.VolumeProfile) {
	r.volumeMetrics(p.Checkpoints)
	r.metric(domain.MetricVelocity, p.RecentVelocity)
	r.metric(domain.MetricVelocity30, p.Velocity30)
	r.metric(domain.MetricVolumeToTarget, p.VolumeToTarget)
	r.metric(domain.MetricMinutesToTarget, float64(p.MinutesToTarget))
	r.metric(domain.MetricVolumeSpikes, float64(len(p.Spikes)))
	r.metric(domain.MetricAccelerations, float64(len(p.Accelerations)))
}

// priceMetrics records the price features of a series.
func (r *recordBuilder) priceMetrics(f patterns.PriceFeatures) {
	for _, m := range domain.CheckpointMinutes {
		if cp := f.Checkpoints.Increases.At(m); cp.Set {
			r.metric(domain.PriceIncreaseMetric(m), cp.Value)
		}
	}
	r.metric(domain.MetricPriceChange, f.TotalIncrease)
	r.metric(domain.MetricMaxIncrease, f.MaxIncrease)
	r.metric(domain.MetricMaxGreenRun, float64(f.MaxGreenRun))
	r.metric(domain.MetricBuyPressure, f.BuyPressure)
	r.metric(domain.MetricVolatility, f.Volatility)
	r.metric(domain.MetricMeanAbsReturn, f.MeanAbsReturn)
	r.metric(domain.MetricEfficiency, f.Efficiency)
	r.metric(domain.MetricMaxDrawdown, f.MaxDrawdown)
	r.metric(domain.MetricPriceSpikes, float64(len(f.Spikes)))
	r.metric(domain.MetricConsolidations, float64(len(f.Consolidations)))
	r.metric(domain.MetricBreakouts, float64(len(f.Breakouts)))
	if f.TimeTo2x != nil {
		r.metric(domain.MetricTimeTo2x, float64(*f.TimeTo2x))
	}
	if f.TimeTo3x != nil {
		r.metric(domain.MetricTimeTo3x, float64(*f.TimeTo3x))
	}
}
