package patterns

import (
	"math"

	"graduation-lab/internal/checkpoint"
	"graduation-lab/internal/domain"
)

// GraduationVolumeHeuristic is the cumulative volume treated as the likely
// graduation point when profiling graduated tokens. It is a rough estimate.
const GraduationVolumeHeuristic = 500_000

// VolumeSpike is a minute whose volume exceeded 3x the previous 5-minute mean.
type VolumeSpike struct {
	Minute     int     `json:"minute"`
	Volume     float64 `json:"volume"`
	Multiplier float64 `json:"multiplier"` // rounded to 2 decimals
	Cumulative float64 `json:"cumulative"`
}

// Acceleration is a minute where the trailing 5-minute volume more than doubled
// the 5 minutes before it.
type Acceleration struct {
	Minute     int     `json:"minute"`
	Ratio      float64 `json:"ratio"` // rounded to 2 decimals
	Cumulative float64 `json:"cumulative"`
}

// VolumeSpikes scans from index 5 onward. A zero trailing mean skips the comparison.
func VolumeSpikes(candles []domain.Candle) []VolumeSpike {
	var out []VolumeSpike
	cum := 0.0
	for i, c := range candles {
		cum += c.Volume
		if i < 5 {
			continue
		}
		avg := sumVolume(candles[i-5:i]) / 5
		if avg <= 0 {
			continue
		}
		if c.Volume > avg*3 {
			out = append(out, VolumeSpike{
				Minute:     i + 1,
				Volume:     c.Volume,
				Multiplier: round2(c.Volume / avg),
				Cumulative: cum,
			})
		}
	}
	return out
}

// VolumeAccelerations scans from index 10 onward, comparing candles [i-4, i]
// with [i-9, i-5]. A zero previous window skips the comparison.
func VolumeAccelerations(candles []domain.Candle) []Acceleration {
	var out []Acceleration
	cum := 0.0
	for i, c := range candles {
		cum += c.Volume
		if i < 10 {
			continue
		}
		recent := sumVolume(candles[i-4 : i+1])
		previous := sumVolume(candles[i-9 : i-4])
		if previous <= 0 {
			continue
		}
		if recent > previous*2 {
			out = append(out, Acceleration{
				Minute:     i + 1,
				Ratio:      round2(recent / previous),
				Cumulative: cum,
			})
		}
	}
	return out
}

// VolumeProfile summarizes how a series accumulated volume.
type VolumeProfile struct {
	Checkpoints       checkpoint.VolumeSet
	Candles           int
	PeakVolume        float64
	PeakMinute        int
	AvgPerMinute      float64
	TargetReached     bool
	VolumeToTarget    float64 // cumulative volume when the target was crossed, or the total
	MinutesToTarget   int     // minute the target was crossed, or the series length
	Spikes            []VolumeSpike
	Accelerations     []Acceleration
	Velocity30        float64 // 30-minute volume / 30, 0 when unset
	SustainedInterest float64 // 60-minute minus 30-minute volume, 0 when 60 is unset
	RecentVelocity    float64
}

// Profile builds a VolumeProfile. target is the cumulative volume regarded as
// graduation; the first minute strictly above it is recorded.
func Profile(candles []domain.Candle, target float64) VolumeProfile {
	p := VolumeProfile{
		Checkpoints:    checkpoint.Volume(candles),
		Candles:        len(candles),
		Spikes:         VolumeSpikes(candles),
		Accelerations:  VolumeAccelerations(candles),
		RecentVelocity: RecentVelocity(candles),
	}

	cum := 0.0
	for i, c := range candles {
		cum += c.Volume
		if c.Volume > p.PeakVolume {
			p.PeakVolume = c.Volume
			p.PeakMinute = i + 1
		}
		if !p.TargetReached && cum > target {
			p.TargetReached = true
			p.VolumeToTarget = cum
			p.MinutesToTarget = i + 1
		}
	}
	if !p.TargetReached {
		p.VolumeToTarget = cum
		p.MinutesToTarget = len(candles)
	}
	if len(candles) > 0 {
		p.AvgPerMinute = cum / float64(len(candles))
	}

	v30 := p.Checkpoints.Cumulative.Value(domain.Minute30)
	if v30 > 0 {
		p.Velocity30 = v30 / 30
	}
	if p.Checkpoints.Cumulative.Has(domain.Minute60) {
		p.SustainedInterest = p.Checkpoints.Cumulative.Value(domain.Minute60) - v30
	}
	return p
}

func sumVolume(candles []domain.Candle) float64 {
	s := 0.0
	for _, c := range candles {
		s += c.Volume
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
