// Package checkpoint extracts fixed-offset metrics from candle series.
//
// A checkpoint for minute m is recorded at candle index m-1, so the 5-minute
// checkpoint needs at least 5 candles. Every variant uses this convention.
package checkpoint

import "graduation-lab/internal/domain"

// slotByIndex maps a candle index to its checkpoint slot.
var slotByIndex = func() map[int]int {
	m := make(map[int]int, len(domain.CheckpointMinutes))
	for slot, minute := range domain.CheckpointMinutes {
		m[minute-1] = slot
	}
	return m
}()

// VolumeSet is the volume checkpoint result for one series.
type VolumeSet struct {
	Cumulative domain.CheckpointSet // cumulative volume at each offset
	Total      float64              // cumulative volume over the whole series
}

// Volume walks the series once, accumulating volume.
func Volume(candles []domain.Candle) VolumeSet {
	var out VolumeSet
	sum := 0.0
	for i, c := range candles {
		sum += c.Volume
		if slot, ok := slotByIndex[i]; ok {
			out.Cumulative[slot] = domain.CheckpointValue{Value: sum, Set: true}
		}
	}
	out.Total = sum
	return out
}

// PriceSet is the price checkpoint result for one series.
type PriceSet struct {
	Start     float64              // first close
	Last      float64              // last close
	Closes    domain.CheckpointSet // close at each offset
	Increases domain.CheckpointSet // % change from Start at each offset
}

// Price walks the series once, recording closes and their change from the first close.
// A zero start price leaves increases at 0.
func Price(candles []domain.Candle) PriceSet {
	var out PriceSet
	if len(candles) == 0 {
		return out
	}
	out.Start = candles[0].Close
	out.Last = candles[len(candles)-1].Close
	for i, c := range candles {
		slot, ok := slotByIndex[i]
		if !ok {
			continue
		}
		out.Closes[slot] = domain.CheckpointValue{Value: c.Close, Set: true}
		out.Increases[slot] = domain.CheckpointValue{Value: PercentChange(out.Start, c.Close), Set: true}
	}
	return out
}

// PercentChange returns (to-from)/from*100, or 0 when from is not positive.
func PercentChange(from, to float64) float64 {
	if from <= 0 {
		return 0
	}
	return (to - from) / from * 100
}
