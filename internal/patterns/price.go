package patterns

import (
	"graduation-lab/internal/checkpoint"
	"graduation-lab/internal/domain"
)

// PriceSpike is a single-minute close-to-close gain above 5%.
type PriceSpike struct {
	Minute   int     `json:"minute"`
	Increase float64 `json:"increase"`
	Price    float64 `json:"price"`
}

// Consolidation is a 5-close window whose range stayed under 2%.
// StartMinute is the index of the window's first candle and EndMinute the
// 1-based minute of its last, so EndMinute-StartMinute is always 5.
type Consolidation struct {
	StartMinute int     `json:"startMinute"`
	EndMinute   int     `json:"endMinute"`
	AvgPrice    float64 `json:"avgPrice"`
}

// Breakout is a close more than 3% above the highest high of the previous 10 candles.
type Breakout struct {
	Minute       int     `json:"minute"`
	Price        float64 `json:"price"`
	PreviousHigh float64 `json:"previousHigh"`
}

const (
	priceSpikePct       = 5.0
	consolidationPct    = 2.0
	breakoutMargin      = 1.03
	breakoutLookback    = 10
	consolidationWindow = 5
)

// PriceSpikes returns every step with a gain above 5%.
// Steps from a non-positive close are skipped.
func PriceSpikes(candles []domain.Candle) []PriceSpike {
	var out []PriceSpike
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev <= 0 {
			continue
		}
		change := (candles[i].Close - prev) / prev * 100
		if change > priceSpikePct {
			out = append(out, PriceSpike{Minute: i + 1, Increase: change, Price: candles[i].Close})
		}
	}
	return out
}

// Consolidations checks the trailing 5-close window at every index from 5 onward.
func Consolidations(candles []domain.Candle) []Consolidation {
	var out []Consolidation
	for i := consolidationWindow; i < len(candles); i++ {
		window := candles[i-consolidationWindow+1 : i+1]
		lo, hi, sum := window[0].Close, window[0].Close, 0.0
		for _, c := range window {
			if c.Close < lo {
				lo = c.Close
			}
			if c.Close > hi {
				hi = c.Close
			}
			sum += c.Close
		}
		if lo <= 0 {
			continue
		}
		if (hi-lo)/lo*100 < consolidationPct {
			out = append(out, Consolidation{
				StartMinute: i - consolidationWindow + 1,
				EndMinute:   i + 1,
				AvgPrice:    sum / consolidationWindow,
			})
		}
	}
	return out
}

// Breakouts checks every index from 10 onward against the preceding 10 highs.
func Breakouts(candles []domain.Candle) []Breakout {
	var out []Breakout
	for i := breakoutLookback; i < len(candles); i++ {
		high := candles[i-breakoutLookback].High
		for _, c := range candles[i-breakoutLookback+1 : i] {
			if c.High > high {
				high = c.High
			}
		}
		if candles[i].Close > high*breakoutMargin {
			out = append(out, Breakout{Minute: i + 1, Price: candles[i].Close, PreviousHigh: high})
		}
	}
	return out
}

// PriceEfficiency is net gain to the highest close divided by the total
// close-to-close path, as a percentage. 0 when the price never rose.
func PriceEfficiency(candles []domain.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	start := candles[0].Close
	highest, path := 0.0, 0.0
	for i, c := range candles {
		if c.Close > highest {
			highest = c.Close
		}
		if i > 0 {
			d := c.Close - candles[i-1].Close
			if d < 0 {
				d = -d
			}
			path += d
		}
	}
	ideal := highest - start
	if ideal <= 0 || path == 0 {
		return 0
	}
	return ideal / path * 100
}

// MaxDrawdown returns the largest percentage fall from the running peak close.
func MaxDrawdown(candles []domain.Candle) float64 {
	peak, worst := 0.0, 0.0
	for _, c := range candles {
		if c.Close > peak {
			peak = c.Close
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - c.Close) / peak * 100; dd > worst {
			worst = dd
		}
	}
	return worst
}

// TimeToMultiple returns the first 1-based minute whose close reached k times
// the starting close, or nil if it never did or the start is not positive.
func TimeToMultiple(candles []domain.Candle, k float64) *int {
	if len(candles) == 0 || candles[0].Close <= 0 {
		return nil
	}
	target := candles[0].Close * k
	for i, c := range candles {
		if c.Close >= target {
			minute := i + 1
			return &minute
		}
	}
	return nil
}

// PriceFeatures is everything the price scorers read from one price series.
type PriceFeatures struct {
	Candles        int
	Checkpoints    checkpoint.PriceSet
	Highest        float64
	Lowest         float64
	Average        float64
	TotalIncrease  float64 // last close vs first close, %
	MaxIncrease    float64 // highest close vs first close, %
	GreenCount     int
	MaxGreenRun    int
	BuyPressure    float64
	Volatility     float64
	MeanAbsReturn  float64
	MaxAbsReturn   float64
	Efficiency     float64
	MaxDrawdown    float64
	TimeTo2x       *int
	TimeTo3x       *int
	Spikes         []PriceSpike
	Consolidations []Consolidation
	Breakouts      []Breakout
}

// Increase returns the checkpoint increase at minute, 0 when unset.
func (f PriceFeatures) Increase(minute int) float64 {
	return f.Checkpoints.Increases.Value(minute)
}

// Analyze computes PriceFeatures for a series.
func Analyze(candles []domain.Candle) PriceFeatures {
	cp := checkpoint.Price(candles)
	meanAbs, maxAbs := MeanAbsReturn(candles)

	f := PriceFeatures{
		Candles:        len(candles),
		Checkpoints:    cp,
		TotalIncrease:  checkpoint.PercentChange(cp.Start, cp.Last),
		MaxGreenRun:    MaxGreenRun(candles),
		BuyPressure:    BuyPressure(candles),
		Volatility:     Volatility(candles),
		MeanAbsReturn:  meanAbs,
		MaxAbsReturn:   maxAbs,
		Efficiency:     PriceEfficiency(candles),
		MaxDrawdown:    MaxDrawdown(candles),
		TimeTo2x:       TimeToMultiple(candles, 2),
		TimeTo3x:       TimeToMultiple(candles, 3),
		Spikes:         PriceSpikes(candles),
		Consolidations: Consolidations(candles),
		Breakouts:      Breakouts(candles),
	}
	if len(candles) == 0 {
		return f
	}

	lo, hi, sum, green := candles[0].Close, candles[0].Close, 0.0, 0
	for _, c := range candles {
		if c.Close > hi {
			hi = c.Close
		}
		if c.Close < lo {
			lo = c.Close
		}
		sum += c.Close
		if c.IsGreen() {
			green++
		}
	}
	f.Highest = hi
	f.Lowest = lo
	f.Average = sum / float64(len(candles))
	f.GreenCount = green
	f.MaxIncrease = checkpoint.PercentChange(cp.Start, hi)
	return f
}
