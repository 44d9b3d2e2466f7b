// Package patterns holds pure classifiers over one-minute candle series.
// None of them fail: short or degenerate input yields zero values.
package patterns

import (
	"math"

	"graduation-lab/internal/domain"
)

// minuteReturns returns close-to-close percentage returns.
// Steps from a non-positive close are skipped.
func minuteReturns(candles []domain.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev <= 0 {
			continue
		}
		out = append(out, (candles[i].Close-prev)/prev*100)
	}
	return out
}

// Volatility returns the population standard deviation of minute returns.
// Returns 0 for fewer than 2 candles.
func Volatility(candles []domain.Candle) float64 {
	returns := minuteReturns(candles)
	if len(returns) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance)
}

// MeanAbsReturn returns the mean and max of absolute minute returns.
func MeanAbsReturn(candles []domain.Candle) (mean, max float64) {
	returns := minuteReturns(candles)
	if len(returns) == 0 {
		return 0, 0
	}
	for _, r := range returns {
		a := math.Abs(r)
		mean += a
		if a > max {
			max = a
		}
	}
	return mean / float64(len(returns)), max
}

// BuyPressure returns the share of green candles as a 0-100 percentage.
func BuyPressure(candles []domain.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	green := 0
	for _, c := range candles {
		if c.IsGreen() {
			green++
		}
	}
	return float64(green) / float64(len(candles)) * 100
}

// MaxGreenRun returns the longest run of consecutive green candles.
func MaxGreenRun(candles []domain.Candle) int {
	run, best := 0, 0
	for _, c := range candles {
		if !c.IsGreen() {
			run = 0
			continue
		}
		run++
		if run > best {
			best = run
		}
	}
	return best
}

// EarlyRecent returns the sums of a field over the first and last n candles.
// ok is false when the series is shorter than 2n.
func EarlyRecent(candles []domain.Candle, n int, field func(domain.Candle) float64) (early, recent float64, ok bool) {
	if n <= 0 || len(candles) < 2*n {
		return 0, 0, false
	}
	for _, c := range candles[:n] {
		early += field(c)
	}
	for _, c := range candles[len(candles)-n:] {
		recent += field(c)
	}
	return early, recent, true
}

// VolumeOf and CloseOf are field selectors for EarlyRecent.
func VolumeOf(c domain.Candle) float64 { return c.Volume }

func CloseOf(c domain.Candle) float64 { return c.Close }

// RecentVelocity returns average volume per minute over the last 10 candles,
// or over the whole series when it is shorter.
func RecentVelocity(candles []domain.Candle) float64 {
	n := len(candles)
	if n == 0 {
		return 0
	}
	if n > 10 {
		n = 10
	}
	sum := 0.0
	for _, c := range candles[len(candles)-n:] {
		sum += c.Volume
	}
	return sum / float64(n)
}
