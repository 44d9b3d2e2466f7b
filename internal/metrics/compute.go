package metrics

import (
	"math"
	"sort"

	"graduation-lab/internal/domain"
)

// summarize computes the distribution of one field across a batch.
func summarize(values []float64) domain.Summary {
	if len(values) == 0 {
		return domain.Summary{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	avg := mean(values)
	return domain.Summary{
		Mean:   avg,
		Median: quantile(sorted, 0.5),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Stddev: sampleStddev(values, avg),
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStddev uses the n-1 denominator; fewer than two values give 0.
func sampleStddev(values []float64, avg float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var ss float64
	for _, v := range values {
		ss += (v - avg) * (v - avg)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// quantile interpolates linearly between the closest ranks of an ascending
// slice. q is in [0, 1].
func quantile(sorted []float64, q float64) float64 {
	switch len(sorted) {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	i := int(pos)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (pos-float64(i))*(sorted[i+1]-sorted[i])
}

// fieldValues extracts one named value per record. Records missing the key contribute 0.
func fieldValues(records []domain.ScoreRecord, get func(domain.ScoreRecord) map[string]float64, key string) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = get(r)[key]
	}
	return out
}

// unionKeys returns every key present in any record, sorted.
func unionKeys(records []domain.ScoreRecord, get func(domain.ScoreRecord) map[string]float64) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for k := range get(r) {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func subScoresOf(r domain.ScoreRecord) map[string]float64 { return r.SubScores }

func metricsOf(r domain.ScoreRecord) map[string]float64 { return r.Metrics }
