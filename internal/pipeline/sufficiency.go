package pipeline

import (
	"fmt"
	"sort"
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks of a scan.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// SufficiencyThresholds decide whether a batch is worth acting on.
type SufficiencyThresholds struct {
	MinScored       int     // tokens with a score
	MinFetchRate    float64 // scored / requested
	MinHistory      int     // volume candles for a token to count as covered
	MinCoveredShare float64 // covered / scored
}

// DefaultSufficiencyThresholds returns the thresholds used after every scan.
func DefaultSufficiencyThresholds() SufficiencyThresholds {
	return SufficiencyThresholds{
		MinScored:       5,
		MinFetchRate:    0.8,
		MinHistory:      10,
		MinCoveredShare: 0.5,
	}
}

// CheckSufficiency evaluates a scan result. Warnings only: a failing check
// never discards the batch.
func CheckSufficiency(res *Result, th SufficiencyThresholds) SufficiencyResult {
	out := SufficiencyResult{AllPass: true, Errors: []string{}}
	add := func(c SufficiencyCheck) {
		out.Checks = append(out.Checks, c)
		if !c.Pass {
			out.AllPass = false
		}
	}

	add(SufficiencyCheck{
		Name:      "Tokens scored",
		Threshold: fmt.Sprintf(">= %d", th.MinScored),
		Actual:    fmt.Sprintf("%d", res.Scored),
		Pass:      res.Scored >= th.MinScored,
	})

	fetchRate := 0.0
	if res.Requested > 0 {
		fetchRate = float64(res.Scored) / float64(res.Requested)
	}
	add(SufficiencyCheck{
		Name:      "Fetch success rate",
		Threshold: fmt.Sprintf(">= %.0f%%", th.MinFetchRate*100),
		Actual:    fmt.Sprintf("%.1f%%", fetchRate*100),
		Pass:      res.Requested > 0 && fetchRate >= th.MinFetchRate,
	})

	covered := 0
	var empty []string
	for _, c := range res.Coverage {
		if c.VolumeCandles >= th.MinHistory {
			covered++
		}
		if c.VolumeCandles == 0 && c.PriceCandles == 0 {
			empty = append(empty, c.TokenID)
		}
	}
	share := 0.0
	if res.Scored > 0 {
		share = float64(covered) / float64(res.Scored)
	}
	add(SufficiencyCheck{
		Name:      fmt.Sprintf("Tokens with >= %d candles", th.MinHistory),
		Threshold: fmt.Sprintf(">= %.0f%%", th.MinCoveredShare*100),
		Actual:    fmt.Sprintf("%.1f%%", share*100),
		Pass:      res.Scored > 0 && share >= th.MinCoveredShare,
	})

	var dups []string
	for _, s := range res.Skipped {
		if s.Reason == SkipDuplicate {
			dups = append(dups, s.TokenID)
		}
	}
	add(SufficiencyCheck{
		Name:      "Duplicate tokens",
		Threshold: "0",
		Actual:    fmt.Sprintf("%d", len(dups)),
		Pass:      len(dups) == 0,
	})

	sort.Strings(empty)
	for _, id := range empty {
		out.Errors = append(out.Errors, fmt.Sprintf("token %s scored with no candle data", id))
	}
	sort.Strings(dups)
	for _, id := range dups {
		out.Errors = append(out.Errors, fmt.Sprintf("token %s listed more than once", id))
	}
	return out
}
