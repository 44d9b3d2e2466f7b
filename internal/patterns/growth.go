package patterns

import "graduation-lab/internal/domain"

// Rule pairs a growth label with its predicate.
type Rule struct {
	Label string
	Match func(PriceFeatures) bool
}

// RuleTable is evaluated in order; the first matching rule wins.
type RuleTable struct {
	Rules    []Rule
	Fallback string
}

// Classify returns the label of the first matching rule, or the fallback.
func (t RuleTable) Classify(f PriceFeatures) string {
	for _, r := range t.Rules {
		if r.Match(f) {
			return r.Label
		}
	}
	return t.Fallback
}

// AnalysisRules labels single price series in the price-only scorer.
var AnalysisRules = RuleTable{
	Rules: []Rule{
		{domain.PatternExplosiveGrowth, func(f PriceFeatures) bool {
			return f.Increase(domain.Minute10) > 50 && f.Increase(domain.Minute30) > 100
		}},
		{domain.PatternSteadyClimb, func(f PriceFeatures) bool {
			return f.Increase(domain.Minute30) > 50 && f.Efficiency > 30
		}},
		{domain.PatternStaircase, func(f PriceFeatures) bool {
			return len(f.Consolidations) > 3 && len(f.Breakouts) > 2
		}},
		{domain.PatternVolatileGrowth, func(f PriceFeatures) bool {
			return f.MeanAbsReturn > 10
		}},
		{domain.PatternSlowBurn, func(f PriceFeatures) bool {
			return f.Increase(domain.Minute60) > 30
		}},
	},
	Fallback: domain.PatternMixed,
}

// CombinedRules labels the price series in the combined scorer.
var CombinedRules = RuleTable{
	Rules: []Rule{
		{domain.PatternUnknown, func(f PriceFeatures) bool {
			return f.Candles == 0
		}},
		{domain.PatternExplosiveGrowth, func(f PriceFeatures) bool {
			return f.Increase(domain.Minute10) > 200 && f.Increase(domain.Minute30) > 400
		}},
		{domain.PatternSteadyClimb, func(f PriceFeatures) bool {
			return f.Increase(domain.Minute30) > 200
		}},
		{domain.PatternVolatile, func(f PriceFeatures) bool {
			return f.MaxIncrease > 100
		}},
	},
	Fallback: domain.PatternSlow,
}
