package domain

import (
	"strconv"
	"time"
)

// Scorer variants.
const (
	VariantV1        = "v1"
	VariantV1Legacy  = "v1-legacy"
	VariantPrice     = "price"
	VariantV2        = "v2"
	VariantPredictor = "predictor"
)

// Probability labels.
const (
	LabelVeryHigh = "VERY HIGH"
	LabelHigh     = "HIGH"
	LabelMedium   = "MEDIUM"
	LabelLow      = "LOW"
	LabelVeryLow  = "VERY LOW"
)

// Growth pattern labels.
const (
	PatternExplosiveGrowth = "EXPLOSIVE_GROWTH"
	PatternSteadyClimb     = "STEADY_CLIMB"
	PatternStaircase       = "STAIRCASE"
	PatternVolatileGrowth  = "VOLATILE_GROWTH"
	PatternVolatile        = "VOLATILE"
	PatternSlowBurn        = "SLOW_BURN"
	PatternSlow            = "SLOW"
	PatternMixed           = "MIXED"
	PatternUnknown         = "unknown"
)

// ScoreRecord is the per-token output of a scorer.
// Corresponds to score_records table in PostgreSQL.
type ScoreRecord struct {
	TokenID    string             `json:"tokenId"`
	Symbol     string             `json:"symbol"`
	Name       string             `json:"name"`
	Variant    string             `json:"variant"`
	SubScores  map[string]float64 `json:"subScores"`
	Total      float64            `json:"total"`
	Label      string             `json:"label"`
	Pattern    string             `json:"pattern,omitempty"`
	ETAMinutes *int               `json:"etaMinutes"` // nil when no estimate
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Signals    []string           `json:"signals"`
	Warnings   []string           `json:"warnings"`
	BatchID    string             `json:"batchId,omitempty"`
	ScoredAt   time.Time          `json:"scoredAt,omitzero"`
}

// SubScore returns the named sub-score, 0 when absent.
func (r ScoreRecord) SubScore(name string) float64 {
	return r.SubScores[name]
}

// Metric returns the named metric, 0 when absent.
func (r ScoreRecord) Metric(name string) float64 {
	return r.Metrics[name]
}

// Sub-score names.
const (
	SubVolume    = "volume"
	SubPrice     = "price"
	SubMomentum  = "momentum"
	SubStability = "stability"
	SubHolders   = "holders"
	SubTime      = "time"
)

// Metric names shared by scorers and the aggregator.
const (
	MetricAgeMinutes       = "age_minutes"
	MetricCandles          = "candles"
	MetricCumulativeVolume = "cumulative_volume"
	MetricVelocity         = "velocity"
	MetricVelocity30       = "velocity_30m"
	MetricVolumeToTarget   = "volume_to_target"
	MetricMinutesToTarget  = "minutes_to_target"
	MetricVolumeSpikes     = "volume_spikes"
	MetricAccelerations    = "volume_accelerations"
	MetricEarlyVolume      = "early_volume"
	MetricRecentVolume     = "recent_volume"
	MetricBuyPressure      = "buy_pressure"
	MetricPriceChange      = "price_change"
	MetricMaxIncrease      = "max_increase"
	MetricMaxGreenRun      = "max_green_run"
	MetricVolatility       = "volatility"
	MetricMeanAbsReturn    = "mean_abs_return"
	MetricEfficiency       = "price_efficiency"
	MetricMaxDrawdown      = "max_drawdown"
	MetricPriceSpikes      = "price_spikes"
	MetricConsolidations   = "consolidations"
	MetricBreakouts        = "breakouts"
	MetricTimeTo2x         = "time_to_2x"
	MetricTimeTo3x         = "time_to_3x"
)

// VolumeMetric names the cumulative volume checkpoint at minute.
func VolumeMetric(minute int) string {
	return "volume_" + strconv.Itoa(minute) + "m"
}

// PriceIncreaseMetric names the price increase checkpoint at minute.
func PriceIncreaseMetric(minute int) string {
	return "price_increase_" + strconv.Itoa(minute) + "m"
}
