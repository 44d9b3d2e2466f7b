package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/storage"
)

// ErrNoRecords is returned when no score records are available for aggregation.
var ErrNoRecords = errors.New("no score records available for aggregation")

// ThresholdRule derives three threshold tiers from the batch mean of a metric.
// Name defaults to Metric; Scale converts the mean before the fractions apply.
type ThresholdRule struct {
	Name      string
	Metric    string
	Scale     float64
	Fractions [3]float64 // high, medium, low
}

// Options tune batch aggregation.
type Options struct {
	TopK          int
	ImminentScore float64 // minimum total for an imminent alert
	ImminentETA   int     // maximum ETA in minutes for an imminent alert
	Rules         []ThresholdRule
}

// DefaultThresholdRules returns the calibration rules: 80/50/30% of the mean
// checkpoint volumes and price increases, 70/40/20% for velocity and spikes.
func DefaultThresholdRules() []ThresholdRule {
	checkpointFractions := [3]float64{0.8, 0.5, 0.3}
	rateFractions := [3]float64{0.7, 0.4, 0.2}

	var rules []ThresholdRule
	for _, m := range []int{domain.Minute5, domain.Minute10, domain.Minute30, domain.Minute60} {
		rules = append(rules,
			ThresholdRule{Metric: domain.VolumeMetric(m), Scale: 1, Fractions: checkpointFractions},
			ThresholdRule{Metric: domain.PriceIncreaseMetric(m), Scale: 1, Fractions: checkpointFractions},
		)
	}
	rules = append(rules,
		ThresholdRule{Name: domain.MetricVelocity30, Metric: domain.VolumeMetric(domain.Minute30), Scale: 1.0 / 30, Fractions: rateFractions},
		ThresholdRule{Metric: domain.MetricVolumeSpikes, Scale: 1, Fractions: rateFractions},
	)
	return rules
}

// DefaultOptions returns the standard aggregation settings.
func DefaultOptions() Options {
	return Options{
		TopK:          10,
		ImminentScore: 70,
		ImminentETA:   30,
		Rules:         DefaultThresholdRules(),
	}
}

// Aggregator builds batch summaries from score records.
type Aggregator struct {
	opts  Options
	store storage.ScoreRecordStore
	clock func() time.Time
	newID func() string
}

// NewAggregator creates an aggregator. store may be nil when only Aggregate is used.
func NewAggregator(opts Options, store storage.ScoreRecordStore) *Aggregator {
	return &Aggregator{
		opts:  opts,
		store: store,
		clock: time.Now,
		newID: uuid.NewString,
	}
}

// WithClock sets a custom clock for deterministic testing.
func (a *Aggregator) WithClock(clock func() time.Time) *Aggregator {
	a.clock = clock
	return a
}

// Aggregate ranks the records and summarizes them. The input slice is not modified.
// Ties on total keep their input order.
func (a *Aggregator) Aggregate(variant string, records []domain.ScoreRecord) domain.Batch {
	sorted := make([]domain.ScoreRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total > sorted[j].Total
	})

	batch := domain.Batch{
		ID:          a.newID(),
		Variant:     variant,
		GeneratedAt: a.clock().UTC(),
		Sorted:      sorted,
		Top:         sorted[:min(a.opts.TopK, len(sorted))],
		Imminent:    []domain.ScoreRecord{},
		Stats:       computeStats(sorted),
		Thresholds:  computeThresholds(sorted, a.opts.Rules),
	}
	for _, r := range sorted {
		if r.Total >= a.opts.ImminentScore && r.ETAMinutes != nil && *r.ETAMinutes <= a.opts.ImminentETA {
			batch.Imminent = append(batch.Imminent, r)
		}
	}
	batch.Stats.ImminentSize = len(batch.Imminent)
	return batch
}

// AggregateStored loads a persisted batch and aggregates it.
// Returns ErrNoRecords if the batch has no records for the variant.
func (a *Aggregator) AggregateStored(ctx context.Context, batchID, variant string) (domain.Batch, error) {
	if a.store == nil {
		return domain.Batch{}, fmt.Errorf("aggregate stored batch: no score record store")
	}
	records, err := a.store.GetByBatch(ctx, batchID, variant)
	if err != nil {
		return domain.Batch{}, err
	}
	if len(records) == 0 {
		return domain.Batch{}, ErrNoRecords
	}
	batch := a.Aggregate(variant, records)
	batch.ID = batchID
	return batch, nil
}

func computeStats(records []domain.ScoreRecord) domain.BatchStats {
	stats := domain.BatchStats{
		Count:     len(records),
		SubScores: make(map[string]domain.Summary),
		Metrics:   make(map[string]domain.Summary),
		Labels:    make(map[string]int),
		Patterns:  make(map[string]int),
	}
	if len(records) == 0 {
		return stats
	}

	totals := make([]float64, len(records))
	var etas []float64
	for i, r := range records {
		totals[i] = r.Total
		stats.Labels[r.Label]++
		if r.Pattern != "" {
			stats.Patterns[r.Pattern]++
		}
		if r.ETAMinutes != nil {
			etas = append(etas, float64(*r.ETAMinutes))
		}
	}
	stats.Total = summarize(totals)
	stats.WithETA = len(etas)
	stats.MeanETA = mean(etas)

	for _, k := range unionKeys(records, subScoresOf) {
		stats.SubScores[k] = summarize(fieldValues(records, subScoresOf, k))
	}
	for _, k := range unionKeys(records, metricsOf) {
		stats.Metrics[k] = summarize(fieldValues(records, metricsOf, k))
	}
	return stats
}

func computeThresholds(records []domain.ScoreRecord, rules []ThresholdRule) domain.ThresholdSet {
	th := domain.ThresholdSet{
		High:   make(map[string]float64),
		Medium: make(map[string]float64),
		Low:    make(map[string]float64),
	}
	if len(records) == 0 {
		return th
	}
	for _, rule := range rules {
		avg := mean(fieldValues(records, metricsOf, rule.Metric)) * rule.Scale
		if avg <= 0 {
			continue
		}
		name := rule.Name
		if name == "" {
			name = rule.Metric
		}
		th.High[name] = avg * rule.Fractions[0]
		th.Medium[name] = avg * rule.Fractions[1]
		th.Low[name] = avg * rule.Fractions[2]
	}
	return th
}
