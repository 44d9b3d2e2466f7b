package reporting

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/metrics"
)

// Generator produces reports from aggregated batches.
type Generator struct {
	aggregator *metrics.Aggregator
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. aggregator is only needed by Generate.
func NewGenerator(aggregator *metrics.Aggregator) *Generator {
	return &Generator{
		aggregator: aggregator,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate aggregates a stored batch and builds its report.
func (g *Generator) Generate(ctx context.Context, batchID, variant string) (*Report, error) {
	if g.aggregator == nil {
		return nil, fmt.Errorf("generate report: no aggregator")
	}
	batch, err := g.aggregator.AggregateStored(ctx, batchID, variant)
	if err != nil {
		return nil, fmt.Errorf("aggregate batch %s/%s: %w", batchID, variant, err)
	}
	return g.FromBatch(batch), nil
}

// FromBatch builds a report from an already aggregated batch.
func (g *Generator) FromBatch(batch domain.Batch) *Report {
	r := &Report{
		GeneratedAt: g.now(),
		BatchID:     batch.ID,
		Variant:     batch.Variant,
		Summary: SummarySection{
			Count:    batch.Stats.Count,
			Total:    batch.Stats.Total,
			Labels:   labelRows(batch.Stats.Labels),
			Patterns: patternRows(batch.Stats.Patterns),
			WithETA:  batch.Stats.WithETA,
			MeanETA:  batch.Stats.MeanETA,
		},
		Top:        candidateRows(batch.Top),
		Imminent:   candidateRows(batch.Imminent),
		SubScores:  distributionRows(batch.Stats.SubScores),
		Thresholds: thresholdRows(batch.Thresholds),
		Batch:      batch,
	}
	return r
}

func candidateRows(records []domain.ScoreRecord) []CandidateRow {
	rows := make([]CandidateRow, len(records))
	for i, rec := range records {
		eta := "-"
		if rec.ETAMinutes != nil {
			eta = strconv.Itoa(*rec.ETAMinutes)
		}
		rows[i] = CandidateRow{
			Rank:     i + 1,
			TokenID:  rec.TokenID,
			Symbol:   rec.Symbol,
			Total:    rec.Total,
			Label:    rec.Label,
			Pattern:  rec.Pattern,
			ETA:      eta,
			Signals:  len(rec.Signals),
			Warnings: len(rec.Warnings),
		}
	}
	return rows
}

func distributionRows(m map[string]domain.Summary) []DistributionRow {
	rows := make([]DistributionRow, 0, len(m))
	for name, s := range m {
		rows = append(rows, DistributionRow{Name: name, Summary: s})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}

func thresholdRows(th domain.ThresholdSet) []ThresholdRow {
	rows := make([]ThresholdRow, 0, len(th.High))
	for metric, high := range th.High {
		rows = append(rows, ThresholdRow{
			Metric: metric,
			High:   high,
			Medium: th.Medium[metric],
			Low:    th.Low[metric],
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Metric < rows[j].Metric })
	return rows
}
