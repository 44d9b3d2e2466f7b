package reporting

import (
	"sort"
	"time"

	"graduation-lab/internal/domain"
)

// Report is the rendered view of one scored batch.
type Report struct {
	GeneratedAt time.Time
	BatchID     string
	Variant     string

	Summary    SummarySection
	Top        []CandidateRow
	Imminent   []CandidateRow
	SubScores  []DistributionRow // sorted by name
	Thresholds []ThresholdRow    // sorted by metric

	// Data quality of the scan behind the batch; empty when unknown.
	Quality       []QualityRow
	QualityErrors []string

	// Batch is kept for the JSON export.
	Batch domain.Batch
}

// SummarySection describes the batch as a whole.
type SummarySection struct {
	Count    int
	Total    domain.Summary
	Labels   []CountRow // ordered by label rank, then name
	Patterns []CountRow // ordered by count desc, then name
	WithETA  int
	MeanETA  float64
}

// QualityRow is one data sufficiency check.
type QualityRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// CountRow is one histogram bucket.
type CountRow struct {
	Name  string
	Count int
}

// CandidateRow is one token in a ranked table.
type CandidateRow struct {
	Rank     int
	TokenID  string
	Symbol   string
	Total    float64
	Label    string
	Pattern  string
	ETA      string // "-" when no estimate
	Signals  int
	Warnings int
}

// DistributionRow summarizes one sub-score across the batch.
type DistributionRow struct {
	Name    string
	Summary domain.Summary
}

// ThresholdRow is one metric's three calibrated tiers.
type ThresholdRow struct {
	Metric string
	High   float64
	Medium float64
	Low    float64
}

var labelRank = map[string]int{
	domain.LabelVeryHigh: 0,
	domain.LabelHigh:     1,
	domain.LabelMedium:   2,
	domain.LabelLow:      3,
	domain.LabelVeryLow:  4,
}

func labelRows(labels map[string]int) []CountRow {
	rows := countRows(labels)
	sort.SliceStable(rows, func(i, j int) bool {
		ri, iok := labelRank[rows[i].Name]
		rj, jok := labelRank[rows[j].Name]
		if iok != jok {
			return iok
		}
		if ri != rj {
			return ri < rj
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

func patternRows(patterns map[string]int) []CountRow {
	rows := countRows(patterns)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

func countRows(m map[string]int) []CountRow {
	rows := make([]CountRow, 0, len(m))
	for name, n := range m {
		rows = append(rows, CountRow{Name: name, Count: n})
	}
	return rows
}
