package domain

import "time"

// Summary describes one numeric field across a batch.
type Summary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Stddev float64 `json:"stddev"` // sample standard deviation
}

// BatchStats aggregates a batch of score records.
type BatchStats struct {
	Count        int                `json:"count"`
	Total        Summary            `json:"total"`
	SubScores    map[string]Summary `json:"subScores"`
	Metrics      map[string]Summary `json:"metrics"`
	Labels       map[string]int     `json:"labels"`
	Patterns     map[string]int     `json:"patterns"`
	WithETA      int                `json:"withEta"`
	MeanETA      float64            `json:"meanEta"`
	ImminentSize int                `json:"imminent"`
}

// ThresholdSet holds three-tier thresholds derived from batch means.
type ThresholdSet struct {
	High   map[string]float64 `json:"high"`
	Medium map[string]float64 `json:"medium"`
	Low    map[string]float64 `json:"low"`
}

// Batch is the aggregate of one scoring run for one variant.
type Batch struct {
	ID          string        `json:"id"`
	Variant     string        `json:"variant"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Sorted      []ScoreRecord `json:"sorted"`
	Top         []ScoreRecord `json:"top"`
	Imminent    []ScoreRecord `json:"imminent"`
	Stats       BatchStats    `json:"stats"`
	Thresholds  ThresholdSet  `json:"thresholds"`
}
