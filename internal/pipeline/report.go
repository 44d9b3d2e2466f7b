package pipeline

import (
	"fmt"

	"graduation-lab/internal/reporting"
)

// WriteReports renders every batch of a scan into dir, attaching the scan's
// data quality checks to each report.
func WriteReports(dir string, gen *reporting.Generator, res *Result) ([]reporting.Files, error) {
	out := make([]reporting.Files, 0, len(res.Batches))
	for _, batch := range res.Batches {
		r := gen.FromBatch(batch)
		r.Quality = qualityRows(res.Quality)
		r.QualityErrors = res.Quality.Errors

		files, err := reporting.WriteFiles(dir, r)
		if err != nil {
			return out, fmt.Errorf("write %s report: %w", batch.Variant, err)
		}
		out = append(out, files)
	}
	return out, nil
}

func qualityRows(s SufficiencyResult) []reporting.QualityRow {
	rows := make([]reporting.QualityRow, len(s.Checks))
	for i, c := range s.Checks {
		rows[i] = reporting.QualityRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
	}
	return rows
}
