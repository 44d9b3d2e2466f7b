package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Graduation Batch Report (%s)\n\n", r.Variant))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Batch: `%s` | Tokens scored: %d\n\n", r.BatchID, r.Summary.Count))

	// Data Quality
	if len(r.Quality) > 0 || len(r.QualityErrors) > 0 {
		sb.WriteString("## Data Quality\n\n")
		if len(r.Quality) > 0 {
			sb.WriteString("| Check | Threshold | Actual | Status |\n")
			sb.WriteString("|-------|-----------|--------|--------|\n")
			for _, check := range r.Quality {
				status := "FAIL"
				if check.Pass {
					status = "PASS"
				}
				sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
					check.Name, check.Threshold, check.Actual, status))
			}
			sb.WriteString("\n")
		}
		for _, e := range r.QualityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", e))
		}
		if len(r.QualityErrors) > 0 {
			sb.WriteString("\n")
		}
	}

	// Distribution
	sb.WriteString("## Score Distribution\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Mean | %.2f |\n", r.Summary.Total.Mean))
	sb.WriteString(fmt.Sprintf("| Median | %.2f |\n", r.Summary.Total.Median))
	sb.WriteString(fmt.Sprintf("| Min | %.2f |\n", r.Summary.Total.Min))
	sb.WriteString(fmt.Sprintf("| Max | %.2f |\n", r.Summary.Total.Max))
	sb.WriteString(fmt.Sprintf("| Stddev | %.2f |\n", r.Summary.Total.Stddev))
	sb.WriteString(fmt.Sprintf("| With ETA | %d |\n", r.Summary.WithETA))
	if r.Summary.WithETA > 0 {
		sb.WriteString(fmt.Sprintf("| Mean ETA (min) | %.1f |\n", r.Summary.MeanETA))
	}
	sb.WriteString("\n")

	if len(r.Summary.Labels) > 0 {
		sb.WriteString("### Labels\n\n")
		writeCounts(&sb, "Label", r.Summary.Labels, r.Summary.Count)
	}
	if len(r.Summary.Patterns) > 0 {
		sb.WriteString("### Patterns\n\n")
		writeCounts(&sb, "Pattern", r.Summary.Patterns, r.Summary.Count)
	}

	// Imminent alerts
	sb.WriteString("## Imminent Graduation Alerts\n\n")
	if len(r.Imminent) > 0 {
		writeCandidates(&sb, r.Imminent)
	} else {
		sb.WriteString("No imminent alerts.\n")
	}
	sb.WriteString("\n")

	// Top candidates
	sb.WriteString("## Top Candidates\n\n")
	if len(r.Top) > 0 {
		writeCandidates(&sb, r.Top)
	} else {
		sb.WriteString("No candidates scored.\n")
	}
	sb.WriteString("\n")

	// Sub-scores
	if len(r.SubScores) > 0 {
		sb.WriteString("## Sub-scores\n\n")
		sb.WriteString("| Sub-score | Mean | Median | Min | Max |\n")
		sb.WriteString("|-----------|------|--------|-----|-----|\n")
		for _, d := range r.SubScores {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %.2f |\n",
				d.Name, d.Summary.Mean, d.Summary.Median, d.Summary.Min, d.Summary.Max))
		}
		sb.WriteString("\n")
	}

	// Thresholds
	sb.WriteString("## Calibrated Thresholds\n\n")
	if len(r.Thresholds) > 0 {
		sb.WriteString("| Metric | High | Medium | Low |\n")
		sb.WriteString("|--------|------|--------|-----|\n")
		for _, th := range r.Thresholds {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f |\n", th.Metric, th.High, th.Medium, th.Low))
		}
	} else {
		sb.WriteString("No thresholds derived.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func writeCounts(sb *strings.Builder, title string, rows []CountRow, total int) {
	sb.WriteString(fmt.Sprintf("| %s | Count | Share |\n", title))
	sb.WriteString("|------|-------|-------|\n")
	for _, row := range rows {
		share := 0.0
		if total > 0 {
			share = float64(row.Count) / float64(total) * 100
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %.1f%% |\n", row.Name, row.Count, share))
	}
	sb.WriteString("\n")
}

func writeCandidates(sb *strings.Builder, rows []CandidateRow) {
	sb.WriteString("| # | Symbol | Token | Score | Label | Pattern | ETA (min) |\n")
	sb.WriteString("|---|--------|-------|-------|-------|---------|-----------|\n")
	for _, c := range rows {
		sb.WriteString(fmt.Sprintf("| %d | %s | `%s` | %.0f | %s | %s | %s |\n",
			c.Rank, c.Symbol, c.TokenID, c.Total, c.Label, c.Pattern, c.ETA))
	}
}
