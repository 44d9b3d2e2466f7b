package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"

	"graduation-lab/internal/domain"
)

var csvHeader = []string{
	"rank", "token_id", "symbol", "name", "variant", "total", "label", "pattern", "eta_minutes",
	"volume", "price", "momentum", "time", "signals", "warnings",
}

// RenderCSV renders ranked score records as CSV string.
// Signals and warnings are joined with "; ".
func RenderCSV(records []domain.ScoreRecord) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for i, r := range records {
		eta := ""
		if r.ETAMinutes != nil {
			eta = strconv.Itoa(*r.ETAMinutes)
		}
		row := []string{
			strconv.Itoa(i + 1),
			r.TokenID,
			r.Symbol,
			r.Name,
			r.Variant,
			formatFloat(r.Total),
			r.Label,
			r.Pattern,
			eta,
			formatFloat(r.SubScore(domain.SubVolume)),
			formatFloat(r.SubScore(domain.SubPrice)),
			formatFloat(r.SubScore(domain.SubMomentum)),
			formatFloat(r.SubScore(domain.SubTime)),
			strings.Join(r.Signals, "; "),
			strings.Join(r.Warnings, "; "),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return sb.String(), w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
