package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"graduation-lab/internal/domain"
)

// Files lists the paths written for one report.
type Files struct {
	JSON     string
	Markdown string
	CSV      string
}

// BatchFileName is the JSON export name for a batch generated at unixMs.
func BatchFileName(variant string, unixMs int64) string {
	return fmt.Sprintf("%s-graduation-batch-%d.json", variant, unixMs)
}

// WriteFiles writes the JSON batch, the Markdown report and the CSV of ranked
// records into dir, creating it if needed.
func WriteFiles(dir string, r *Report) (Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("create output dir: %w", err)
	}

	stamp := r.GeneratedAt.UnixMilli()
	files := Files{
		JSON:     filepath.Join(dir, BatchFileName(r.Variant, stamp)),
		Markdown: filepath.Join(dir, fmt.Sprintf("%s-graduation-report-%d.md", r.Variant, stamp)),
		CSV:      filepath.Join(dir, fmt.Sprintf("%s-graduation-scores-%d.csv", r.Variant, stamp)),
	}

	data, err := json.MarshalIndent(r.Batch, "", "  ")
	if err != nil {
		return Files{}, fmt.Errorf("marshal batch: %w", err)
	}
	if err := os.WriteFile(files.JSON, data, 0o644); err != nil {
		return Files{}, fmt.Errorf("write %s: %w", files.JSON, err)
	}

	if err := os.WriteFile(files.Markdown, []byte(RenderMarkdown(r)), 0o644); err != nil {
		return Files{}, fmt.Errorf("write %s: %w", files.Markdown, err)
	}

	csvData, err := RenderCSV(r.Batch.Sorted)
	if err != nil {
		return Files{}, fmt.Errorf("render csv: %w", err)
	}
	if err := os.WriteFile(files.CSV, []byte(csvData), 0o644); err != nil {
		return Files{}, fmt.Errorf("write %s: %w", files.CSV, err)
	}

	return files, nil
}

// ReadBatchFile loads a JSON batch written by WriteFiles.
func ReadBatchFile(path string) (domain.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Batch{}, err
	}
	var batch domain.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return domain.Batch{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return batch, nil
}
