package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/reporting"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Regenerate a batch report",
	Long: `Rebuild the Markdown, CSV and JSON outputs of a batch, either from a
batch JSON file written by an earlier scan or from score records stored in
PostgreSQL.

Examples:
  gradlab report --file reports/v2-graduation-batch-1760608800000.json
  gradlab report --batch 6f1c... --variant predictor`,
	RunE: runReport,
}

var (
	reportFile    string
	reportBatch   string
	reportVariant string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportFile, "file", "", "Batch JSON file to re-render")
	reportCmd.Flags().StringVar(&reportBatch, "batch", "", "Stored batch id")
	reportCmd.Flags().StringVar(&reportVariant, "variant", domain.VariantV2, "Scorer variant of the stored batch")
}

func runReport(cmd *cobra.Command, args []string) error {
	if (reportFile == "") == (reportBatch == "") {
		return errors.New("exactly one of --file or --batch is required")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	gen := reporting.NewGenerator(a.aggregator())
	var r *reporting.Report
	if reportFile != "" {
		batch, err := reporting.ReadBatchFile(reportFile)
		if err != nil {
			return err
		}
		r = gen.FromBatch(batch)
	} else {
		r, err = gen.Generate(ctx, reportBatch, reportVariant)
		if err != nil {
			return err
		}
	}

	files, err := reporting.WriteFiles(a.cfg.OutputDir, r)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", files.JSON)
	fmt.Printf("Wrote %s\n", files.Markdown)
	fmt.Printf("Wrote %s\n", files.CSV)
	return nil
}
