package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"graduation-lab/internal/ingestion"
	"graduation-lab/internal/pipeline"
	"graduation-lab/internal/reporting"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Fit scoring thresholds to tokens that already graduated",
	Long: `Score the dev address's graduated tokens over a long candle history and
write a scoring config whose combined and predictor thresholds come from that
batch. Review the file, then pass it to later scans with --scoring-config.

Examples:
  gradlab calibrate --out scoring.calibrated.yaml
  gradlab calibrate --limit 50 --max-pages 5`,
	RunE: runCalibrate,
}

var (
	calibrateOut      string
	calibrateLimit    int
	calibrateMaxPages int
)

func init() {
	rootCmd.AddCommand(calibrateCmd)

	calibrateCmd.Flags().StringVar(&calibrateOut, "out", "scoring.calibrated.yaml", "Path of the calibrated scoring config")
	calibrateCmd.Flags().IntVar(&calibrateLimit, "limit", 0, "Maximum graduated tokens to score (0 scores every token)")
	calibrateCmd.Flags().IntVar(&calibrateMaxPages, "max-pages", ingestion.DefaultMaxPages, "Maximum token pages to fetch")
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Graduated tokens are usually older than the live window.
	col, err := a.collect(ctx, -1, calibrateMaxPages)
	if err != nil {
		return err
	}

	agg := a.aggregator()
	res, err := pipeline.Calibrate(ctx, col.BatchID, col.Snapshots, pipeline.CalibrationOptions{
		Source:      a.source,
		Base:        a.scoring,
		Aggregator:  agg,
		CandleStore: a.candles,
		RecordStore: a.records,
		Metrics:     a.metrics,
		Logger:      &a.logger,
		Limit:       calibrateLimit,
	})
	if err != nil {
		return err
	}

	if err := res.Config.Save(calibrateOut); err != nil {
		return err
	}
	files, err := pipeline.WriteReports(a.cfg.OutputDir, reporting.NewGenerator(agg), res.Scan)
	if err != nil {
		return err
	}

	fmt.Printf("Calibrated from %d graduated tokens (batch %s)\n", res.Scan.Scored, res.Scan.BatchID)
	fmt.Printf("  v2 volume average @30m: %.0f\n", res.Config.V2.VolumeAverage.Min30)
	fmt.Printf("  v2 volume critical @30m: %.0f\n", res.Config.V2.VolumeCritical.Min30)
	fmt.Printf("  predictor target volume: %.0f\n", res.Config.Predictor.TotalVolumeTarget)
	fmt.Printf("Wrote %s\n", calibrateOut)
	for _, f := range files {
		fmt.Printf("Wrote %s\n", f.Markdown)
	}
	return nil
}
