package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/pipeline"
	"graduation-lab/internal/reporting"
	"graduation-lab/internal/scoring"
	"graduation-lab/internal/storage"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score live tokens and write batch reports",
	Long: `Collect the dev address's recent tokens, fetch their one-minute candles,
score them with the selected variants and write a JSON batch, a Markdown
report and a CSV per variant.

With --replay the candles come from the candle store and the tokens from a
stored snapshot batch instead of the API.

Examples:
  gradlab score
  gradlab score --variants v1,v2,predictor --limit 20
  gradlab score --replay --batch 6f1c... --variants v2`,
	RunE: runScore,
}

var (
	scoreVariants         string
	scoreLimit            int
	scoreIncludeGraduated bool
	scoreWindow           time.Duration
	scoreMaxPages         int
	scoreReplay           bool
	scoreBatch            string
	scoreTop              int
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreVariants, "variants", "v1,v2,predictor", "Comma-separated scorer variants, or all")
	scoreCmd.Flags().IntVar(&scoreLimit, "limit", 0, "Maximum tokens to score (0 scores every token)")
	scoreCmd.Flags().BoolVar(&scoreIncludeGraduated, "include-graduated", false, "Also score tokens that already graduated")
	scoreCmd.Flags().DurationVar(&scoreWindow, "window", 0, "Creation window (default $TOKEN_WINDOW)")
	scoreCmd.Flags().IntVar(&scoreMaxPages, "max-pages", 0, "Maximum token pages to fetch (0 uses the collector default)")
	scoreCmd.Flags().BoolVar(&scoreReplay, "replay", false, "Score stored candles of a stored snapshot batch")
	scoreCmd.Flags().StringVar(&scoreBatch, "batch", "", "Snapshot batch id to replay")
	scoreCmd.Flags().IntVar(&scoreTop, "top", 10, "Candidates to print per variant")
}

func runScore(cmd *cobra.Command, args []string) error {
	variants, err := parseVariants(scoreVariants)
	if err != nil {
		return err
	}
	if scoreReplay && scoreBatch == "" {
		return fmt.Errorf("--replay requires --batch")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	scorers, err := scoring.NewSet(variants, a.scoring)
	if err != nil {
		return err
	}

	var (
		batchID string
		snaps   []domain.TokenSnapshot
		source  = a.source
		store   = a.candles
	)
	if scoreReplay {
		// A replay stores its records under a new batch id.
		batchID = uuid.NewString()
		snaps, err = a.snapshots.GetByBatch(ctx, scoreBatch)
		if err != nil {
			return fmt.Errorf("load snapshot batch %s: %w", scoreBatch, err)
		}
		if len(snaps) == 0 {
			return fmt.Errorf("snapshot batch %s is empty", scoreBatch)
		}
		source = storage.NewCandleSource(a.candles)
		store = nil
		a.logger.Info().Str("snapshot_batch", scoreBatch).Str("batch_id", batchID).Msg("replaying stored candles")
	} else {
		window := a.cfg.Window
		if scoreWindow > 0 {
			window = scoreWindow
		}
		col, err := a.collect(ctx, window, scoreMaxPages)
		if err != nil {
			return err
		}
		batchID = col.BatchID
		snaps = col.Snapshots
	}

	agg := a.aggregator()
	scanner, err := pipeline.NewScanner(pipeline.Options{
		Source:           source,
		Scorers:          scorers,
		Aggregator:       agg,
		CandleStore:      store,
		RecordStore:      a.records,
		Metrics:          a.metrics,
		Logger:           &a.logger,
		IncludeGraduated: scoreIncludeGraduated,
		Limit:            scoreLimit,
	})
	if err != nil {
		return err
	}

	res, err := scanner.Run(ctx, batchID, snaps)
	if err != nil {
		return err
	}

	files, err := pipeline.WriteReports(a.cfg.OutputDir, reporting.NewGenerator(agg), res)
	if err != nil {
		return err
	}

	fmt.Printf("Batch %s: scored %d of %d tokens, %d skipped\n", res.BatchID, res.Scored, res.Requested, len(res.Skipped))
	if !res.Quality.AllPass {
		fmt.Println("Warning: data quality checks failed, see the report")
	}
	for _, b := range res.Batches {
		fmt.Printf("\n== %s (%d imminent) ==\n", b.Variant, len(b.Imminent))
		printRecords(b.Sorted, scoreTop)
	}
	fmt.Println()
	for _, f := range files {
		fmt.Printf("Wrote %s\n", f.Markdown)
	}
	return nil
}

func printRecords(records []domain.ScoreRecord, n int) {
	if n > 0 && len(records) > n {
		records = records[:n]
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSYMBOL\tSCORE\tLABEL\tPATTERN\tETA")
	for i, r := range records {
		eta := "-"
		if r.ETAMinutes != nil {
			eta = fmt.Sprintf("%dm", *r.ETAMinutes)
		}
		fmt.Fprintf(w, "%d\t%s\t%.0f\t%s\t%s\t%s\n", i+1, r.Symbol, r.Total, r.Label, r.Pattern, eta)
	}
	w.Flush()
}
