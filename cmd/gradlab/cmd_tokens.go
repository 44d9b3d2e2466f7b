package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/ingestion"
	"graduation-lab/internal/storage"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List recently launched tokens of the dev address",
	Long: `Fetch the dev address's tokens, keep the ones created inside the
window and print them newest first. Snapshots are stored when POSTGRES_DSN
is set.

Examples:
  gradlab tokens
  gradlab tokens --window 30m --graduated
  gradlab tokens --json
  gradlab tokens --mint <address>   # latest stored snapshot`,
	RunE: runTokens,
}

var (
	tokensWindow    time.Duration
	tokensMaxPages  int
	tokensGraduated bool
	tokensJSON      bool
	tokensMint      string
)

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().DurationVar(&tokensWindow, "window", 0, "Creation window (default $TOKEN_WINDOW)")
	tokensCmd.Flags().IntVar(&tokensMaxPages, "max-pages", ingestion.DefaultMaxPages, "Maximum pages to fetch")
	tokensCmd.Flags().BoolVar(&tokensGraduated, "graduated", false, "List graduated tokens instead of live ones")
	tokensCmd.Flags().BoolVar(&tokensJSON, "json", false, "Print snapshots as JSON")
	tokensCmd.Flags().StringVar(&tokensMint, "mint", "", "Show the latest stored snapshot of a mint instead of fetching")
}

func runTokens(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if tokensMint != "" {
		snap, err := a.snapshots.GetLatest(ctx, tokensMint)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no stored snapshot for %s", tokensMint)
		}
		if err != nil {
			return err
		}
		if tokensJSON {
			return printJSON(snap)
		}
		printSnapshots([]domain.TokenSnapshot{snap})
		return nil
	}

	window := a.cfg.Window
	if tokensWindow > 0 {
		window = tokensWindow
	}
	col, err := a.collect(ctx, window, tokensMaxPages)
	if err != nil {
		return err
	}

	snaps := ingestion.NonGraduated(col.Snapshots)
	if tokensGraduated {
		snaps = ingestion.Graduated(col.Snapshots)
	}

	if tokensJSON {
		return printJSON(snaps)
	}

	fmt.Printf("Batch %s: %d tokens from %d pages (%d fetched)\n\n", col.BatchID, len(snaps), col.Pages, col.Fetched)
	printSnapshots(snaps)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSnapshots(snaps []domain.TokenSnapshot) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tMINT\tAGE (MIN)\tMCAP\tHOLDERS\tGRADUATED")
	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%.0f\t%d\t%t\n",
			s.Symbol, s.ID, s.MinutesAgo, s.MarketCap, s.HolderCount, s.IsGraduated)
	}
	w.Flush()
}
