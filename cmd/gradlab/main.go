// Package main is the gradlab CLI: collect launchpad tokens, score their
// graduation likelihood and write batch reports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Persistent flags shared by every subcommand.
var (
	envFile       string
	logLevel      string
	scoringConfig string
	outputDir     string
)

var rootCmd = &cobra.Command{
	Use:   "gradlab",
	Short: "Graduation likelihood scoring for bonding-curve tokens",
	Long: `gradlab scans recently launched bonding-curve tokens, pulls their
one-minute candles and scores how likely each one is to graduate.

Configuration is read from the environment and an optional .env file.
Flags override the environment.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file (ignored when missing)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&scoringConfig, "scoring-config", "", "Scoring YAML override (default $SCORING_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "Report directory override (default $OUTPUT_DIR)")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
		cancel()

		// Second signal exits immediately.
		<-sigCh
		os.Exit(1)
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
