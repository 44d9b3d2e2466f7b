package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"graduation-lab/internal/config"
	"graduation-lab/internal/scoring"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print or write the scoring configuration",
	Long: `Print the effective scoring configuration as YAML: the built-in
defaults overlaid with $SCORING_CONFIG or --scoring-config. With --write the
YAML is saved to a file instead, ready to be edited.

Examples:
  gradlab config
  gradlab config --write scoring.yaml`,
	RunE: runConfig,
}

var configWrite string

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().StringVar(&configWrite, "write", "", "Write the YAML to this path")
}

// runConfig does not connect any backend.
func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	path := cfg.ScoringConfig
	if scoringConfig != "" {
		path = scoringConfig
	}

	sc, err := scoring.LoadConfig(path)
	if err != nil {
		return err
	}
	if configWrite != "" {
		if err := sc.Save(configWrite); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", configWrite)
		return nil
	}

	data, err := sc.Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
