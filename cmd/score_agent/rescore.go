package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Delete today's snapshot and re-run the scoring path",
	Long: `Admin operation: deletes today's snapshot with its dependent rows,
releases the evidence it consumed back to unscored, and re-runs the full
scoring path against all currently unscored evidence. The daily-delta cap
still applies to the replacement snapshot.`,
	RunE: runRescoreCmd,
}

var (
	rescoreConfigPath  string
	rescoreDatabaseURL string
	rescoreVerbose     bool
)

func init() {
	rescoreCmd.Flags().StringVar(&rescoreConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	rescoreCmd.Flags().StringVar(&rescoreDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rescoreCmd.Flags().BoolVarP(&rescoreVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(rescoreCmd)
}

func runRescoreCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd, rescoreConfigPath, rescoreDatabaseURL, false, rescoreVerbose)
	if err != nil {
		return err
	}

	a, err := newAgent(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.orch.Rescore(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("rescore failed: %w", err)
	}

	printResult(ctx, a, result)
	return nil
}
