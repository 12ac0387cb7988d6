package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajanes93/feed-ai-sub001/internal/observability"
	"github.com/ajanes93/feed-ai-sub001/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one daily tick: fetch external data, then score",
	Long: `Runs one scheduler tick for today. External sources are fetched first,
then the daily update executes: an existing snapshot short-circuits, no new
evidence decays the score toward neutral, and new evidence triggers the full
multi-provider scoring run. A completed tick for today is skipped entirely.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runTickCmd,
}

var (
	runConfigPath  string
	runDatabaseURL string
	runSkipFetch   bool
	runUseBrowser  bool
	runVerbose     bool
)

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	runCmd.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runCmd.Flags().BoolVar(&runSkipFetch, "skip-fetch", false, "Skip the external data fetch phase")
	runCmd.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Use headless browser for client-rendered leaderboards (requires Chrome)")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(runCmd)
}

func runTickCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd, runConfigPath, runDatabaseURL, runUseBrowser, runVerbose)
	if err != nil {
		return err
	}

	a, err := newAgent(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var fetchPhase pipeline.FetchFunc
	if !runSkipFetch && len(cfg.Sources) > 0 {
		fetchPhase = func(ctx context.Context) error {
			return a.fetcher.FetchAll(ctx, cfg.Sources, time.Now())
		}
	}

	result, err := a.orch.RunScheduledTick(ctx, time.Now(), fetchPhase)
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Println("Tick already completed today; nothing to do.")
		return nil
	}

	printResult(ctx, a, result)
	return nil
}

// printResult reports the outcome, with full snapshot detail in verbose mode.
func printResult(ctx context.Context, a *agent, result *pipeline.DailyResult) {
	day := result.Date.Format("2006-01-02")
	switch {
	case result.AlreadyExists:
		fmt.Printf("Snapshot for %s already exists: score %.1f\n", day, result.Score)
	case result.IsDecay:
		fmt.Printf("Score for %s: %.1f (%+.1f, decay)\n", day, result.Score, result.Delta)
	default:
		fmt.Printf("Score for %s: %.1f (%+.1f)\n", day, result.Score, result.Delta)
	}

	if !a.cfg.Verbose {
		return
	}
	snap, err := a.database.SnapshotByDate(ctx, result.Date)
	if err != nil || snap == nil {
		return
	}
	printer := observability.NewPrinter(os.Stdout)
	printer.PrintSnapshot(snap)
	printer.PrintModelScores(snap.ModelScores)
	printer.PrintSignals(snap.Signals)
	printer.PrintExternalData(snap.ExternalData)
}
