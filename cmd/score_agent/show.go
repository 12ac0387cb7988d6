package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajanes93/feed-ai-sub001/internal/db"
	"github.com/ajanes93/feed-ai-sub001/internal/observability"
	"github.com/ajanes93/feed-ai-sub001/internal/pipeline"
	"github.com/ajanes93/feed-ai-sub001/internal/trend"
	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the latest snapshot and recent score trend",
	Long: `Prints a snapshot with its model scores and signals, plus the index
trend over recent history. Defaults to the latest snapshot; use --date for a
specific day.`,
	RunE: runShowCmd,
}

var (
	showConfigPath  string
	showDatabaseURL string
	showDate        string
	showSource      string
	showPrompt      bool
)

func init() {
	showCmd.Flags().StringVar(&showConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	showCmd.Flags().StringVar(&showDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	showCmd.Flags().StringVar(&showDate, "date", "", "Snapshot date (YYYY-MM-DD, defaults to latest)")
	showCmd.Flags().StringVar(&showSource, "source", "", "Print recent observations for one external source key instead of a snapshot")
	showCmd.Flags().BoolVar(&showPrompt, "prompt", false, "Also print the full prompt text the snapshot was scored with")

	rootCmd.AddCommand(showCmd)
}

func runShowCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd, showConfigPath, showDatabaseURL, false, false)
	if err != nil {
		return err
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if showSource != "" {
		history, err := database.ExternalHistory(ctx, showSource, 30)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Printf("No observations for source %q.\n", showSource)
			return nil
		}
		observability.NewPrinter(os.Stdout).PrintExternalData(history)
		return nil
	}

	var snap *types.ScoreSnapshot
	if showDate != "" {
		date, err := time.Parse("2006-01-02", showDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", showDate)
		}
		snap, err = database.SnapshotByDate(ctx, date)
		if err != nil {
			return err
		}
	} else {
		snap, err = database.LatestSnapshot(ctx)
		if err != nil {
			return err
		}
	}
	if snap == nil {
		fmt.Println("No snapshot found.")
		return nil
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintSnapshot(snap)
	printer.PrintModelScores(snap.ModelScores)
	printer.PrintSignals(snap.Signals)

	history, err := database.History(ctx, 30)
	if err != nil {
		return err
	}
	printScoreTrend(history)

	if showPrompt && snap.PromptHash != pipeline.DecayPromptHash {
		version, err := database.PromptVersionByHash(ctx, snap.PromptHash)
		if err != nil {
			return err
		}
		if version == nil {
			fmt.Printf("No prompt recorded for hash %s.\n", snap.PromptHash)
			return nil
		}
		fmt.Printf("\n--- prompt %s (first used %s) ---\n%s\n",
			version.Hash, version.FirstUsed.Format("2006-01-02"), version.PromptText)
	}
	return nil
}

// printScoreTrend summarizes the index's own recent movement the same way
// external series are summarized.
func printScoreTrend(history []types.ScoreSnapshot) {
	points := make([]trend.Point, len(history))
	for i, snap := range history {
		points[i] = trend.Point{Date: snap.Date, Value: snap.Score}
	}
	t := trend.Build(points)
	if t == nil {
		return
	}

	fmt.Printf("Trend: current %.1f", t.Current)
	if t.Change1w != nil {
		fmt.Printf(", 1w %+.1f%%", *t.Change1w)
	}
	if t.Change4w != nil {
		fmt.Printf(", 4w %+.1f%%", *t.Change4w)
	}
	fmt.Println()
}
