package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajanes93/feed-ai-sub001/internal/db"
	"github.com/ajanes93/feed-ai-sub001/internal/external"
	"github.com/ajanes93/feed-ai-sub001/internal/observability"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and store external data sources without scoring",
	Long: `Fetches every configured external source (benchmark leaderboards,
agent leaderboards, labour-market series) and stores the parsed values.
Sources fail independently; successes are stored even when others fail.
No provider API keys are needed.`,
	RunE: runFetchCmd,
}

var (
	fetchConfigPath  string
	fetchDatabaseURL string
	fetchUseBrowser  bool
	fetchVerbose     bool
)

func init() {
	fetchCmd.Flags().StringVar(&fetchConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	fetchCmd.Flags().StringVar(&fetchDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	fetchCmd.Flags().BoolVar(&fetchUseBrowser, "use-browser", false, "Use headless browser for client-rendered leaderboards (requires Chrome)")
	fetchCmd.Flags().BoolVarP(&fetchVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(fetchCmd)
}

func runFetchCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd, fetchConfigPath, fetchDatabaseURL, fetchUseBrowser, fetchVerbose)
	if err != nil {
		return err
	}
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("no sources configured; add 'sources' to the config file")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	fetcher := external.NewFetcher(database)
	fetcher.UseBrowser = cfg.UseBrowser
	fetcher.Verbose = cfg.Verbose

	fetchErr := fetcher.FetchAll(ctx, cfg.Sources, time.Now())

	if cfg.Verbose {
		latest, err := database.LatestExternalData(ctx, sourceKeys(cfg.Sources))
		if err == nil {
			observability.NewPrinter(os.Stdout).PrintExternalData(latest)
		}
	}
	if fetchErr != nil {
		return fetchErr
	}

	fmt.Printf("Fetched %d sources.\n", len(cfg.Sources))
	return nil
}
