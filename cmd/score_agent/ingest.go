package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ajanes93/feed-ai-sub001/internal/db"
	"github.com/ajanes93/feed-ai-sub001/internal/evidence"
	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load evidence items from a JSON file into the unscored pool",
	Long: `Reads a JSON array of evidence items and inserts them as unscored
evidence for the next daily run. Cross-source funding duplicates are collapsed
before insert; items already present (by ID) are skipped.`,
	RunE: runIngestCmd,
}

var (
	ingestConfigPath  string
	ingestDatabaseURL string
	ingestInputFile   string
)

func init() {
	ingestCmd.Flags().StringVar(&ingestConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	ingestCmd.Flags().StringVar(&ingestDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	ingestCmd.Flags().StringVarP(&ingestInputFile, "in", "i", "", "Path to JSON file containing an array of evidence items (required)")
	_ = ingestCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(ingestCmd)
}

func runIngestCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd, ingestConfigPath, ingestDatabaseURL, false, false)
	if err != nil {
		return err
	}

	items, err := loadEvidenceFile(ingestInputFile)
	if err != nil {
		return err
	}

	deduped := evidence.Dedupe(items)

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	inserted, err := database.InsertEvidence(ctx, deduped)
	if err != nil {
		return fmt.Errorf("failed to insert evidence: %w", err)
	}

	fmt.Printf("Inserted %d of %d items (%d duplicates collapsed, %d already present).\n",
		inserted, len(items), len(items)-len(deduped), len(deduped)-inserted)
	return nil
}

// loadEvidenceFile reads and validates the evidence array, filling missing
// IDs and publication timestamps.
func loadEvidenceFile(path string) ([]types.EvidenceItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read evidence file: %w", err)
	}

	var items []types.EvidenceItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse evidence JSON: %w", err)
	}

	now := time.Now().UTC()
	for i := range items {
		if items[i].Title == "" {
			return nil, fmt.Errorf("evidence item %d has no title", i)
		}
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		if items[i].PublishedAt.IsZero() {
			items[i].PublishedAt = now
		}
	}
	return items, nil
}
