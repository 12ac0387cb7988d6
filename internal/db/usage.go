package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ajanes93/feed-ai-sub001/internal/scoring"
	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

// SaveUsage records provider-call telemetry rows for a scoring run.
// Failure rows are recorded the same as successes.
func (db *DB) SaveUsage(ctx context.Context, date time.Time, rows []scoring.Usage) error {
	day := types.DateOnly(date)
	for _, row := range rows {
		_, err := db.pool.Exec(ctx,
			`INSERT INTO usage_log (snapshot_date, provider_id, latency_ms, attempts, success, error)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			day, row.ProviderID, row.LatencyMS, row.Attempts, row.Success, row.Error,
		)
		if err != nil {
			return fmt.Errorf("failed to save usage for %s: %w", row.ProviderID, err)
		}
	}
	return nil
}
