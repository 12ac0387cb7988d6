package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

// StartCronRun creates a scheduled-run record and returns its ID. Phase
// statuses start out failed and flip as phases complete.
func (db *DB) StartCronRun(ctx context.Context, startedAt time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO cron_runs (started_at, fetch_status, score_status)
		 VALUES ($1, $2, $2)
		 RETURNING id`,
		startedAt, types.PhaseFailed,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to start cron run: %w", err)
	}
	return id, nil
}

// CompleteCronRun records the final per-phase statuses and error for a run.
func (db *DB) CompleteCronRun(ctx context.Context, id uuid.UUID, fetchStatus, scoreStatus, errMsg string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE cron_runs
		 SET completed_at = NOW(), fetch_status = $1, score_status = $2, error = $3
		 WHERE id = $4`,
		fetchStatus, scoreStatus, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete cron run: %w", err)
	}
	return nil
}

// CompletedRunExists reports whether a scheduled run finished both phases
// successfully on the given date. Partial success does not count, so the
// next tick retries.
func (db *DB) CompletedRunExists(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (
		    SELECT 1 FROM cron_runs
		    WHERE started_at::date = $1 AND fetch_status = $2 AND score_status = $2
		 )`,
		types.DateOnly(date), types.PhaseOK,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check cron runs: %w", err)
	}
	return exists, nil
}
