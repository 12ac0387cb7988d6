package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

// SaveExternalData records one fetched value. History is append-only across
// days; fetching the same key twice on one day updates that day's row.
func (db *DB) SaveExternalData(ctx context.Context, key string, value json.RawMessage, fetchedAt time.Time) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO external_data (key, day, value, fetched_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key, day) DO UPDATE SET value = $3, fetched_at = $4`,
		key, types.DateOnly(fetchedAt), value, fetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save external data %s: %w", key, err)
	}
	return nil
}

// LatestExternalData retrieves the newest stored value per key. A key with
// corrupt JSON is skipped with a warning so one bad key never breaks the
// others; missing keys are simply absent from the result.
func (db *DB) LatestExternalData(ctx context.Context, keys []string) ([]types.ExternalSnapshot, error) {
	var snapshots []types.ExternalSnapshot
	for _, key := range keys {
		var value []byte
		var fetchedAt time.Time
		err := db.pool.QueryRow(ctx,
			`SELECT value, fetched_at FROM external_data
			 WHERE key = $1 ORDER BY day DESC LIMIT 1`,
			key,
		).Scan(&value, &fetchedAt)
		if err != nil {
			if err == pgx.ErrNoRows {
				continue
			}
			return nil, fmt.Errorf("failed to get external data %s: %w", key, err)
		}
		if !json.Valid(value) {
			log.Printf("Warning: external data %s has corrupt JSON, skipping", key)
			continue
		}
		snapshots = append(snapshots, types.ExternalSnapshot{
			Key:       key,
			Value:     json.RawMessage(value),
			FetchedAt: fetchedAt,
		})
	}
	return snapshots, nil
}

// ExternalHistory retrieves up to limit stored values for one key,
// newest-first. Corrupt rows are skipped.
func (db *DB) ExternalHistory(ctx context.Context, key string, limit int) ([]types.ExternalSnapshot, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT value, fetched_at FROM external_data
		 WHERE key = $1 ORDER BY day DESC LIMIT $2`,
		key, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query external history %s: %w", key, err)
	}
	defer rows.Close()

	var history []types.ExternalSnapshot
	for rows.Next() {
		var value []byte
		var fetchedAt time.Time
		if err := rows.Scan(&value, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan external data: %w", err)
		}
		if !json.Valid(value) {
			log.Printf("Warning: external data %s has corrupt JSON row, skipping", key)
			continue
		}
		history = append(history, types.ExternalSnapshot{
			Key:       key,
			Value:     json.RawMessage(value),
			FetchedAt: fetchedAt,
		})
	}
	return history, nil
}
