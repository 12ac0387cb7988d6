package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

// PromptVersionByHash retrieves a stored prompt version, or nil if the hash
// has never been seen.
func (db *DB) PromptVersionByHash(ctx context.Context, hash string) (*types.PromptVersion, error) {
	var version types.PromptVersion
	err := db.pool.QueryRow(ctx,
		`SELECT hash, prompt_text, first_used, last_used
		 FROM prompt_versions WHERE hash = $1`,
		hash,
	).Scan(&version.Hash, &version.PromptText, &version.FirstUsed, &version.LastUsed)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get prompt version: %w", err)
	}
	return &version, nil
}

// SavePromptVersion records a prompt by hash, insert-if-absent. A known hash
// only refreshes last_used.
func (db *DB) SavePromptVersion(ctx context.Context, hash, promptText string, usedAt time.Time) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO prompt_versions (hash, prompt_text, first_used, last_used)
		 VALUES ($1, $2, $3, $3)
		 ON CONFLICT (hash) DO UPDATE SET last_used = $3`,
		hash, promptText, usedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save prompt version: %w", err)
	}
	return nil
}
