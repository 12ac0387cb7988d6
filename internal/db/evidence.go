package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

// InsertEvidence stores gathered evidence items, ignoring duplicates by ID.
// Returns the number of new rows.
func (db *DB) InsertEvidence(ctx context.Context, items []types.EvidenceItem) (int, error) {
	inserted := 0
	for _, item := range items {
		tag, err := db.pool.Exec(ctx,
			`INSERT INTO evidence (id, title, summary, pillar, source, url, amount, company, published_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO NOTHING`,
			item.ID, item.Title, item.Summary, item.Pillar, item.Source,
			item.URL, item.Amount, item.Company, item.PublishedAt,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert evidence %s: %w", item.ID, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// UnscoredEvidence retrieves evidence that has not yet fed a snapshot.
func (db *DB) UnscoredEvidence(ctx context.Context) ([]types.EvidenceItem, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, title, summary, pillar, source, url, amount, company, published_at
		 FROM evidence WHERE scored_at IS NULL ORDER BY published_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unscored evidence: %w", err)
	}
	defer rows.Close()

	var items []types.EvidenceItem
	for rows.Next() {
		var item types.EvidenceItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Summary, &item.Pillar, &item.Source,
			&item.URL, &item.Amount, &item.Company, &item.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evidence: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// MarkEvidenceScored stamps evidence items as consumed by the snapshot for
// the given date.
func (db *DB) MarkEvidenceScored(ctx context.Context, ids []string, date time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := db.pool.Exec(ctx,
		`UPDATE evidence SET scored_at = $1 WHERE id = ANY($2)`,
		types.DateOnly(date), ids,
	)
	if err != nil {
		return fmt.Errorf("failed to mark evidence scored: %w", err)
	}
	return nil
}

// UnmarkEvidenceForDate clears the scored stamp for a date, used when an
// admin rescore deletes that date's snapshot.
func (db *DB) UnmarkEvidenceForDate(ctx context.Context, date time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE evidence SET scored_at = NULL WHERE scored_at = $1`,
		types.DateOnly(date),
	)
	if err != nil {
		return fmt.Errorf("failed to unmark evidence: %w", err)
	}
	return nil
}
