package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

const snapshotColumns = `date, score, score_technical, score_economic, delta,
	delta_explanation, analysis, signals, pillar_scores, model_agreement,
	model_spread, capability_gap, prompt_hash, external_data, is_decay,
	data_quality_flags`

// InsertSnapshot persists a snapshot and its per-provider rows in one
// transaction. Returns ErrSnapshotExists when the date already has one.
func (db *DB) InsertSnapshot(ctx context.Context, snap *types.ScoreSnapshot) error {
	signals, err := json.Marshal(snap.Signals)
	if err != nil {
		return fmt.Errorf("failed to marshal signals: %w", err)
	}
	pillars, err := json.Marshal(snap.PillarScores)
	if err != nil {
		return fmt.Errorf("failed to marshal pillar scores: %w", err)
	}
	external, err := json.Marshal(snap.ExternalData)
	if err != nil {
		return fmt.Errorf("failed to marshal external data: %w", err)
	}
	flags, err := json.Marshal(snap.DataQualityFlags)
	if err != nil {
		return fmt.Errorf("failed to marshal data quality flags: %w", err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO snapshots (`+snapshotColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		types.DateOnly(snap.Date), snap.Score, snap.ScoreTechnical, snap.ScoreEconomic, snap.Delta,
		snap.DeltaExplanation, snap.Analysis, signals, pillars, snap.ModelAgreement,
		snap.ModelSpread, snap.CapabilityGap, snap.PromptHash, external, snap.IsDecay, flags,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSnapshotExists
		}
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for _, score := range snap.ModelScores {
		scorePillars, err := json.Marshal(score.PillarScores)
		if err != nil {
			return fmt.Errorf("failed to marshal model pillar scores: %w", err)
		}
		topSignals, err := json.Marshal(score.TopSignals)
		if err != nil {
			return fmt.Errorf("failed to marshal top signals: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO model_scores (snapshot_date, provider_id, pillar_scores,
			     technical_delta, economic_delta, suggested_delta, analysis, top_signals, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			types.DateOnly(snap.Date), score.ProviderID, scorePillars,
			score.TechnicalDelta, score.EconomicDelta, score.SuggestedDelta,
			score.Analysis, topSignals, score.Notes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert model score for %s: %w", score.ProviderID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// SnapshotByDate retrieves the snapshot for a calendar day, or nil if none
// exists. Model scores are loaded alongside.
func (db *DB) SnapshotByDate(ctx context.Context, date time.Time) (*types.ScoreSnapshot, error) {
	return db.querySnapshot(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots WHERE date = $1`,
		types.DateOnly(date))
}

// LatestSnapshot retrieves the most recent snapshot, or nil when the index
// has no history yet.
func (db *DB) LatestSnapshot(ctx context.Context) (*types.ScoreSnapshot, error) {
	return db.querySnapshot(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots ORDER BY date DESC LIMIT 1`)
}

// LatestScoredSnapshot retrieves the most recent evidence-based snapshot,
// skipping decay snapshots. The evidence drought is measured from this date,
// so the daily decay snapshots themselves never reset it.
func (db *DB) LatestScoredSnapshot(ctx context.Context) (*types.ScoreSnapshot, error) {
	return db.querySnapshot(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots WHERE is_decay = false ORDER BY date DESC LIMIT 1`)
}

func (db *DB) querySnapshot(ctx context.Context, query string, args ...any) (*types.ScoreSnapshot, error) {
	snap, err := scanSnapshot(db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	scores, err := db.modelScoresByDate(ctx, snap.Date)
	if err != nil {
		return nil, err
	}
	snap.ModelScores = scores
	return snap, nil
}

// History retrieves up to limit snapshots newest-first. Model scores are not
// loaded; history is used for trend and prompt context only.
func (db *DB) History(ctx context.Context, limit int) ([]types.ScoreSnapshot, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots ORDER BY date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var history []types.ScoreSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		history = append(history, *snap)
	}
	return history, nil
}

// DeleteSnapshot removes a snapshot and all dependent rows for a date in one
// transaction. Dependents go first so a partial failure never orphans them.
func (db *DB) DeleteSnapshot(ctx context.Context, date time.Time) error {
	day := types.DateOnly(date)

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM model_scores WHERE snapshot_date = $1`, day); err != nil {
		return fmt.Errorf("failed to delete model scores: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM usage_log WHERE snapshot_date = $1`, day); err != nil {
		return fmt.Errorf("failed to delete usage rows: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM snapshots WHERE date = $1`, day); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*types.ScoreSnapshot, error) {
	var snap types.ScoreSnapshot
	var signals, pillars, external, flags []byte

	err := row.Scan(&snap.Date, &snap.Score, &snap.ScoreTechnical, &snap.ScoreEconomic, &snap.Delta,
		&snap.DeltaExplanation, &snap.Analysis, &signals, &pillars, &snap.ModelAgreement,
		&snap.ModelSpread, &snap.CapabilityGap, &snap.PromptHash, &external, &snap.IsDecay, &flags)
	if err != nil {
		return nil, err
	}

	// JSONB columns are tolerated individually so one corrupt column does
	// not lose the whole snapshot.
	_ = json.Unmarshal(signals, &snap.Signals)
	_ = json.Unmarshal(pillars, &snap.PillarScores)
	_ = json.Unmarshal(external, &snap.ExternalData)
	_ = json.Unmarshal(flags, &snap.DataQualityFlags)
	return &snap, nil
}

func (db *DB) modelScoresByDate(ctx context.Context, date time.Time) ([]types.ModelScore, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT provider_id, pillar_scores, technical_delta, economic_delta,
		        suggested_delta, analysis, top_signals, notes
		 FROM model_scores WHERE snapshot_date = $1 ORDER BY provider_id`,
		types.DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query model scores: %w", err)
	}
	defer rows.Close()

	var scores []types.ModelScore
	for rows.Next() {
		var score types.ModelScore
		var pillars, topSignals []byte
		if err := rows.Scan(&score.ProviderID, &pillars, &score.TechnicalDelta, &score.EconomicDelta,
			&score.SuggestedDelta, &score.Analysis, &topSignals, &score.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan model score: %w", err)
		}
		_ = json.Unmarshal(pillars, &score.PillarScores)
		_ = json.Unmarshal(topSignals, &score.TopSignals)
		scores = append(scores, score)
	}
	return scores, nil
}
