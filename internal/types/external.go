package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExternalSnapshot is one observation of an external data source (benchmark
// leaderboard, labour-market series). History is append-only; the "latest"
// value for a key is the row with the most recent FetchedAt. A re-fetch on
// the same calendar day updates the existing row instead of duplicating it.
type ExternalSnapshot struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Stale reports whether the snapshot was fetched more than maxAge before now.
func (s ExternalSnapshot) Stale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.FetchedAt) > maxAge
}

// PromptVersion records a prompt text by its content-addressed hash so every
// snapshot can be audited against the exact prompt that produced it.
// Write-once per hash; only LastUsed advances.
type PromptVersion struct {
	Hash       string    `json:"hash"`
	PromptText string    `json:"prompt_text"`
	FirstUsed  time.Time `json:"first_used"`
	LastUsed   time.Time `json:"last_used"`
}

// Cron phase status values.
const (
	PhaseOK      = "ok"
	PhaseFailed  = "failed"
	PhaseSkipped = "skipped"
)

// CronRun records one scheduled tick. A date counts as completed only when
// both the fetch and score phases succeeded on that date.
type CronRun struct {
	ID          uuid.UUID  `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FetchStatus string     `json:"fetch_status"`
	ScoreStatus string     `json:"score_status"`
	Error       string     `json:"error,omitempty"`
}

// Completed reports whether both phases of the run succeeded.
func (r CronRun) Completed() bool {
	return r.FetchStatus == PhaseOK && r.ScoreStatus == PhaseOK
}
