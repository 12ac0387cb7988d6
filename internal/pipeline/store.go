package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ajanes93/feed-ai-sub001/internal/scoring"
	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

// Store is the persistence surface the orchestrator needs. *db.DB satisfies
// it; tests substitute an in-memory fake.
type Store interface {
	SnapshotByDate(ctx context.Context, date time.Time) (*types.ScoreSnapshot, error)
	LatestSnapshot(ctx context.Context) (*types.ScoreSnapshot, error)
	LatestScoredSnapshot(ctx context.Context) (*types.ScoreSnapshot, error)
	History(ctx context.Context, limit int) ([]types.ScoreSnapshot, error)
	InsertSnapshot(ctx context.Context, snap *types.ScoreSnapshot) error
	DeleteSnapshot(ctx context.Context, date time.Time) error

	UnscoredEvidence(ctx context.Context) ([]types.EvidenceItem, error)
	MarkEvidenceScored(ctx context.Context, ids []string, date time.Time) error
	UnmarkEvidenceForDate(ctx context.Context, date time.Time) error

	LatestExternalData(ctx context.Context, keys []string) ([]types.ExternalSnapshot, error)
	SaveExternalData(ctx context.Context, key string, value json.RawMessage, fetchedAt time.Time) error

	SavePromptVersion(ctx context.Context, hash, promptText string, usedAt time.Time) error
	SaveUsage(ctx context.Context, date time.Time, rows []scoring.Usage) error

	StartCronRun(ctx context.Context, startedAt time.Time) (uuid.UUID, error)
	CompleteCronRun(ctx context.Context, id uuid.UUID, fetchStatus, scoreStatus, errMsg string) error
	CompletedRunExists(ctx context.Context, date time.Time) (bool, error)
}

// ProviderCaller fans a composed prompt out to the configured providers.
type ProviderCaller interface {
	CallAll(ctx context.Context, prompt string) (*scoring.Result, error)
}
