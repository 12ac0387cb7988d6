// Package types defines the shared data model for the replacement index:
// daily score snapshots, per-provider judgments, signals, and the fixed
// five-pillar breakdown that feeds the composite score.
package types

import "time"

// Pillar keys for the five weighted sub-dimensions of the composite score.
const (
	PillarCapability   = "capability"
	PillarLabourMarket = "labour_market"
	PillarSentiment    = "sentiment"
	PillarIndustry     = "industry"
	PillarBarriers     = "barriers"
)

// PillarKeys returns the five pillar keys in canonical order.
func PillarKeys() []string {
	return []string{PillarCapability, PillarLabourMarket, PillarSentiment, PillarIndustry, PillarBarriers}
}

// PillarScores maps each of the five pillar keys to a score in [-5, 5].
type PillarScores map[string]float64

// Agreement labels classify consensus strength by the spread (max-min) of
// per-provider suggested deltas.
const (
	AgreementAgree       = "agree"
	AgreementMostlyAgree = "mostly_agree"
	AgreementDisagree    = "disagree"
	AgreementPartial     = "partial"
)

// Signal direction values.
const (
	DirectionUp      = "up"
	DirectionDown    = "down"
	DirectionNeutral = "neutral"
)

// Signal is a single piece of evidence cited by a provider or surfaced in a
// snapshot. Signals exist only inside a ScoreSnapshot or ModelScore.
type Signal struct {
	Text      string  `json:"text" validate:"required"`
	Direction string  `json:"direction" validate:"oneof=up down neutral"`
	Source    string  `json:"source,omitempty"`
	Impact    float64 `json:"impact" validate:"gte=-5,lte=5"`
	URL       string  `json:"url,omitempty"`
}

// ModelScore is one provider's judgment for a scoring run. Immutable once
// parsed from the raw response.
type ModelScore struct {
	ProviderID     string       `json:"provider_id"`
	PillarScores   PillarScores `json:"pillar_scores"`
	TechnicalDelta float64      `json:"technical_delta"`
	EconomicDelta  float64      `json:"economic_delta"`
	SuggestedDelta float64      `json:"suggested_delta"`
	Analysis       string       `json:"analysis"`
	TopSignals     []Signal     `json:"top_signals,omitempty" validate:"omitempty,dive"`
	Notes          string       `json:"notes,omitempty"`
}

// ScoreSnapshot is the single daily record of the composite index. At most
// one exists per calendar date; it is created once by the orchestrator and
// replaced wholesale only by an explicit admin rescore.
type ScoreSnapshot struct {
	Date             time.Time           `json:"date"`
	Score            float64             `json:"score"`
	ScoreTechnical   float64             `json:"score_technical"`
	ScoreEconomic    float64             `json:"score_economic"`
	Delta            float64             `json:"delta"`
	DeltaExplanation string              `json:"delta_explanation,omitempty"`
	Analysis         string              `json:"analysis"`
	Signals          []Signal            `json:"signals,omitempty"`
	PillarScores     PillarScores        `json:"pillar_scores,omitempty"`
	ModelScores      []ModelScore        `json:"model_scores,omitempty"`
	ModelAgreement   string              `json:"model_agreement,omitempty"`
	ModelSpread      float64             `json:"model_spread"`
	CapabilityGap    string              `json:"capability_gap,omitempty"`
	PromptHash       string              `json:"prompt_hash"`
	ExternalData     []ExternalSnapshot  `json:"external_data,omitempty"`
	IsDecay          bool                `json:"is_decay"`
	DataQualityFlags []string            `json:"data_quality_flags,omitempty"`
}

// DateOnly truncates t to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// ScoreUpdate is the merged consensus produced by the aggregator from all
// valid provider responses for one day.
type ScoreUpdate struct {
	Delta            float64      `json:"delta"`
	TechnicalDelta   float64      `json:"technical_delta"`
	EconomicDelta    float64      `json:"economic_delta"`
	Analysis         string       `json:"analysis"`
	DeltaExplanation string       `json:"delta_explanation,omitempty"`
	Signals          []Signal     `json:"signals,omitempty"`
	PillarScores     PillarScores `json:"pillar_scores,omitempty"`
	ModelScores      []ModelScore `json:"model_scores,omitempty"`
	Agreement        string       `json:"agreement"`
	Spread           float64      `json:"spread"`
}

// EvidenceItem is one unit of unscored evidence gathered since the previous
// snapshot. Feed ingestion and article storage are external collaborators;
// this is the shape they hand over.
type EvidenceItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Pillar      string    `json:"pillar,omitempty"`
	Source      string    `json:"source,omitempty"`
	URL         string    `json:"url,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Company     string    `json:"company,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
