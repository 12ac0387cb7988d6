// Package pipeline orchestrates the daily index update: idempotency check,
// decay when no evidence arrived, or the full compose/call/aggregate scoring
// run. The orchestrator is stateless per invocation; everything it needs is
// loaded from the store at the start of each run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/ajanes93/feed-ai-sub001/internal/config"
	"github.com/ajanes93/feed-ai-sub001/internal/db"
	"github.com/ajanes93/feed-ai-sub001/internal/evidence"
	"github.com/ajanes93/feed-ai-sub001/internal/scoring"
	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

// DecayPromptHash is the sentinel recorded on decay snapshots, which never
// invoke a provider and therefore have no real prompt.
const DecayPromptHash = "0000000000000000"

// historyDays is how many snapshots of history feed the evidence packet.
const historyDays = 14

// minSignals is the minimum signal count the output contract asks each
// provider for.
const minSignals = 3

// Data-quality flags recorded on snapshots built from degraded inputs.
const (
	FlagStaleExternal     = "stale_external_data"
	FlagMissingExternal   = "missing_external_data"
	FlagSparseEvidence    = "sparse_evidence"
	FlagFewPillars        = "few_populated_pillars"
	FlagDegradedConsensus = "degraded_consensus"
	FlagNoHistory         = "no_history"
)

// DailyResult is what a daily update returns to its caller.
type DailyResult struct {
	Score         float64   `json:"score"`
	Delta         float64   `json:"delta"`
	Date          time.Time `json:"date"`
	AlreadyExists bool      `json:"already_exists,omitempty"`
	IsDecay       bool      `json:"is_decay,omitempty"`
}

// Orchestrator runs the daily update state machine.
type Orchestrator struct {
	Store      Store
	Caller     ProviderCaller
	Policy     config.Policy
	Weights    map[string]float64
	Primary    string
	SourceKeys []string
	Verbose    bool
}

// RunDailyUpdate performs the update for now's calendar day.
// An existing snapshot is returned unchanged with AlreadyExists set and no
// provider calls. With no new evidence the decay path runs; otherwise the
// full scoring path.
func (o *Orchestrator) RunDailyUpdate(ctx context.Context, now time.Time) (*DailyResult, error) {
	today := types.DateOnly(now)

	existing, err := o.Store.SnapshotByDate(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing snapshot: %w", err)
	}
	if existing != nil {
		return &DailyResult{
			Score:         existing.Score,
			Delta:         existing.Delta,
			Date:          existing.Date,
			AlreadyExists: true,
			IsDecay:       existing.IsDecay,
		}, nil
	}

	items, err := o.Store.UnscoredEvidence(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load evidence: %w", err)
	}
	if len(items) == 0 {
		return o.runDecay(ctx, today)
	}
	return o.runScoringPath(ctx, now, items)
}

// runDecay nudges the score toward the neutral target once the evidence
// drought passes the threshold. The drought is measured from the last
// evidence-based snapshot: the delta=0 decay snapshots written on quiet days
// must not reset it. Decay snapshots keep one decimal of precision so
// repeated small nudges are visible.
func (o *Orchestrator) runDecay(ctx context.Context, today time.Time) (*DailyResult, error) {
	prev, err := o.Store.LatestSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	scored, err := o.Store.LatestScoredSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest scored snapshot: %w", err)
	}

	prevScore := o.Policy.NeutralTarget
	prevTechnical := o.Policy.NeutralTarget
	prevEconomic := o.Policy.NeutralTarget
	daysSince := o.Policy.DecayThresholdDays // no evidence-based history decays immediately
	var flags []string
	if prev != nil {
		prevScore = prev.Score
		prevTechnical = prev.ScoreTechnical
		prevEconomic = prev.ScoreEconomic
	} else {
		flags = append(flags, FlagNoHistory)
	}
	if scored != nil {
		daysSince = int(today.Sub(types.DateOnly(scored.Date)).Hours() / 24)
	}

	var delta float64
	if daysSince >= o.Policy.DecayThresholdDays {
		delta = decayStep(prevScore, o.Policy.NeutralTarget, o.Policy.DecayStep)
	}

	score := o.clampScore(round1(prevScore + delta))
	snap := &types.ScoreSnapshot{
		Date:             today,
		Score:            score,
		ScoreTechnical:   o.clampScore(round1(prevTechnical + decayTowards(prevTechnical, o.Policy.NeutralTarget, delta))),
		ScoreEconomic:    o.clampScore(round1(prevEconomic + decayTowards(prevEconomic, o.Policy.NeutralTarget, delta))),
		Delta:            delta,
		Analysis:         "No new evidence arrived; the score drifted toward neutral.",
		PromptHash:       DecayPromptHash,
		IsDecay:          true,
		DataQualityFlags: flags,
	}
	if delta == 0 {
		snap.Analysis = "No new evidence arrived; the score held."
	}

	if err := o.persistSnapshot(ctx, snap); err != nil {
		return o.recoverExistingSnapshot(ctx, today, err)
	}
	if o.Verbose {
		log.Printf("Decay update: score %.1f (%+.1f), %d evidence-free days", score, delta, daysSince)
	}
	return &DailyResult{Score: score, Delta: delta, Date: today, IsDecay: true}, nil
}

// decayStep returns the signed nudge toward target, zero when already there.
func decayStep(score, target, step float64) float64 {
	switch {
	case score > target:
		return -step
	case score < target:
		return step
	default:
		return 0
	}
}

// decayTowards applies the composite decay direction to a sub-score only
// when the composite moved; a held composite holds the sub-scores too.
func decayTowards(score, target, compositeDelta float64) float64 {
	if compositeDelta == 0 {
		return 0
	}
	return decayStep(score, target, math.Abs(compositeDelta))
}

// runScoringPath composes the packet, fans out to providers, aggregates the
// consensus, and persists the snapshot with all dependent rows.
func (o *Orchestrator) runScoringPath(ctx context.Context, now time.Time, items []types.EvidenceItem) (*DailyResult, error) {
	today := types.DateOnly(now)

	// Cross-source funding duplicates collapse before composition, but every
	// delivered item is still marked scored below.
	deduped := evidence.Dedupe(items)

	prev, err := o.Store.LatestSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	history, err := o.Store.History(ctx, historyDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	external, err := o.Store.LatestExternalData(ctx, o.SourceKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to load external data: %w", err)
	}

	packet := evidence.Compose(evidence.Input{
		Previous:   prev,
		History:    history,
		Evidence:   deduped,
		External:   external,
		MinSignals: minSignals,
	})

	result, err := o.Caller.CallAll(ctx, packet.Prompt)
	if result != nil && len(result.Usage) > 0 {
		if usageErr := o.Store.SaveUsage(ctx, today, result.Usage); usageErr != nil {
			log.Printf("Warning: failed to save usage telemetry: %v", usageErr)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("scoring run failed: %w", err)
	}

	update := scoring.Aggregate(result.Scores, scoring.Options{
		Weights:         o.Weights,
		DampeningFactor: o.Policy.DampeningFactor,
		MaxRawDelta:     o.Policy.MaxRawDelta,
		MaxDailyDelta:   o.Policy.MaxDailyDelta,
		PrimaryProvider: o.Primary,
	})

	prevScore := o.Policy.NeutralTarget
	prevTechnical := o.Policy.NeutralTarget
	prevEconomic := o.Policy.NeutralTarget
	if prev != nil {
		prevScore = prev.Score
		prevTechnical = prev.ScoreTechnical
		prevEconomic = prev.ScoreEconomic
	}

	snap := &types.ScoreSnapshot{
		Date:             today,
		Score:            o.clampScore(math.Round(prevScore + update.Delta)),
		ScoreTechnical:   o.clampScore(math.Round(prevTechnical + update.TechnicalDelta)),
		ScoreEconomic:    o.clampScore(math.Round(prevEconomic + update.EconomicDelta)),
		Delta:            update.Delta,
		DeltaExplanation: update.DeltaExplanation,
		Analysis:         update.Analysis,
		Signals:          update.Signals,
		PillarScores:     update.PillarScores,
		ModelScores:      update.ModelScores,
		ModelAgreement:   update.Agreement,
		ModelSpread:      update.Spread,
		CapabilityGap:    capabilityGap(update.PillarScores),
		PromptHash:       packet.Hash,
		ExternalData:     external,
		DataQualityFlags: o.qualityFlags(now, deduped, external, len(result.Scores), len(result.Usage)),
	}

	if err := o.persistSnapshot(ctx, snap); err != nil {
		return o.recoverExistingSnapshot(ctx, today, err)
	}

	if err := o.Store.SavePromptVersion(ctx, packet.Hash, packet.Prompt, today); err != nil {
		log.Printf("Warning: failed to save prompt version: %v", err)
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	if err := o.Store.MarkEvidenceScored(ctx, ids, today); err != nil {
		log.Printf("Warning: failed to mark evidence scored: %v", err)
	}

	if o.Verbose {
		log.Printf("Scored update: score %.0f (%+.1f), agreement %s over %d providers",
			snap.Score, snap.Delta, snap.ModelAgreement, len(result.Scores))
	}
	return &DailyResult{Score: snap.Score, Delta: snap.Delta, Date: today}, nil
}

// RunScoring composes and scores the given evidence without persisting,
// returning the full consensus update. Used by admin rescore tooling.
func (o *Orchestrator) RunScoring(ctx context.Context, items []types.EvidenceItem) (*types.ScoreUpdate, error) {
	prev, err := o.Store.LatestSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	history, err := o.Store.History(ctx, historyDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	external, err := o.Store.LatestExternalData(ctx, o.SourceKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to load external data: %w", err)
	}

	packet := evidence.Compose(evidence.Input{
		Previous:   prev,
		History:    history,
		Evidence:   evidence.Dedupe(items),
		External:   external,
		MinSignals: minSignals,
	})

	result, err := o.Caller.CallAll(ctx, packet.Prompt)
	if err != nil {
		return nil, fmt.Errorf("scoring run failed: %w", err)
	}

	return scoring.Aggregate(result.Scores, scoring.Options{
		Weights:         o.Weights,
		DampeningFactor: o.Policy.DampeningFactor,
		MaxRawDelta:     o.Policy.MaxRawDelta,
		MaxDailyDelta:   o.Policy.MaxDailyDelta,
		PrimaryProvider: o.Primary,
	}), nil
}

// Rescore deletes today's snapshot and dependents, releases its evidence,
// and unconditionally re-runs the scoring path.
func (o *Orchestrator) Rescore(ctx context.Context, now time.Time) (*DailyResult, error) {
	today := types.DateOnly(now)

	if err := o.Store.DeleteSnapshot(ctx, today); err != nil {
		return nil, fmt.Errorf("failed to delete snapshot for rescore: %w", err)
	}
	if err := o.Store.UnmarkEvidenceForDate(ctx, today); err != nil {
		return nil, fmt.Errorf("failed to release evidence for rescore: %w", err)
	}

	items, err := o.Store.UnscoredEvidence(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load evidence: %w", err)
	}
	return o.runScoringPath(ctx, now, items)
}

// FetchFunc runs the external-data fetch phase for one tick.
type FetchFunc func(ctx context.Context) error

// RunScheduledTick handles one scheduler tick: skip if a fully successful
// run already completed today, otherwise run fetch then score, recording
// per-phase status. A failed fetch does not stop scoring; the snapshot just
// carries data-quality flags for whatever was missing.
func (o *Orchestrator) RunScheduledTick(ctx context.Context, now time.Time, fetch FetchFunc) (*DailyResult, error) {
	today := types.DateOnly(now)

	done, err := o.Store.CompletedRunExists(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to check completed runs: %w", err)
	}
	if done {
		existing, err := o.Store.SnapshotByDate(ctx, today)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing snapshot: %w", err)
		}
		if existing != nil {
			return &DailyResult{Score: existing.Score, Delta: existing.Delta, Date: existing.Date, AlreadyExists: true, IsDecay: existing.IsDecay}, nil
		}
		return nil, nil
	}

	runID, err := o.Store.StartCronRun(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to start cron run: %w", err)
	}

	fetchStatus := types.PhaseOK
	var phaseErrs []string
	if fetch != nil {
		if err := fetch(ctx); err != nil {
			fetchStatus = types.PhaseFailed
			phaseErrs = append(phaseErrs, fmt.Sprintf("fetch: %v", err))
			log.Printf("Error: fetch phase failed: %v", err)
		}
	} else {
		fetchStatus = types.PhaseSkipped
	}

	scoreStatus := types.PhaseOK
	result, scoreErr := o.RunDailyUpdate(ctx, now)
	if scoreErr != nil {
		scoreStatus = types.PhaseFailed
		phaseErrs = append(phaseErrs, fmt.Sprintf("score: %v", scoreErr))
		log.Printf("Error: score phase failed: %v", scoreErr)
	}

	errMsg := ""
	if len(phaseErrs) > 0 {
		errMsg = joinErrs(phaseErrs)
	}
	if err := o.Store.CompleteCronRun(ctx, runID, fetchStatus, scoreStatus, errMsg); err != nil {
		log.Printf("Warning: failed to record cron run completion: %v", err)
	}

	return result, scoreErr
}

func joinErrs(msgs []string) string {
	out := msgs[0]
	for _, msg := range msgs[1:] {
		out += "; " + msg
	}
	return out
}

// persistSnapshot inserts the snapshot, translating the unique-violation
// case into db.ErrSnapshotExists for the caller to recover.
func (o *Orchestrator) persistSnapshot(ctx context.Context, snap *types.ScoreSnapshot) error {
	return o.Store.InsertSnapshot(ctx, snap)
}

// recoverExistingSnapshot handles losing the insert race: another tick
// created today's snapshot between our check and our insert. The winner's
// snapshot is returned as alreadyExists.
func (o *Orchestrator) recoverExistingSnapshot(ctx context.Context, today time.Time, insertErr error) (*DailyResult, error) {
	if !errors.Is(insertErr, db.ErrSnapshotExists) {
		return nil, fmt.Errorf("failed to persist snapshot: %w", insertErr)
	}
	existing, err := o.Store.SnapshotByDate(ctx, today)
	if err != nil || existing == nil {
		return nil, fmt.Errorf("failed to persist snapshot: %w", insertErr)
	}
	return &DailyResult{
		Score:         existing.Score,
		Delta:         existing.Delta,
		Date:          existing.Date,
		AlreadyExists: true,
		IsDecay:       existing.IsDecay,
	}, nil
}

func (o *Orchestrator) clampScore(score float64) float64 {
	if score < o.Policy.MinScore {
		return o.Policy.MinScore
	}
	if score > o.Policy.MaxScore {
		return o.Policy.MaxScore
	}
	return score
}

// qualityFlags annotates a snapshot with the ways its inputs were degraded.
func (o *Orchestrator) qualityFlags(now time.Time, items []types.EvidenceItem, external []types.ExternalSnapshot, succeeded, attempted int) []string {
	var flags []string

	if len(external) == 0 {
		flags = append(flags, FlagMissingExternal)
	} else {
		for _, snap := range external {
			if snap.Stale(now, o.Policy.StaleAfter()) {
				flags = append(flags, FlagStaleExternal)
				break
			}
		}
		if len(external) < len(o.SourceKeys) {
			flags = append(flags, FlagMissingExternal)
		}
	}

	if len(items) < o.Policy.MinEvidenceItems {
		flags = append(flags, FlagSparseEvidence)
	}
	if populatedPillars(items) < o.Policy.MinPopulatedPillars {
		flags = append(flags, FlagFewPillars)
	}
	if succeeded < attempted {
		flags = append(flags, FlagDegradedConsensus)
	}
	return flags
}

func populatedPillars(items []types.EvidenceItem) int {
	seen := make(map[string]bool)
	for _, item := range items {
		for _, key := range types.PillarKeys() {
			if item.Pillar == key {
				seen[key] = true
			}
		}
	}
	return len(seen)
}

// capabilityGap summarizes the distance between what models can do and what
// the market has absorbed, from the merged pillar scores.
func capabilityGap(pillars types.PillarScores) string {
	capability, hasCapability := pillars[types.PillarCapability]
	labour, hasLabour := pillars[types.PillarLabourMarket]
	industry, hasIndustry := pillars[types.PillarIndustry]
	if !hasCapability || (!hasLabour && !hasIndustry) {
		return ""
	}

	var adoption float64
	switch {
	case hasLabour && hasIndustry:
		adoption = (labour + industry) / 2
	case hasLabour:
		adoption = labour
	default:
		adoption = industry
	}
	return fmt.Sprintf("capability %+.1f vs adoption %+.1f", capability, round1(adoption))
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
