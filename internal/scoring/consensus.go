package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

// signalKeyLength is how many lowercased characters of a signal's text form
// its dedup key.
const signalKeyLength = 50

// Options holds the consensus knobs. Weights are renormalized over the
// providers that actually responded.
type Options struct {
	Weights         map[string]float64
	DampeningFactor float64
	MaxRawDelta     float64
	MaxDailyDelta   float64
	PrimaryProvider string
}

// Aggregate merges all valid provider judgments into one consensus update.
// Returns nil when no judgments are available.
func Aggregate(scores []types.ModelScore, opts Options) *types.ScoreUpdate {
	if len(scores) == 0 {
		return nil
	}

	deltas := make([]float64, len(scores))
	for i, score := range scores {
		deltas[i] = score.SuggestedDelta
	}
	agreement, spread := ClassifyAgreement(deltas)

	dampen := func(raw float64) float64 {
		return Dampen(raw, opts.DampeningFactor, opts.MaxRawDelta, opts.MaxDailyDelta)
	}

	return &types.ScoreUpdate{
		Delta:          dampen(WeightedDelta(scores, opts.Weights, func(s types.ModelScore) float64 { return s.SuggestedDelta })),
		TechnicalDelta: dampen(WeightedDelta(scores, opts.Weights, func(s types.ModelScore) float64 { return s.TechnicalDelta })),
		EconomicDelta:  dampen(WeightedDelta(scores, opts.Weights, func(s types.ModelScore) float64 { return s.EconomicDelta })),
		Analysis:       Synthesize(scores, agreement, opts.PrimaryProvider),
		DeltaExplanation: PickPreferred(scores,
			func(s types.ModelScore) bool { return s.ProviderID == opts.PrimaryProvider },
			func(s types.ModelScore) string { return s.Notes }),
		Signals:      MergeSignals(scores),
		PillarScores: MergePillars(scores),
		ModelScores:  scores,
		Agreement:    agreement,
		Spread:       spread,
	}
}

// WeightedDelta computes the weighted mean of the extracted delta over the
// responding providers, with weights renormalized to those present. A single
// provider returns its raw delta unmodified. Providers without a configured
// weight fall back to a simple mean contribution.
func WeightedDelta(scores []types.ModelScore, weights map[string]float64, extract func(types.ModelScore) float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	if len(scores) == 1 {
		return extract(scores[0])
	}

	var weightedSum, totalWeight float64
	for _, score := range scores {
		weight := weights[score.ProviderID]
		weightedSum += weight * extract(score)
		totalWeight += weight
	}
	if totalWeight == 0 {
		var sum float64
		for _, score := range scores {
			sum += extract(score)
		}
		return sum / float64(len(scores))
	}
	return weightedSum / totalWeight
}

// Dampen applies the daily-movement cap to a raw consensus delta: clamp to
// the raw bound, scale, clamp to the daily bound, round to one decimal.
func Dampen(raw, factor, maxRaw, maxDaily float64) float64 {
	damped := clamp(raw, -maxRaw, maxRaw) * factor
	return round1(clamp(damped, -maxDaily, maxDaily))
}

// ClassifyAgreement labels consensus strength by the spread (max-min) of the
// per-provider suggested deltas. Fewer than two providers is "partial" with
// spread zero.
func ClassifyAgreement(deltas []float64) (string, float64) {
	if len(deltas) < 2 {
		return types.AgreementPartial, 0
	}

	min, max := deltas[0], deltas[0]
	for _, delta := range deltas[1:] {
		if delta < min {
			min = delta
		}
		if delta > max {
			max = delta
		}
	}
	spread := max - min

	switch {
	case spread < 1.0:
		return types.AgreementAgree, spread
	case spread <= 2.5:
		return types.AgreementMostlyAgree, spread
	default:
		return types.AgreementDisagree, spread
	}
}

// MergeSignals combines every provider's top signals, deduping on the
// lowercased first 50 characters of the text. The first occurrence wins;
// the merged list is sorted by absolute impact descending.
func MergeSignals(scores []types.ModelScore) []types.Signal {
	seen := make(map[string]bool)
	var merged []types.Signal
	for _, score := range scores {
		for _, signal := range score.TopSignals {
			key := signalKey(signal.Text)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, signal)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return math.Abs(merged[i].Impact) > math.Abs(merged[j].Impact)
	})
	return merged
}

func signalKey(text string) string {
	lowered := []rune(strings.ToLower(text))
	if len(lowered) > signalKeyLength {
		lowered = lowered[:signalKeyLength]
	}
	return string(lowered)
}

// MergePillars averages each pillar across providers, rounded to one
// decimal.
func MergePillars(scores []types.ModelScore) types.PillarScores {
	merged := make(types.PillarScores, len(types.PillarKeys()))
	for _, key := range types.PillarKeys() {
		var sum float64
		var count int
		for _, score := range scores {
			if value, ok := score.PillarScores[key]; ok {
				sum += value
				count++
			}
		}
		if count > 0 {
			merged[key] = round1(sum / float64(count))
		}
	}
	return merged
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
