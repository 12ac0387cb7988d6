package observability

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ajanes93/feed-ai-sub001/internal/scoring"
	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

func TestPrintSnapshot(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	snap := &types.ScoreSnapshot{
		Date:           time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
		Score:          33,
		Delta:          0.6,
		ScoreTechnical: 41,
		ScoreEconomic:  27,
		ModelAgreement: types.AgreementMostlyAgree,
		ModelSpread:    1.5,
		CapabilityGap:  "capability +2.0 vs adoption -0.5",
		PillarScores: types.PillarScores{
			types.PillarCapability:   2.0,
			types.PillarLabourMarket: -0.5,
		},
		DataQualityFlags: []string{"sparse_evidence"},
	}

	p.PrintSnapshot(snap)
	output := buf.String()

	assert.Contains(t, output, "DAILY SNAPSHOT")
	assert.Contains(t, output, "2026-08-25")
	assert.Contains(t, output, "33.0 (+0.6)")
	assert.Contains(t, output, "mostly_agree")
	assert.Contains(t, output, "capability")
	assert.Contains(t, output, "+2.0")
	assert.Contains(t, output, "sparse_evidence")
}

func TestPrintSnapshot_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSnapshot(nil)

	assert.Empty(t, buf.String())
}

func TestPrintSnapshot_Decay(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSnapshot(&types.ScoreSnapshot{
		Date:    time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
		Score:   49.9,
		Delta:   -0.1,
		IsDecay: true,
	})
	output := buf.String()

	assert.Contains(t, output, "decay")
	assert.NotContains(t, output, "spread")
}

func TestPrintModelScores(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintModelScores([]types.ModelScore{
		{ProviderID: "openai", SuggestedDelta: 2.5, Analysis: "Benchmarks jumped. More detail follows."},
		{ProviderID: "gemini", SuggestedDelta: -1.0, Analysis: "Hiring held steady."},
	})
	output := buf.String()

	assert.Contains(t, output, "MODEL SCORES")
	assert.Contains(t, output, "openai  +2.5")
	assert.Contains(t, output, "Benchmarks jumped.")
	assert.NotContains(t, output, "More detail follows")
	assert.Contains(t, output, "gemini  -1.0")
}

func TestPrintSignals(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	signals := []types.Signal{
		{Text: "SWE-bench top score rose 8 points", Direction: types.DirectionUp, Impact: 3.0, Source: "swe_bench"},
		{Text: "Junior job postings fell", Direction: types.DirectionDown, Impact: -1.5},
	}

	p.PrintSignals(signals)
	output := buf.String()

	assert.Contains(t, output, "TOP SIGNALS")
	assert.Contains(t, output, "↑ SWE-bench top score rose 8 points")
	assert.Contains(t, output, "impact +3.0")
	assert.Contains(t, output, "(swe_bench)")
	assert.Contains(t, output, "↓ Junior job postings fell")
}

func TestPrintSignals_TruncatesLongList(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	signals := make([]types.Signal, 8)
	for i := range signals {
		signals[i] = types.Signal{Text: "signal", Direction: types.DirectionNeutral}
	}

	p.PrintSignals(signals)

	assert.Contains(t, buf.String(), "... and 3 more signals")
}

func TestPrintExternalData(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintExternalData([]types.ExternalSnapshot{
		{
			Key:       "swe_bench",
			Value:     json.RawMessage(`{"top": 62.4}`),
			FetchedAt: time.Date(2026, 8, 25, 6, 0, 0, 0, time.UTC),
		},
	})
	output := buf.String()

	assert.Contains(t, output, "EXTERNAL DATA")
	assert.Contains(t, output, "swe_bench")
	assert.Contains(t, output, "2026-08-25 06:00")
	assert.Contains(t, output, `{"top": 62.4}`)
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintUsage([]scoring.Usage{
		{ProviderID: "openai", LatencyMS: 1200, Attempts: 1, Success: true},
		{ProviderID: "anthropic", LatencyMS: 4000, Attempts: 3, Success: false, Error: "timeout"},
	})
	output := buf.String()

	assert.Contains(t, output, "PROVIDER USAGE")
	assert.Contains(t, output, "✓ openai")
	assert.Contains(t, output, "✗ anthropic")
	assert.Contains(t, output, "timeout")
}

func TestPrintUsage_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintUsage(nil)

	assert.Contains(t, buf.String(), "NO PROVIDER CALLS RECORDED")
}
