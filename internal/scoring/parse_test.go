package scoring

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

const validResponse = `{
	"pillar_scores": {"capability": 3, "labour_market": -1, "sentiment": 0.5, "industry": 1, "barriers": -0.5},
	"suggested_delta": 1.5,
	"technical_delta": 2,
	"economic_delta": 1,
	"analysis": "Capability keeps outpacing adoption.",
	"top_signals": [
		{"text": "Benchmark record", "direction": "up", "impact": 3, "url": "https://example.com/a"}
	],
	"notes": "Confidence is moderate."
}`

func TestParseModelScore_Valid(t *testing.T) {
	score, err := ParseModelScore("openai", validResponse)
	require.NoError(t, err)

	assert.Equal(t, "openai", score.ProviderID)
	assert.InDelta(t, 1.5, score.SuggestedDelta, 1e-9)
	assert.InDelta(t, 3, score.PillarScores[types.PillarCapability], 1e-9)
	require.Len(t, score.TopSignals, 1)
	assert.Equal(t, types.DirectionUp, score.TopSignals[0].Direction)
}

func TestParseModelScore_FencedResponse(t *testing.T) {
	score, err := ParseModelScore("gemini", "```json\n"+validResponse+"\n```")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, score.SuggestedDelta, 1e-9)
}

func TestParseModelScore_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing pillar scores", `{"suggested_delta": 1, "analysis": "text"}`},
		{"missing suggested delta", `{"pillar_scores": {"capability": 1}, "analysis": "text"}`},
		{"missing analysis", `{"pillar_scores": {"capability": 1}, "suggested_delta": 1}`},
		{"empty analysis", `{"pillar_scores": {"capability": 1}, "suggested_delta": 1, "analysis": ""}`},
		{"not json at all", `the model refused to answer`},
		{"empty response", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseModelScore("openai", tt.raw)
			require.Error(t, err)
			var respErr *ResponseError
			assert.True(t, errors.As(err, &respErr))
		})
	}
}

func TestParseModelScore_OptionalFieldsDefault(t *testing.T) {
	raw := `{"pillar_scores": {"capability": 2}, "suggested_delta": 0.5, "analysis": "Short take."}`
	score, err := ParseModelScore("anthropic", raw)
	require.NoError(t, err)

	assert.Zero(t, score.TechnicalDelta)
	assert.Zero(t, score.EconomicDelta)
	assert.Empty(t, score.TopSignals)
	assert.Empty(t, score.Notes)
	// Missing pillar keys default to zero.
	assert.Zero(t, score.PillarScores[types.PillarBarriers])
}

func TestParseModelScore_SanitizesSignalURLs(t *testing.T) {
	raw := `{
		"pillar_scores": {"capability": 1},
		"suggested_delta": 1,
		"analysis": "text",
		"top_signals": [
			{"text": "good", "url": "https://example.com/story"},
			{"text": "scheme dropped", "url": "javascript:alert(1)"},
			{"text": "ftp dropped", "url": "ftp://example.com/file"}
		]
	}`
	score, err := ParseModelScore("openai", raw)
	require.NoError(t, err)

	require.Len(t, score.TopSignals, 3)
	assert.Equal(t, "https://example.com/story", score.TopSignals[0].URL)
	assert.Empty(t, score.TopSignals[1].URL)
	assert.Empty(t, score.TopSignals[2].URL)
}

func TestParseModelScore_ClampsOutOfRangeValues(t *testing.T) {
	raw := `{
		"pillar_scores": {"capability": 12, "labour_market": -9},
		"suggested_delta": 1,
		"analysis": "text",
		"top_signals": [{"text": "huge", "impact": 50, "direction": "UP"}]
	}`
	score, err := ParseModelScore("openai", raw)
	require.NoError(t, err)

	assert.InDelta(t, 5, score.PillarScores[types.PillarCapability], 1e-9)
	assert.InDelta(t, -5, score.PillarScores[types.PillarLabourMarket], 1e-9)
	assert.InDelta(t, 5, score.TopSignals[0].Impact, 1e-9)
	assert.Equal(t, types.DirectionUp, score.TopSignals[0].Direction)
}

func TestParseModelScore_TruncatesLongText(t *testing.T) {
	raw := `{
		"pillar_scores": {"capability": 1},
		"suggested_delta": 1,
		"analysis": "` + strings.Repeat("a", 3000) + `",
		"notes": "` + strings.Repeat("n", 800) + `"
	}`
	score, err := ParseModelScore("openai", raw)
	require.NoError(t, err)

	assert.Len(t, score.Analysis, maxAnalysisLength)
	assert.Len(t, score.Notes, maxNotesLength)
}

func TestParseModelScore_TruncationKeepsValidUTF8(t *testing.T) {
	// Multi-byte runes straddling the cutoffs must not be split.
	raw := `{
		"pillar_scores": {"capability": 1},
		"suggested_delta": 1,
		"analysis": "` + strings.Repeat("é", 1500) + `",
		"notes": "` + strings.Repeat("日", 300) + `"
	}`
	score, err := ParseModelScore("openai", raw)
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(score.Analysis))
	assert.True(t, utf8.ValidString(score.Notes))
	assert.LessOrEqual(t, len(score.Analysis), maxAnalysisLength)
	assert.LessOrEqual(t, len(score.Notes), maxNotesLength)
}

func TestParseModelScore_DropsEmptySignals(t *testing.T) {
	raw := `{
		"pillar_scores": {"capability": 1},
		"suggested_delta": 1,
		"analysis": "Quiet day.",
		"top_signals": [
			{"text": "", "direction": "sideways", "impact": 3},
			{"text": "   ", "direction": "up", "impact": 2},
			{"text": "Benchmark record", "direction": "up", "impact": 3}
		]
	}`
	score, err := ParseModelScore("openai", raw)
	require.NoError(t, err)

	require.Len(t, score.TopSignals, 1)
	assert.Equal(t, "Benchmark record", score.TopSignals[0].Text)
}
