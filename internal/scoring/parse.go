// Package scoring turns raw provider responses into validated judgments and
// merges them into a single daily consensus update.
package scoring

import (
	_ "embed"
	"encoding/json"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/ajanes93/feed-ai-sub001/internal/llm"
	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

//go:embed model_score_schema.json
var modelScoreSchema string

const (
	maxNotesLength    = 500
	maxAnalysisLength = 2000
	pillarBound       = 5.0
)

var validate = validator.New()

// ParseModelScore validates and decodes one provider's raw response text.
// A response missing the pillar-score map, the suggested delta, or the
// analysis text is rejected. Optional fields default to empty or zero, and
// out-of-range values are clamped rather than rejected.
func ParseModelScore(providerID, raw string) (*types.ModelScore, error) {
	cleaned := llm.CleanJSONBlock(raw)
	if cleaned == "" {
		return nil, &ResponseError{Provider: providerID, Message: "empty response"}
	}

	schemaLoader := gojsonschema.NewStringLoader(modelScoreSchema)
	documentLoader := gojsonschema.NewStringLoader(cleaned)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, &ResponseError{Provider: providerID, Message: "response is not valid JSON", Cause: err}
	}
	if !result.Valid() {
		descs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descs = append(descs, desc.String())
		}
		return nil, &ResponseError{Provider: providerID, Message: "schema validation failed: " + strings.Join(descs, "; ")}
	}

	var score types.ModelScore
	if err := json.Unmarshal([]byte(cleaned), &score); err != nil {
		return nil, &ResponseError{Provider: providerID, Message: "failed to decode response", Cause: err}
	}
	score.ProviderID = providerID

	sanitizeModelScore(&score)

	if err := validate.Struct(&score); err != nil {
		return nil, &ResponseError{Provider: providerID, Message: "field validation failed", Cause: err}
	}
	return &score, nil
}

// sanitizeModelScore normalizes a decoded judgment in place: clamps numeric
// ranges, fills missing pillar keys with zero, truncates free text, drops
// non-http(s) signal URLs, and discards signals with no text.
func sanitizeModelScore(score *types.ModelScore) {
	if score.PillarScores == nil {
		score.PillarScores = make(types.PillarScores)
	}
	for _, key := range types.PillarKeys() {
		score.PillarScores[key] = clamp(score.PillarScores[key], -pillarBound, pillarBound)
	}

	score.Analysis = truncate(strings.TrimSpace(score.Analysis), maxAnalysisLength)
	score.Notes = truncate(strings.TrimSpace(score.Notes), maxNotesLength)

	kept := score.TopSignals[:0]
	for _, signal := range score.TopSignals {
		signal.Text = strings.TrimSpace(signal.Text)
		if signal.Text == "" {
			continue
		}
		signal.Direction = normalizeDirection(signal.Direction)
		signal.Impact = clamp(signal.Impact, -pillarBound, pillarBound)
		signal.URL = sanitizeURL(signal.URL)
		kept = append(kept, signal)
	}
	score.TopSignals = kept
}

func normalizeDirection(direction string) string {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case types.DirectionUp:
		return types.DirectionUp
	case types.DirectionDown:
		return types.DirectionDown
	default:
		return types.DirectionNeutral
	}
}

// sanitizeURL keeps only http and https URLs, dropping everything else.
func sanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch parsed.Scheme {
	case "http", "https":
		return raw
	default:
		return ""
	}
}

// truncate cuts text to at most max bytes, backing up so a multi-byte rune
// is never split at the boundary.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
