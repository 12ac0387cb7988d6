package scoring

import (
	"fmt"
	"strings"

	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

// PickPreferred returns the extracted value from the first item matching the
// preference predicate, falling back to the first item with a non-empty
// value. This is the single implementation of the "prefer primary provider,
// else first available" resolution used across narrative and note fields.
func PickPreferred[T any](items []T, preferred func(T) bool, extract func(T) string) string {
	for _, item := range items {
		if preferred(item) {
			if value := extract(item); value != "" {
				return value
			}
		}
	}
	for _, item := range items {
		if value := extract(item); value != "" {
			return value
		}
	}
	return ""
}

// Synthesize builds the snapshot narrative from the provider judgments.
// A single provider's analysis is used verbatim. When providers agree, the
// primary provider's analysis is preferred. When they disagree, each
// provider gets one clause summarizing its position.
func Synthesize(scores []types.ModelScore, agreement, primaryProvider string) string {
	if len(scores) == 0 {
		return ""
	}
	if len(scores) == 1 {
		return scores[0].Analysis
	}

	if agreement == types.AgreementDisagree {
		clauses := make([]string, 0, len(scores))
		for _, score := range scores {
			clauses = append(clauses, fmt.Sprintf("%s %s the score (%+.1f), citing: %s",
				providerLabel(score.ProviderID), deltaVerb(score.SuggestedDelta), score.SuggestedDelta,
				FirstSentence(score.Analysis)))
		}
		return strings.Join(clauses, " ")
	}

	return PickPreferred(scores,
		func(s types.ModelScore) bool { return s.ProviderID == primaryProvider },
		func(s types.ModelScore) string { return s.Analysis })
}

func deltaVerb(delta float64) string {
	switch {
	case delta > 0:
		return "upgraded"
	case delta < 0:
		return "downgraded"
	default:
		return "held steady"
	}
}

var providerLabels = map[string]string{
	"openai":    "OpenAI",
	"anthropic": "Anthropic",
	"gemini":    "Gemini",
}

func providerLabel(providerID string) string {
	if label, ok := providerLabels[providerID]; ok {
		return label
	}
	if providerID == "" {
		return "Unknown"
	}
	return strings.ToUpper(providerID[:1]) + providerID[1:]
}

// abbreviations that end with a period but do not terminate a sentence.
// Keys are the lowercased token preceding the period.
var abbreviations = map[string]bool{
	"e.g":    true,
	"i.e":    true,
	"etc":    true,
	"vs":     true,
	"u.s":    true,
	"u.k":    true,
	"approx": true,
	"dr":     true,
	"mr":     true,
	"ms":     true,
}

// FirstSentence returns the first sentence of text. Periods inside decimal
// numbers and after common abbreviations do not terminate the sentence.
func FirstSentence(text string) string {
	text = strings.TrimSpace(text)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '.' && ch != '!' && ch != '?' {
			continue
		}
		if ch == '.' {
			if isDecimalPoint(text, i) {
				continue
			}
			if i+1 < len(text) && text[i+1] != ' ' && text[i+1] != '\n' && text[i+1] != '\t' {
				continue
			}
			if abbreviations[precedingToken(text, i)] {
				continue
			}
		}
		return strings.TrimSpace(text[:i+1])
	}
	return text
}

func isDecimalPoint(text string, i int) bool {
	return i > 0 && i+1 < len(text) && isDigit(text[i-1]) && isDigit(text[i+1])
}

// precedingToken returns the lowercased word immediately before text[i].
func precedingToken(text string, i int) string {
	start := i
	for start > 0 {
		prev := text[start-1]
		if prev == ' ' || prev == '\n' || prev == '\t' || prev == '(' {
			break
		}
		start--
	}
	return strings.ToLower(text[start:i])
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
