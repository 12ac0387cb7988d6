package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

func TestDedupe_CollapsesSameFundingRound(t *testing.T) {
	items := []types.EvidenceItem{
		{ID: "a", Title: "OpenAI raises $500M", Company: "OpenAI", Amount: "$500M"},
		{ID: "b", Title: "OpenAI secures up to $500 million", Company: "openai ", Amount: "up to $500 million"},
		{ID: "c", Title: "Anthropic raises $500M", Company: "Anthropic", Amount: "$500M"},
	}

	out := Dedupe(items)

	assert.Len(t, out, 2)
	// First occurrence wins.
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[1].ID)
}

func TestDedupe_BucketsNearbyAmounts(t *testing.T) {
	items := []types.EvidenceItem{
		{ID: "a", Company: "Acme", Amount: "$6.5B"},
		{ID: "b", Company: "Acme", Amount: "$6.6B"},
	}

	out := Dedupe(items)

	assert.Len(t, out, 1)
}

func TestDedupe_KeepsItemsWithoutAmounts(t *testing.T) {
	items := []types.EvidenceItem{
		{ID: "a", Title: "Benchmark result"},
		{ID: "b", Title: "Benchmark result"},
		{ID: "a", Title: "Duplicate delivery"},
	}

	out := Dedupe(items)

	// Distinct IDs survive even with identical titles; a repeated ID does not.
	assert.Len(t, out, 2)
}

func TestDedupe_UnparsableAmountsStayDistinct(t *testing.T) {
	items := []types.EvidenceItem{
		{ID: "a", Company: "Acme", Amount: "undisclosed"},
		{ID: "b", Company: "Acme", Amount: "a large sum"},
	}

	out := Dedupe(items)

	assert.Len(t, out, 2)
}
