package evidence

import (
	"strconv"
	"strings"

	"github.com/ajanes93/feed-ai-sub001/internal/funding"
	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

// Dedupe collapses evidence items describing the same funding event reported
// by different sources. Items carrying a company and an amount collide on the
// bucketed funding key; everything else is keyed by ID and passes through.
// The first occurrence wins, preserving input order.
func Dedupe(items []types.EvidenceItem) []types.EvidenceItem {
	seen := make(map[string]bool, len(items))
	out := make([]types.EvidenceItem, 0, len(items))
	for _, item := range items {
		key := dedupeKey(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

func dedupeKey(item types.EvidenceItem) string {
	if item.Company == "" || item.Amount == "" {
		return "id|" + item.ID
	}
	if value := funding.ParseAmount(item.Amount); value > 0 {
		company := strings.ToLower(strings.TrimSpace(item.Company))
		return company + "|" + strconv.FormatFloat(funding.BucketAmount(value), 'f', -1, 64)
	}
	return funding.DedupeKey(item.Company, item.Amount)
}
