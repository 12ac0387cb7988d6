// Package evidence assembles the deterministic evidence packet sent to every
// provider. Identical inputs must yield byte-identical output: the packet's
// hash is the content-addressed audit key linking each snapshot to the exact
// prompt that produced it. No wall-clock reads, no randomness, no map
// iteration order leaks.
package evidence

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ajanes93/feed-ai-sub001/internal/prompts"
	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

// hashLength is the number of hex characters kept from the SHA-256 digest.
const hashLength = 16

// historyDays is how much score history the packet carries.
const historyDays = 14

// Input holds everything the composer needs. The orchestrator loads it all
// up front so composition stays pure.
type Input struct {
	Previous   *types.ScoreSnapshot
	History    []types.ScoreSnapshot // newest-first
	Evidence   []types.EvidenceItem
	External   []types.ExternalSnapshot
	MinSignals int
}

// Packet is the composed prompt plus its content hash.
type Packet struct {
	Prompt string
	Hash   string
}

// Compose builds the evidence packet.
func Compose(in Input) *Packet {
	var b strings.Builder

	b.WriteString(prompts.MustGet("scoring-preamble"))
	b.WriteString("\n\n")

	writeCurrentScore(&b, in.Previous)
	writeHistory(&b, in.History)
	writeEvidence(&b, in.Evidence)
	writeExternal(&b, in.External)

	contract := prompts.Format(prompts.MustGet("output-contract"), map[string]string{
		"MinSignals": fmt.Sprintf("%d", in.MinSignals),
	})
	b.WriteString("## Output\n\n")
	b.WriteString(contract)
	b.WriteString("\n")

	prompt := b.String()
	return &Packet{Prompt: prompt, Hash: HashPrompt(prompt)}
}

// HashPrompt returns the 16-hex-character content hash of a prompt.
func HashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])[:hashLength]
}

func writeCurrentScore(b *strings.Builder, prev *types.ScoreSnapshot) {
	b.WriteString("## Current score\n\n")
	if prev == nil {
		b.WriteString("No score has been established yet.\n\n")
		return
	}
	fmt.Fprintf(b, "Composite: %.1f\nTechnical: %.1f\nEconomic: %.1f\n\n",
		prev.Score, prev.ScoreTechnical, prev.ScoreEconomic)
}

func writeHistory(b *strings.Builder, history []types.ScoreSnapshot) {
	fmt.Fprintf(b, "## History (last %d days)\n\n", historyDays)
	if len(history) == 0 {
		b.WriteString("No prior history.\n\n")
		return
	}
	if len(history) > historyDays {
		history = history[:historyDays]
	}
	for _, snap := range history {
		fmt.Fprintf(b, "%s: %.1f (%+.1f)\n", snap.Date.Format("2006-01-02"), snap.Score, snap.Delta)
	}
	b.WriteString("\n")
}

func writeEvidence(b *strings.Builder, items []types.EvidenceItem) {
	b.WriteString("## Evidence by pillar\n\n")

	sorted := make([]types.EvidenceItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].PublishedAt.Equal(sorted[j].PublishedAt) {
			return sorted[i].PublishedAt.Before(sorted[j].PublishedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	byPillar := make(map[string][]types.EvidenceItem)
	for _, item := range sorted {
		pillar := item.Pillar
		if !isKnownPillar(pillar) {
			pillar = "uncategorized"
		}
		byPillar[pillar] = append(byPillar[pillar], item)
	}

	marker := prompts.MustGet("no-evidence-marker")
	pillarOrder := append(types.PillarKeys(), "uncategorized")
	for _, pillar := range pillarOrder {
		if pillar == "uncategorized" && len(byPillar[pillar]) == 0 {
			continue
		}
		fmt.Fprintf(b, "### %s\n\n", pillar)
		if len(byPillar[pillar]) == 0 {
			b.WriteString(marker)
			b.WriteString("\n\n")
			continue
		}
		for _, item := range byPillar[pillar] {
			writeEvidenceItem(b, item)
		}
		b.WriteString("\n")
	}
}

func writeEvidenceItem(b *strings.Builder, item types.EvidenceItem) {
	fmt.Fprintf(b, "- %s", item.Title)
	if item.Summary != "" {
		fmt.Fprintf(b, ": %s", item.Summary)
	}
	if item.Source != "" {
		fmt.Fprintf(b, " [%s]", item.Source)
	}
	b.WriteString("\n")
}

// writeExternal renders external snapshots only when present, with keys
// sorted so map order never leaks into the packet.
func writeExternal(b *strings.Builder, external []types.ExternalSnapshot) {
	if len(external) == 0 {
		return
	}

	sorted := make([]types.ExternalSnapshot, len(external))
	copy(sorted, external)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	b.WriteString("## External indicators\n\n")
	for _, snap := range sorted {
		fmt.Fprintf(b, "- %s: %s\n", snap.Key, compactJSON(snap.Value))
	}
	b.WriteString("\n")
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func isKnownPillar(pillar string) bool {
	for _, key := range types.PillarKeys() {
		if pillar == key {
			return true
		}
	}
	return false
}
