// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/ajanes93/feed-ai-sub001/internal/scoring"
	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSnapshot outputs a human-readable summary of a daily score snapshot.
func (p *Printer) PrintSnapshot(snap *types.ScoreSnapshot) {
	if snap == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Date:   %s\n", snap.Date.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Score:  %.1f (%+.1f)\n", snap.Score, snap.Delta))
	sb.WriteString(fmt.Sprintf("Tech:   %.1f   Econ: %.1f\n", snap.ScoreTechnical, snap.ScoreEconomic))

	if snap.IsDecay {
		sb.WriteString("Mode:   decay (no new evidence)\n")
	} else {
		sb.WriteString(fmt.Sprintf("Models: %s (spread %.1f)\n", snap.ModelAgreement, snap.ModelSpread))
	}

	if snap.CapabilityGap != "" {
		sb.WriteString(fmt.Sprintf("Gap:    %s\n", snap.CapabilityGap))
	}

	if len(snap.PillarScores) > 0 {
		sb.WriteString("\nPillars:\n")
		for _, key := range types.PillarKeys() {
			if value, ok := snap.PillarScores[key]; ok {
				sb.WriteString(fmt.Sprintf("  %-14s %+.1f\n", key, value))
			}
		}
	}

	if len(snap.DataQualityFlags) > 0 {
		sb.WriteString("\nQuality Flags:\n")
		for _, flag := range snap.DataQualityFlags {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", flag))
		}
	}

	p.printBox("DAILY SNAPSHOT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintModelScores outputs each provider's suggested delta and the first
// sentence of its analysis.
func (p *Printer) PrintModelScores(scores []types.ModelScore) {
	if len(scores) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Responses from %d providers:\n\n", len(scores)))

	for i, score := range scores {
		sb.WriteString(fmt.Sprintf("%s  %+.1f\n", score.ProviderID, score.SuggestedDelta))
		analysis := scoring.FirstSentence(score.Analysis)
		if len(analysis) > 50 {
			analysis = analysis[:47] + "..."
		}
		if analysis != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", analysis))
		}
		if i < len(scores)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("MODEL SCORES", sb.String())
}

// PrintSignals outputs the top signals by impact.
func (p *Printer) PrintSignals(signals []types.Signal) {
	if len(signals) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Top signals (%d total):\n\n", len(signals)))

	count := min(len(signals), maxItemsToShow)
	for i := 0; i < count; i++ {
		signal := signals[i]
		text := signal.Text
		if len(text) > 45 {
			text = text[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", directionMarker(signal.Direction), text))
		sb.WriteString(fmt.Sprintf("   impact %+.1f", signal.Impact))
		if signal.Source != "" {
			sb.WriteString(fmt.Sprintf("  (%s)", signal.Source))
		}
		sb.WriteString("\n")
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(signals) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more signals", len(signals)-maxItemsToShow))
	}

	p.printBox("TOP SIGNALS", sb.String())
}

func directionMarker(direction string) string {
	switch direction {
	case types.DirectionUp:
		return "↑"
	case types.DirectionDown:
		return "↓"
	default:
		return "→"
	}
}

// PrintExternalData outputs the freshest observation per external source key.
func (p *Printer) PrintExternalData(snapshots []types.ExternalSnapshot) {
	if len(snapshots) == 0 {
		return
	}

	var sb strings.Builder
	for i, snap := range snapshots {
		value := string(snap.Value)
		if len(value) > 32 {
			value = value[:29] + "..."
		}
		sb.WriteString(fmt.Sprintf("%-16s %s\n", snap.Key, snap.FetchedAt.Format("2006-01-02 15:04")))
		sb.WriteString(fmt.Sprintf("  %s\n", value))
		if i < len(snapshots)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("EXTERNAL DATA", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintUsage outputs the per-provider call telemetry for a scoring run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintUsage(rows []scoring.Usage) {
	if len(rows) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO PROVIDER CALLS RECORDED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	for i, row := range rows {
		status := "✓"
		if !row.Success {
			status = "✗"
		}
		sb.WriteString(fmt.Sprintf("%s %-10s %5dms  %d attempts\n", status, row.ProviderID, row.LatencyMS, row.Attempts))
		if row.Error != "" {
			errText := row.Error
			if len(errText) > 45 {
				errText = errText[:42] + "..."
			}
			sb.WriteString(fmt.Sprintf("  %s\n", errText))
		}
		if i < len(rows)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("PROVIDER USAGE", strings.TrimSuffix(sb.String(), "\n"))
}
