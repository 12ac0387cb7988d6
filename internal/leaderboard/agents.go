package leaderboard

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AgentEntry is one row of the coding-agent leaderboard.
type AgentEntry struct {
	Agent     string             `json:"agent"`
	Model     string             `json:"model,omitempty"`
	Overall   float64            `json:"overall"`
	PassRate  float64            `json:"pass_rate"`
	Languages map[string]float64 `json:"languages,omitempty"`
}

// AgentBoard is the parsed leaderboard: entries sorted descending by overall
// score, capped at the top ten, plus the median overall score of every valid
// row (computed before capping).
type AgentBoard struct {
	Entries []AgentEntry `json:"entries"`
	Median  float64      `json:"median"`
}

// maxStoredAgentEntries caps how many rows are kept after sorting.
const maxStoredAgentEntries = 10

// rankWindow bounds how many text lines after a rank marker are scanned for
// one entry's values.
const rankWindow = 12

var (
	rankMarkerPattern = regexp.MustCompile(`^#?(\d{1,3})\.?$`)
	percentPattern    = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*%?$`)
)

// knownLanguages are the per-language score labels the board publishes.
var knownLanguages = map[string]bool{
	"python": true, "java": true, "javascript": true, "typescript": true,
	"go": true, "rust": true, "c++": true, "c#": true, "ruby": true,
}

// ParseAgentBoard parses the server-rendered agent leaderboard. The page has
// no structured data attribute, so the parser scans the rendered text for
// rank markers and pattern-matches the values that trail each one.
// Zero valid entries is an error, never an empty board.
func ParseAgentBoard(page string) (*AgentBoard, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, &NoDataError{Page: "agents"}
	}

	lines := textLines(doc)
	entries := scanAgentEntries(lines)
	if len(entries) == 0 {
		return nil, &EmptyBoardError{}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Overall > entries[j].Overall
	})

	median := entries[len(entries)/2].Overall
	if len(entries) > maxStoredAgentEntries {
		entries = entries[:maxStoredAgentEntries]
	}

	return &AgentBoard{Entries: entries, Median: median}, nil
}

// scanAgentEntries walks the rendered lines, starting a new entry at each
// rank marker and extracting values positionally from the trailing window.
// Ranks must appear in ascending order starting at 1, which keeps bare
// integer score values from being mistaken for markers.
func scanAgentEntries(lines []string) []AgentEntry {
	var entries []AgentEntry
	nextRank := 1

	for i := 0; i < len(lines); i++ {
		if !isRankMarker(lines[i], nextRank) {
			continue
		}

		entry, consumed := parseAgentWindow(lines[i+1:], nextRank+1)
		if entry != nil {
			entries = append(entries, *entry)
		}
		nextRank++
		i += consumed
	}

	return entries
}

// isRankMarker reports whether line is the rank marker for the given rank.
func isRankMarker(line string, rank int) bool {
	m := rankMarkerPattern.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	n, err := strconv.Atoi(m[1])
	return err == nil && n == rank
}

// parseAgentWindow extracts one entry from the lines following a rank
// marker: the first two non-numeric lines are agent and model, the first two
// numeric values are overall score and pass rate, and any known language
// label binds the next numeric value. Rows where both overall and pass rate
// are zero or below are placeholders and dropped.
func parseAgentWindow(window []string, nextRank int) (*AgentEntry, int) {
	entry := AgentEntry{}
	var nums []float64
	var pendingLanguage string
	consumed := 0

	for i, line := range window {
		if i >= rankWindow || isRankMarker(line, nextRank) {
			break
		}
		consumed = i + 1

		if m := percentPattern.FindStringSubmatch(line); m != nil {
			value, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			if pendingLanguage != "" {
				if entry.Languages == nil {
					entry.Languages = make(map[string]float64)
				}
				entry.Languages[pendingLanguage] = value
				pendingLanguage = ""
			} else {
				nums = append(nums, value)
			}
			continue
		}

		lower := strings.ToLower(line)
		if knownLanguages[lower] {
			pendingLanguage = lower
			continue
		}
		if entry.Agent == "" {
			entry.Agent = line
		} else if entry.Model == "" {
			entry.Model = line
		}
	}

	if entry.Agent == "" {
		return nil, consumed
	}
	if len(nums) > 0 {
		entry.Overall = nums[0]
	}
	if len(nums) > 1 {
		entry.PassRate = nums[1]
	}
	if entry.Overall <= 0 && entry.PassRate <= 0 {
		return nil, consumed
	}
	return &entry, consumed
}

// textLines flattens the document body into trimmed, non-empty text lines.
func textLines(doc *goquery.Document) []string {
	doc.Find("script, style, noscript").Remove()
	raw := strings.Split(doc.Text(), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
