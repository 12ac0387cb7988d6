package leaderboard

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// BenchmarkEntry is one model's result on a benchmark track.
type BenchmarkEntry struct {
	Model    string  `json:"model"`
	Resolved float64 `json:"resolved"`
}

// TrackResult holds the parsed entries for one named benchmark track.
type TrackResult struct {
	Track   string           `json:"track"`
	Entries []BenchmarkEntry `json:"entries"`
}

// Top returns the best resolved value on the track, or 0 when empty.
func (t TrackResult) Top() float64 {
	top := 0.0
	for _, e := range t.Entries {
		if e.Resolved > top {
			top = e.Resolved
		}
	}
	return top
}

// benchmarkStrategy is one way of extracting track results from a page.
// ok=false with a nil error means the strategy does not apply and the next
// one should be tried.
type benchmarkStrategy struct {
	name string
	run  func(page string, tracks []string) ([]TrackResult, bool, error)
}

var benchmarkStrategies = []benchmarkStrategy{
	{name: "json-blob", run: parseBenchmarkBlob},
	{name: "markdown-table", run: parseBenchmarkTable},
}

// ParseBenchmarkPage extracts the requested tracks from a benchmark
// leaderboard page. Track names are matched case- and spacing-insensitively.
// With no tracks given, every track found is returned.
func ParseBenchmarkPage(page string, tracks []string) ([]TrackResult, error) {
	for _, s := range benchmarkStrategies {
		results, ok, err := s.run(page, tracks)
		if err != nil {
			return nil, err
		}
		if ok && len(results) > 0 {
			return results, nil
		}
	}
	return nil, &NoDataError{Page: "benchmark"}
}

// blobGroup mirrors the embedded JSON structure: an array of named tracks,
// each with result entries keyed by model name or submission folder.
type blobGroup struct {
	Name    string      `json:"name"`
	Results []blobEntry `json:"results"`
}

type blobEntry struct {
	Name     string  `json:"name"`
	Folder   string  `json:"folder"`
	Resolved float64 `json:"resolved"`
}

// parseBenchmarkBlob extracts the embedded JSON array carrying the results.
// No blob on the page falls through silently; a blob that will not parse is
// a hard MalformedBlobError.
func parseBenchmarkBlob(page string, tracks []string) ([]TrackResult, bool, error) {
	blob, found := findResultsBlob(page)
	if !found {
		return nil, false, nil
	}

	var groups []blobGroup
	if err := json.Unmarshal([]byte(blob), &groups); err != nil {
		return nil, false, &MalformedBlobError{Cause: err}
	}

	wanted := normalizeTracks(tracks)
	var results []TrackResult
	for _, g := range groups {
		if len(wanted) > 0 && !wanted[normalizeTrackName(g.Name)] {
			continue
		}
		tr := TrackResult{Track: g.Name}
		for _, e := range g.Results {
			if e.Resolved > 100 || e.Resolved < 0 {
				continue // corrupt value
			}
			model := e.Name
			if model == "" {
				model = e.Folder
			}
			if model == "" {
				model = "Unknown"
			}
			tr.Entries = append(tr.Entries, BenchmarkEntry{Model: model, Resolved: e.Resolved})
		}
		results = append(results, tr)
	}
	return results, true, nil
}

// findResultsBlob locates the JSON array enclosing the first "results" key.
// It walks backwards to the unmatched opening bracket, then forwards to its
// balanced close, honoring string literals.
func findResultsBlob(page string) (string, bool) {
	keyIdx := strings.Index(page, `"results"`)
	if keyIdx < 0 {
		return "", false
	}

	// First unmatched '[' going backwards opens the blob.
	start := -1
	square := 0
	for i := keyIdx; i >= 0 && start < 0; i-- {
		switch page[i] {
		case ']':
			square++
		case '[':
			if square > 0 {
				square--
			} else {
				start = i
			}
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(page); i++ {
		c := page[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return page[start : i+1], true
			}
		}
	}

	// Unterminated array still counts as a blob: present but malformed.
	return page[start:], true
}

// tableRowPattern matches markdown table rows of the form
// "| model name | 23.4 |" with an optional percent sign.
var tableRowPattern = regexp.MustCompile(`^\|\s*([^|]+?)\s*\|\s*(\d+(?:\.\d+)?)%?\s*\|`)

// headingPattern matches markdown headings used as track names.
var headingPattern = regexp.MustCompile(`^#{1,4}\s+(.+)$`)

// parseBenchmarkTable is the fallback strategy: scan markdown-style table
// rows, grouping them under the most recent heading.
func parseBenchmarkTable(page string, tracks []string) ([]TrackResult, bool, error) {
	wanted := normalizeTracks(tracks)
	byTrack := make(map[string]*TrackResult)
	var order []string
	currentTrack := "default"

	for _, line := range strings.Split(page, "\n") {
		line = strings.TrimSpace(line)
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			currentTrack = strings.TrimSpace(m[1])
			continue
		}
		m := tableRowPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		model := strings.TrimSpace(m[1])
		if model == "" || isTableHeaderCell(model) {
			continue
		}
		resolved, err := strconv.ParseFloat(m[2], 64)
		if err != nil || resolved > 100 || resolved < 0 {
			continue
		}
		if len(wanted) > 0 && !wanted[normalizeTrackName(currentTrack)] {
			continue
		}
		tr, exists := byTrack[currentTrack]
		if !exists {
			tr = &TrackResult{Track: currentTrack}
			byTrack[currentTrack] = tr
			order = append(order, currentTrack)
		}
		tr.Entries = append(tr.Entries, BenchmarkEntry{Model: model, Resolved: resolved})
	}

	if len(order) == 0 {
		return nil, false, nil
	}
	results := make([]TrackResult, 0, len(order))
	for _, name := range order {
		results = append(results, *byTrack[name])
	}
	return results, true, nil
}

// isTableHeaderCell filters separator and header rows out of table scans.
func isTableHeaderCell(cell string) bool {
	c := strings.ToLower(cell)
	return strings.Trim(c, "-: ") == "" || c == "model" || c == "name" || c == "agent"
}

// normalizeTrackName makes track matching case- and spacing-insensitive.
func normalizeTrackName(name string) string {
	name = strings.ToLower(name)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, name)
}

func normalizeTracks(tracks []string) map[string]bool {
	if len(tracks) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		wanted[normalizeTrackName(t)] = true
	}
	return wanted
}
