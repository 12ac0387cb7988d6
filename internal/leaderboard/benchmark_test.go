package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const benchmarkPageWithBlob = `<html><body>
<script>
var leaderboards = [
  {"name": "SWE-bench Verified", "results": [
    {"name": "AgentOne", "resolved": 62.4},
    {"folder": "agent-two-submission", "resolved": 58.1},
    {"resolved": 51.0},
    {"name": "CorruptBot", "resolved": 250.0}
  ]},
  {"name": "SWE-bench Lite", "results": [
    {"name": "AgentOne", "resolved": 44.2}
  ]}
];
</script>
</body></html>`

func TestParseBenchmarkPage_JSONBlob(t *testing.T) {
	results, err := ParseBenchmarkPage(benchmarkPageWithBlob, []string{"swe-bench verified"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	track := results[0]
	assert.Equal(t, "SWE-bench Verified", track.Track)
	require.Len(t, track.Entries, 3) // corrupt >100 entry rejected

	assert.Equal(t, "AgentOne", track.Entries[0].Model)
	assert.Equal(t, 62.4, track.Entries[0].Resolved)
	assert.Equal(t, "agent-two-submission", track.Entries[1].Model)
	assert.Equal(t, "Unknown", track.Entries[2].Model)
	assert.Equal(t, 62.4, track.Top())
}

func TestParseBenchmarkPage_TrackMatchingIgnoresCaseAndSpacing(t *testing.T) {
	results, err := ParseBenchmarkPage(benchmarkPageWithBlob, []string{"SWEBENCH_LITE"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "SWE-bench Lite", results[0].Track)
}

func TestParseBenchmarkPage_AllTracksWhenNoneRequested(t *testing.T) {
	results, err := ParseBenchmarkPage(benchmarkPageWithBlob, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestParseBenchmarkPage_MalformedBlobIsDistinctError(t *testing.T) {
	page := `<script>var data = [{"name": "Verified", "results": [{"name": "A", "resolved": }]}];</script>`

	_, err := ParseBenchmarkPage(page, nil)
	require.Error(t, err)

	var malformed *MalformedBlobError
	assert.ErrorAs(t, err, &malformed)
}

func TestParseBenchmarkPage_NoBlobFallsThroughToTable(t *testing.T) {
	page := `
## Verified

| Model | Resolved |
| --- | --- |
| AgentOne | 62.4 |
| AgentTwo | 58.1% |
| OverLimit | 140 |
`
	results, err := ParseBenchmarkPage(page, []string{"verified"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Entries, 2)
	assert.Equal(t, "AgentOne", results[0].Entries[0].Model)
	assert.Equal(t, 58.1, results[0].Entries[1].Resolved)
}

func TestParseBenchmarkPage_NothingParsable(t *testing.T) {
	_, err := ParseBenchmarkPage("<html><body>maintenance</body></html>", nil)
	require.Error(t, err)

	var noData *NoDataError
	assert.ErrorAs(t, err, &noData)
}

func TestFindResultsBlob_UnterminatedArrayStillCountsAsBlob(t *testing.T) {
	page := `<script>var x = [{"name": "Verified", "results": [{"name": "A", "resolved": 10}]</script>`
	_, found := findResultsBlob(page)
	assert.True(t, found)

	_, err := ParseBenchmarkPage(page, nil)
	var malformed *MalformedBlobError
	assert.ErrorAs(t, err, &malformed)
}
