package leaderboard

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// agentRow renders one leaderboard row the way the server-rendered page
// flattens to text: rank marker, agent, model, overall, pass rate, then
// per-language labels and values.
func agentRow(rank int, agent, model string, overall, passRate float64) string {
	return fmt.Sprintf(`<div>
  <span>#%d</span>
  <span>%s</span>
  <span>%s</span>
  <span>%.1f%%</span>
  <span>%.1f%%</span>
  <span>Python</span>
  <span>%.1f</span>
  <span>Java</span>
  <span>%.1f</span>
</div>`, rank, agent, model, overall, passRate, overall+1, overall-1)
}

func TestParseAgentBoard_BasicRows(t *testing.T) {
	page := "<html><body>" +
		agentRow(1, "Refact Agent", "claude-sonnet", 52.5, 61.0) +
		agentRow(2, "SweAgent", "gpt-5", 48.0, 55.5) +
		agentRow(3, "OpenHands", "gemini-pro", 44.5, 50.0) +
		"</body></html>"

	board, err := ParseAgentBoard(page)
	require.NoError(t, err)
	require.Len(t, board.Entries, 3)

	first := board.Entries[0]
	assert.Equal(t, "Refact Agent", first.Agent)
	assert.Equal(t, "claude-sonnet", first.Model)
	assert.Equal(t, 52.5, first.Overall)
	assert.Equal(t, 61.0, first.PassRate)
	assert.Equal(t, 53.5, first.Languages["python"])
	assert.Equal(t, 51.5, first.Languages["java"])

	// Middle index of the sorted list.
	assert.Equal(t, 48.0, board.Median)
}

func TestParseAgentBoard_DropsPlaceholderRows(t *testing.T) {
	page := "<html><body>" +
		agentRow(1, "RealAgent", "model-a", 40.0, 45.0) +
		agentRow(2, "PlaceholderAgent", "model-b", 0, 0) +
		"</body></html>"

	board, err := ParseAgentBoard(page)
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "RealAgent", board.Entries[0].Agent)
}

func TestParseAgentBoard_SortsDescendingAndCapsAtTen(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 1; i <= 15; i++ {
		sb.WriteString(agentRow(i, fmt.Sprintf("Agent%02d", i), "m", float64(10+i), float64(20+i)))
	}
	sb.WriteString("</body></html>")

	board, err := ParseAgentBoard(sb.String())
	require.NoError(t, err)
	assert.Len(t, board.Entries, 10)

	// Highest score first.
	assert.Equal(t, 25.0, board.Entries[0].Overall)
	for i := 1; i < len(board.Entries); i++ {
		assert.GreaterOrEqual(t, board.Entries[i-1].Overall, board.Entries[i].Overall)
	}

	// Median over all 15 valid rows, not just the stored ten.
	assert.Equal(t, 18.0, board.Median)
}

func TestParseAgentBoard_ZeroValidEntriesIsError(t *testing.T) {
	_, err := ParseAgentBoard("<html><body><p>leaderboard is loading</p></body></html>")
	require.Error(t, err)

	var empty *EmptyBoardError
	assert.ErrorAs(t, err, &empty)
}

func TestParseAgentBoard_IgnoresScriptContent(t *testing.T) {
	page := "<html><body><script>var junk = 99;</script>" +
		agentRow(1, "OnlyAgent", "model-x", 33.3, 30.0) +
		"</body></html>"

	board, err := ParseAgentBoard(page)
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "OnlyAgent", board.Entries[0].Agent)
}
