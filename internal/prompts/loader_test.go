package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KnownKeys(t *testing.T) {
	for _, key := range []string{"scoring-preamble", "output-contract", "no-evidence-marker"} {
		t.Run(key, func(t *testing.T) {
			prompt, err := Get(key)
			require.NoError(t, err)
			assert.NotEmpty(t, prompt)
		})
	}
}

func TestGet_UnknownKey(t *testing.T) {
	_, err := Get("does-not-exist")
	assert.Error(t, err)
}

func TestFormat_ReplacesPlaceholders(t *testing.T) {
	contract := MustGet("output-contract")
	require.True(t, strings.Contains(contract, "{{.MinSignals}}"))

	formatted := Format(contract, map[string]string{"MinSignals": "3"})
	assert.NotContains(t, formatted, "{{.MinSignals}}")
	assert.Contains(t, formatted, "at least 3")
}
