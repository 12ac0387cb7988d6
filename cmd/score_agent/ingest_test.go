package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEvidenceFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evidence.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadEvidenceFile(t *testing.T) {
	path := writeEvidenceFile(t, `[
		{"id": "e1", "title": "Benchmark jump", "pillar": "capability", "published_at": "2026-08-24T00:00:00Z"},
		{"title": "Funding round", "company": "Acme", "amount": "$500M"}
	]`)

	items, err := loadEvidenceFile(path)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "e1", items[0].ID)
	// Missing fields are filled in.
	assert.NotEmpty(t, items[1].ID)
	assert.False(t, items[1].PublishedAt.IsZero())
}

func TestLoadEvidenceFile_RequiresTitle(t *testing.T) {
	path := writeEvidenceFile(t, `[{"id": "e1"}]`)

	_, err := loadEvidenceFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no title")
}

func TestLoadEvidenceFile_BadJSON(t *testing.T) {
	path := writeEvidenceFile(t, `{not json`)

	_, err := loadEvidenceFile(path)
	assert.Error(t, err)
}

func TestLoadEvidenceFile_MissingFile(t *testing.T) {
	_, err := loadEvidenceFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
