package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajanes93/feed-ai-sub001/internal/config"
)

type memStore struct {
	saved map[string]json.RawMessage
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string]json.RawMessage)}
}

func (s *memStore) SaveExternalData(_ context.Context, key string, value json.RawMessage, _ time.Time) error {
	s.saved[key] = value
	return nil
}

func testFetcher(store Store) *Fetcher {
	f := NewFetcher(store)
	f.Backoff = func(int) time.Duration { return 0 }
	return f
}

const benchmarkPage = `<html><body><script>
var data = [
  {"name": "Verified", "results": [
    {"name": "AgentOne", "resolved": 62.4},
    {"name": "AgentTwo", "resolved": 58.0}
  ]}
];
</script></body></html>`

func TestFetchAll_BenchmarkSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(benchmarkPage))
	}))
	defer server.Close()

	store := newMemStore()
	err := testFetcher(store).FetchAll(context.Background(), []config.SourceConfig{
		{Key: "swe_bench", URL: server.URL, Kind: "benchmark", Track: "verified"},
	}, time.Now())
	require.NoError(t, err)

	var value benchmarkValue
	require.NoError(t, json.Unmarshal(store.saved["swe_bench"], &value))
	assert.InDelta(t, 62.4, value.Top, 1e-9)
	assert.Equal(t, "AgentOne", value.TopModel)
}

func TestFetchAll_SeriesSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("date,value\n2026-08-24,80.1\n2026-08-17,81.0\n"))
	}))
	defer server.Close()

	store := newMemStore()
	err := testFetcher(store).FetchAll(context.Background(), []config.SourceConfig{
		{Key: "job_postings", URL: server.URL, Kind: "series", Format: "csv"},
	}, time.Now())
	require.NoError(t, err)

	var value map[string]any
	require.NoError(t, json.Unmarshal(store.saved["job_postings"], &value))
	assert.InDelta(t, 80.1, value["current"].(float64), 1e-9)
	// The week-ago observation yields a 1w change.
	assert.Contains(t, value, "change_1w")
}

func TestFetchAll_OneFailureDoesNotBlockOthers(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("date,value\n2026-08-24,80.1\n"))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	store := newMemStore()
	err := testFetcher(store).FetchAll(context.Background(), []config.SourceConfig{
		{Key: "broken", URL: bad.URL, Kind: "series", Format: "csv"},
		{Key: "job_postings", URL: good.URL, Kind: "series", Format: "csv"},
	}, time.Now())

	// The failure is reported so the fetch phase retries next tick, but the
	// good source was still stored.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, store.saved, "job_postings")
	assert.NotContains(t, store.saved, "broken")
}
