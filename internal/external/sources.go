// Package external fetches the configured external data sources each day:
// benchmark leaderboards, agent leaderboards, and labour-market time series.
// Sources are fetched and caught independently so one broken source never
// blocks another.
package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ajanes93/feed-ai-sub001/internal/config"
	"github.com/ajanes93/feed-ai-sub001/internal/fetch"
	"github.com/ajanes93/feed-ai-sub001/internal/leaderboard"
	"github.com/ajanes93/feed-ai-sub001/internal/retry"
	"github.com/ajanes93/feed-ai-sub001/internal/trend"
)

const (
	fetchAttempts    = 3
	fetchBackoffBase = time.Second
	browserTimeout   = 60 * time.Second
)

// Store is the persistence surface the fetcher needs.
type Store interface {
	SaveExternalData(ctx context.Context, key string, value json.RawMessage, fetchedAt time.Time) error
}

// Fetcher pulls all configured sources and stores their parsed values.
type Fetcher struct {
	Store      Store
	Options    *fetch.Options
	Backoff    retry.BackoffFunc
	UseBrowser bool
	Verbose    bool
}

// NewFetcher returns a fetcher with default HTTP options and retry policy.
func NewFetcher(store Store) *Fetcher {
	return &Fetcher{
		Store:   store,
		Options: fetch.DefaultOptions(),
		Backoff: retry.Exponential(fetchBackoffBase),
	}
}

// FetchAll fetches every source, storing each success as it lands. Failures
// are collected; an error is returned when any source failed so the fetch
// phase is recorded as incomplete and retried next tick.
func (f *Fetcher) FetchAll(ctx context.Context, sources []config.SourceConfig, now time.Time) error {
	var failed []string
	for _, src := range sources {
		if err := f.fetchSource(ctx, src, now); err != nil {
			log.Printf("Error: source %s failed: %v", src.Key, err)
			failed = append(failed, src.Key)
			continue
		}
		if f.Verbose {
			log.Printf("Fetched source %s", src.Key)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d sources failed: %s", len(failed), len(sources), strings.Join(failed, ", "))
	}
	return nil
}

func (f *Fetcher) fetchSource(ctx context.Context, src config.SourceConfig, now time.Time) error {
	value, _, err := retry.Do(fetchAttempts, f.Backoff,
		func() (json.RawMessage, error) {
			return f.fetchOnce(ctx, src)
		},
		func(attempt int, err error) {
			log.Printf("Warning: source %s attempt %d failed: %v", src.Key, attempt+1, err)
		})
	if err != nil {
		return err
	}
	return f.Store.SaveExternalData(ctx, src.Key, value, now)
}

func (f *Fetcher) fetchOnce(ctx context.Context, src config.SourceConfig) (json.RawMessage, error) {
	body, err := f.fetchBody(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	switch src.Kind {
	case "benchmark":
		return parseBenchmarkSource(body, src.Track)
	case "agents":
		return parseAgentSource(body)
	case "series":
		return parseSeriesSource(body, src.Format)
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// fetchBody retrieves the page, falling back to headless rendering when the
// plain response looks like an unrendered SPA shell.
func (f *Fetcher) fetchBody(ctx context.Context, url string) (string, error) {
	result, err := fetch.URL(ctx, url, f.Options)
	if err != nil {
		return "", err
	}
	if f.UseBrowser && fetch.ShouldUseBrowser(result.Body) {
		return fetch.WithBrowser(ctx, url, browserTimeout, f.Verbose)
	}
	return result.Body, nil
}

// benchmarkValue is what a benchmark source stores per day.
type benchmarkValue struct {
	Track    string                       `json:"track"`
	Top      float64                      `json:"top"`
	TopModel string                       `json:"top_model"`
	Entries  []leaderboard.BenchmarkEntry `json:"entries"`
}

func parseBenchmarkSource(body, track string) (json.RawMessage, error) {
	var tracks []string
	if track != "" {
		tracks = []string{track}
	}
	results, err := leaderboard.ParseBenchmarkPage(body, tracks)
	if err != nil {
		return nil, err
	}

	result := results[0]
	value := benchmarkValue{
		Track:   result.Track,
		Top:     result.Top(),
		Entries: result.Entries,
	}
	for _, entry := range result.Entries {
		if entry.Resolved == value.Top {
			value.TopModel = entry.Model
			break
		}
	}
	return json.Marshal(value)
}

// agentValue is what an agent-leaderboard source stores per day.
type agentValue struct {
	Median  float64                  `json:"median"`
	Entries []leaderboard.AgentEntry `json:"entries"`
}

func parseAgentSource(body string) (json.RawMessage, error) {
	board, err := leaderboard.ParseAgentBoard(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(agentValue{Median: board.Median, Entries: board.Entries})
}

func parseSeriesSource(body, format string) (json.RawMessage, error) {
	points, err := ParseSeries(body, format)
	if err != nil {
		return nil, err
	}
	t := trend.Build(points)
	if t == nil {
		return nil, fmt.Errorf("series has no usable observations")
	}
	return json.Marshal(t)
}
