package scoring

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient returns canned responses, failing a configurable number of
// times first.
type fakeClient struct {
	id        string
	response  string
	failures  int32
	calls     int32
	alwaysErr bool
}

func (c *fakeClient) ID() string { return c.id }

func (c *fakeClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	call := atomic.AddInt32(&c.calls, 1)
	if c.alwaysErr || call <= c.failures {
		return "", fmt.Errorf("simulated failure %d", call)
	}
	return c.response, nil
}

func (c *fakeClient) Close() error { return nil }

func newTestCaller(clients ...*fakeClient) *Caller {
	caller := &Caller{MaxAttempts: 3, Backoff: func(int) time.Duration { return 0 }}
	for _, client := range clients {
		caller.Clients = append(caller.Clients, client)
	}
	return caller
}

func TestCallAll_AllSucceed(t *testing.T) {
	caller := newTestCaller(
		&fakeClient{id: "openai", response: validResponse},
		&fakeClient{id: "anthropic", response: validResponse},
	)

	result, err := caller.CallAll(context.Background(), "prompt")
	require.NoError(t, err)
	require.Len(t, result.Scores, 2)
	// Scores come back in client configuration order.
	assert.Equal(t, "openai", result.Scores[0].ProviderID)
	assert.Equal(t, "anthropic", result.Scores[1].ProviderID)

	require.Len(t, result.Usage, 2)
	for _, row := range result.Usage {
		assert.True(t, row.Success)
		assert.Equal(t, 1, row.Attempts)
		assert.Empty(t, row.Error)
	}
}

func TestCallAll_RetriesTransientFailure(t *testing.T) {
	flaky := &fakeClient{id: "gemini", response: validResponse, failures: 2}
	caller := newTestCaller(flaky)

	result, err := caller.CallAll(context.Background(), "prompt")
	require.NoError(t, err)
	require.Len(t, result.Scores, 1)
	assert.Equal(t, 3, result.Usage[0].Attempts)
	assert.True(t, result.Usage[0].Success)
}

func TestCallAll_OneProviderFailingDoesNotBlockOthers(t *testing.T) {
	caller := newTestCaller(
		&fakeClient{id: "openai", alwaysErr: true},
		&fakeClient{id: "anthropic", response: validResponse},
	)

	result, err := caller.CallAll(context.Background(), "prompt")
	require.NoError(t, err)
	require.Len(t, result.Scores, 1)
	assert.Equal(t, "anthropic", result.Scores[0].ProviderID)

	// The failing provider still gets a synthetic usage row.
	require.Len(t, result.Usage, 2)
	assert.False(t, result.Usage[0].Success)
	assert.Equal(t, 3, result.Usage[0].Attempts)
	assert.Contains(t, result.Usage[0].Error, "simulated failure")
}

func TestCallAll_AllProvidersFailingIsFatal(t *testing.T) {
	caller := newTestCaller(
		&fakeClient{id: "openai", alwaysErr: true},
		&fakeClient{id: "gemini", alwaysErr: true},
	)

	result, err := caller.CallAll(context.Background(), "prompt")
	require.Error(t, err)
	var fatal *AllProvidersFailedError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 2, fatal.Providers)

	// Telemetry is still recorded for the failed run.
	require.Len(t, result.Usage, 2)
}

func TestCallAll_InvalidResponseCountsAsFailure(t *testing.T) {
	caller := newTestCaller(
		&fakeClient{id: "openai", response: `{"not": "a score"}`},
		&fakeClient{id: "anthropic", response: validResponse},
	)

	result, err := caller.CallAll(context.Background(), "prompt")
	require.NoError(t, err)
	require.Len(t, result.Scores, 1)
	assert.Equal(t, "anthropic", result.Scores[0].ProviderID)
	assert.False(t, result.Usage[0].Success)
	assert.Contains(t, result.Usage[0].Error, "schema validation failed")
}
