package scoring

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ajanes93/feed-ai-sub001/internal/llm"
	"github.com/ajanes93/feed-ai-sub001/internal/retry"
	"github.com/ajanes93/feed-ai-sub001/internal/types"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = time.Second
)

// Usage is one provider-call telemetry row. A row is recorded for every
// provider on every run, including a synthetic failure row when a provider
// exhausts its retries.
type Usage struct {
	ProviderID string
	LatencyMS  int64
	Attempts   int
	Success    bool
	Error      string
}

// Result holds the valid judgments and the telemetry from one fan-out.
type Result struct {
	Scores []types.ModelScore
	Usage  []Usage
}

// Caller fans the composed prompt out to every configured provider
// concurrently. Each provider is retried independently; one provider's
// failure never blocks another.
type Caller struct {
	Clients     []llm.Client
	MaxAttempts int
	Backoff     retry.BackoffFunc
}

// NewCaller returns a caller with the standard retry policy.
func NewCaller(clients []llm.Client) *Caller {
	return &Caller{
		Clients:     clients,
		MaxAttempts: defaultMaxAttempts,
		Backoff:     retry.Exponential(defaultBackoffBase),
	}
}

// CallAll sends the prompt to every provider and waits for all of them to
// settle. Valid judgments are returned in client configuration order so the
// downstream "first responder" preference is deterministic. Zero successes
// is fatal.
func (c *Caller) CallAll(ctx context.Context, prompt string) (*Result, error) {
	g, gCtx := errgroup.WithContext(ctx)

	scores := make([]*types.ModelScore, len(c.Clients))
	usage := make([]Usage, len(c.Clients))
	var mu sync.Mutex

	for i, client := range c.Clients {
		i, client := i, client
		g.Go(func() error {
			start := time.Now()
			score, attempts, err := retry.Do(c.maxAttempts(), c.Backoff, func() (*types.ModelScore, error) {
				raw, genErr := client.GenerateJSON(gCtx, prompt)
				if genErr != nil {
					return nil, genErr
				}
				return ParseModelScore(client.ID(), raw)
			}, func(attempt int, attemptErr error) {
				log.Printf("Warning: provider %s attempt %d failed: %v", client.ID(), attempt+1, attemptErr)
			})

			row := Usage{
				ProviderID: client.ID(),
				LatencyMS:  time.Since(start).Milliseconds(),
				Attempts:   attempts,
				Success:    err == nil,
			}
			if err != nil {
				row.Error = err.Error()
				log.Printf("Error: provider %s failed after %d attempts: %v", client.ID(), attempts, err)
			}

			mu.Lock()
			scores[i] = score
			usage[i] = row
			mu.Unlock()
			return nil
		})
	}
	// Goroutines record failures in usage rows instead of returning them.
	_ = g.Wait()

	result := &Result{Usage: usage}
	for _, score := range scores {
		if score != nil {
			result.Scores = append(result.Scores, *score)
		}
	}
	if len(result.Scores) == 0 {
		return result, &AllProvidersFailedError{Providers: len(c.Clients)}
	}
	return result, nil
}

func (c *Caller) maxAttempts() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return defaultMaxAttempts
}
