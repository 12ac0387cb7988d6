package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	value, attempts, err := Do(3, nil, func() (string, error) {
		return "ok", nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, 1, attempts)
}

func TestDo_RecoversAfterFailures(t *testing.T) {
	calls := 0
	var retried []int

	value, attempts, err := Do(3, func(int) time.Duration { return 0 }, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	}, func(attempt int, err error) {
		retried = append(retried, attempt)
	})

	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{0, 1}, retried)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("down")
	_, attempts, err := Do(3, func(int) time.Duration { return 0 }, func() (int, error) {
		return 0, sentinel
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, sentinel)
}

func TestDo_InvalidAttempts(t *testing.T) {
	_, _, err := Do(0, nil, func() (int, error) { return 1, nil }, nil)
	assert.Error(t, err)
}

func TestExponential_Doubling(t *testing.T) {
	backoff := Exponential(time.Second)
	assert.Equal(t, time.Second, backoff(0))
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 4*time.Second, backoff(2))
}
