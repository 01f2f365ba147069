package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nextrunner/nextrunner/internal/config"
)

func TestMaxAttemptsFixed(t *testing.T) {
	assert.Equal(t, 1, MaxAttempts(config.RetryPolicy{}))
	assert.Equal(t, 4, MaxAttempts(config.RetryPolicy{Fixed: 3}))
}

func TestMaxAttemptsBackoff(t *testing.T) {
	policy := config.RetryPolicy{Backoff: &config.BackoffPolicy{Count: 5}}
	assert.Equal(t, 6, MaxAttempts(policy))
}

func TestRetryDelayFixedHasNoDelay(t *testing.T) {
	assert.Equal(t, time.Duration(0), RetryDelay(config.RetryPolicy{Fixed: 3}, 1))
}

func TestRetryDelayBackoffGrowsByFactor(t *testing.T) {
	policy := config.RetryPolicy{
		Backoff: &config.BackoffPolicy{
			Count:  5,
			Delay:  100 * time.Millisecond,
			Factor: 2,
		},
	}
	assert.Equal(t, 100*time.Millisecond, RetryDelay(policy, 1))
	assert.Equal(t, 200*time.Millisecond, RetryDelay(policy, 2))
	assert.Equal(t, 400*time.Millisecond, RetryDelay(policy, 3))
}

func TestRetryDelayBackoffCapsAtMaxDelay(t *testing.T) {
	policy := config.RetryPolicy{
		Backoff: &config.BackoffPolicy{
			Count:    5,
			Delay:    100 * time.Millisecond,
			Factor:   2,
			MaxDelay: 300 * time.Millisecond,
		},
	}
	assert.Equal(t, 300*time.Millisecond, RetryDelay(policy, 3))
	assert.Equal(t, 300*time.Millisecond, RetryDelay(policy, 4))
}

func TestRetryDelayJitterStaysWithinBounds(t *testing.T) {
	policy := config.RetryPolicy{
		Backoff: &config.BackoffPolicy{
			Count:  1,
			Delay:  100 * time.Millisecond,
			Jitter: true,
		},
	}
	for i := 0; i < 50; i++ {
		d := RetryDelay(policy, 1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.Less(t, d, 150*time.Millisecond)
	}
}
