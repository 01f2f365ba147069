package executor

import (
	"math/rand"
	"time"

	"github.com/nextrunner/nextrunner/internal/config"
)

// MaxAttempts returns the total number of attempts (first try plus
// retries) a RetryPolicy allows.
func MaxAttempts(policy config.RetryPolicy) int {
	if policy.Backoff != nil {
		return policy.Backoff.Count + 1
	}
	return policy.Fixed + 1
}

// RetryDelay computes the delay before the given (1-indexed) retry
// attempt. Fixed retries have no inter-attempt delay; exponential backoff
// grows by Factor each attempt, capped at MaxDelay, with optional jitter.
func RetryDelay(policy config.RetryPolicy, attempt int) time.Duration {
	if policy.Backoff == nil {
		return 0
	}
	b := policy.Backoff
	delay := b.Delay
	factor := b.Factor
	if factor <= 0 {
		factor = 2.0
	}
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * factor)
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
			break
		}
	}
	if b.MaxDelay > 0 && delay > b.MaxDelay {
		delay = b.MaxDelay
	}
	if b.Jitter {
		delay = applyJitter(delay)
	}
	return delay
}

// applyJitter scales delay by a random factor in [0.5, 1.5) so retrying
// units across a large run don't all wake up in lockstep.
func applyJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	factor := 0.5 + rand.Float64()
	return time.Duration(float64(d) * factor)
}
