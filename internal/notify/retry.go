package notify

import (
	"math/rand"
	"time"
)

// Backoff schedule per attempt: 1m, 5m, 30m, 2h, 12h.
var retryDelays = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	30 * time.Minute,
	2 * time.Hour,
	12 * time.Hour,
}

const (
	// DefaultMaxAttempts is the default maximum delivery attempts.
	DefaultMaxAttempts = 5

	// JitterFactor spreads retries by ±20% to avoid thundering herds.
	JitterFactor = 0.2
)

// NextRetryDelay returns the backoff delay after the given number of
// failed attempts, jittered. attemptCount 0 means one attempt has failed.
func NextRetryDelay(attemptCount int) time.Duration {
	if attemptCount < 0 {
		attemptCount = 0
	}
	if attemptCount >= len(retryDelays) {
		attemptCount = len(retryDelays) - 1
	}

	base := retryDelays[attemptCount]
	jitter := (rand.Float64()*2 - 1) * float64(base) * JitterFactor
	return time.Duration(float64(base) + jitter)
}

// NextRetryAt returns the wall-clock time of the next attempt.
func NextRetryAt(attemptCount int) time.Time {
	return time.Now().Add(NextRetryDelay(attemptCount))
}

// IsExhausted reports whether the attempt budget is spent.
func IsExhausted(attemptCount, maxAttempts int) bool {
	return attemptCount >= maxAttempts
}

// RetryDelays returns a copy of the backoff schedule.
func RetryDelays() []time.Duration {
	return append([]time.Duration{}, retryDelays...)
}
