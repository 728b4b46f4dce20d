package sync

import (
	"math/rand"
	"time"
)

// Retry delays for exponential backoff.
// Attempt 1: 1 min, Attempt 2: 5 min, Attempt 3: 30 min,
// Attempt 4: 2 hours, Attempt 5: 12 hours
var retryDelays = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	30 * time.Minute,
	2 * time.Hour,
	12 * time.Hour,
}

const (
	// DefaultMaxAttempts is the default maximum upload attempts per record.
	DefaultMaxAttempts = 5

	// JitterFactor is the ±percentage of jitter applied to delays.
	JitterFactor = 0.2 // ±20%
)

// NextRetryDelay calculates the next retry delay with exponential backoff
// plus jitter. retryCount is 0-indexed (after the first failed attempt,
// retryCount = 0).
func NextRetryDelay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount >= len(retryDelays) {
		retryCount = len(retryDelays) - 1
	}

	base := retryDelays[retryCount]

	// ±20% jitter keeps a fleet of field devices from retrying in lockstep
	jitterRange := float64(base) * JitterFactor
	jitter := (rand.Float64()*2 - 1) * jitterRange

	return time.Duration(float64(base) + jitter)
}

// NextRetryAt calculates the time of the next retry attempt.
func NextRetryAt(retryCount int) time.Time {
	return time.Now().Add(NextRetryDelay(retryCount))
}

// IsExhausted returns true if max attempts have been reached.
func IsExhausted(retryCount, maxAttempts int) bool {
	return retryCount >= maxAttempts
}

// GetRetryDelays returns the configured retry delays (for testing/docs).
func GetRetryDelays() []time.Duration {
	return append([]time.Duration{}, retryDelays...)
}
