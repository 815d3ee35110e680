package client

import (
	"log"
	"time"
)

// BackoffPolicy controls how connection attempts are retried. Delays are
// ordinary blocking sleeps; a client has nothing else to do while it
// waits.
type BackoffPolicy struct {
	// MaxAttempts is the total number of attempts, first try included.
	MaxAttempts int

	// Step scales the delay: attempt n sleeps n*Step before attempt n+1.
	Step time.Duration
}

// DefaultBackoff retries three more times after the first failure, with
// 2, 4 and 6 second delays.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts: 4,
		Step:        2 * time.Second,
	}
}

// DelayFor returns the delay to sleep after the given 1-based attempt.
func (p BackoffPolicy) DelayFor(attempt int) time.Duration {
	return time.Duration(attempt) * p.Step
}

// Do runs fn until it succeeds or the attempt budget is spent, returning
// the last error on exhaustion.
func (p BackoffPolicy) Do(fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < p.MaxAttempts {
			delay := p.DelayFor(attempt)
			log.Printf("INFO: attempt %d failed: %v; waiting %s before retry", attempt, lastErr, delay)
			time.Sleep(delay)
		}
	}
	return lastErr
}
