package client

import "time"

const (
	// backoffCap bounds the exponential component of the delay.
	backoffCap = 30 * time.Second
	// backoffStep is a small per-attempt offset that spreads otherwise
	// synchronized retries apart without randomness.
	backoffStep = 137 * time.Millisecond
)

// Backoff returns the delay to wait after failed attempt n, counted from 1.
// The schedule is min(30s, 2^n seconds) plus n*137ms, so consecutive
// failures wait 2.137s, 4.274s, 8.411s, 16.548s and then 30.685s. The
// schedule is deterministic: the same attempt always yields the same delay.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := backoffCap
	if attempt < 5 {
		delay = time.Duration(1<<uint(attempt)) * time.Second
	}
	return delay + time.Duration(attempt)*backoffStep
}
