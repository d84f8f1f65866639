// Package utils provides shared utility functions.
package utils

import (
	"math"
	"time"
)

// BackoffConfig holds exponential backoff parameters.
type BackoffConfig struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
}

// DefaultBackoffConfig returns the backoff schedule used across the monitor:
// 30s doubling up to a 5 minute cap.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Base:   30 * time.Second,
		Max:    300 * time.Second,
		Factor: 2.0,
	}
}

// Delay calculates the backoff duration for a given attempt count.
// Attempt 0 returns the base delay.
func (c BackoffConfig) Delay(attempt uint) time.Duration {
	d := float64(c.Base) * math.Pow(c.Factor, float64(attempt))
	if d > float64(c.Max) {
		d = float64(c.Max)
	}
	return time.Duration(d)
}

// SleepUntil sleeps for d in slices of at most step, calling shouldStop
// between slices. Returns false if shouldStop fired before d elapsed.
// Keeps long backoff sleeps responsive to cancellation.
func SleepUntil(d, step time.Duration, shouldStop func() bool) bool {
	if step <= 0 {
		step = time.Second
	}
	deadline := time.Now().Add(d)
	for {
		if shouldStop() {
			return false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		if remaining < step {
			time.Sleep(remaining)
		} else {
			time.Sleep(step)
		}
	}
}
