package utils

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy yields the wait before a retry attempt (0-indexed).
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ConstantBackoff waits the same delay before every attempt
type ConstantBackoff struct {
	Delay time.Duration
}

// NewConstantBackoff creates a constant backoff strategy
func NewConstantBackoff(delay time.Duration) *ConstantBackoff {
	return &ConstantBackoff{Delay: delay}
}

// NextDelay returns the constant delay
func (cb *ConstantBackoff) NextDelay(int) time.Duration {
	return cb.Delay
}

// ExponentialBackoff grows the delay geometrically up to MaxDelay
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration
	Jitter     bool
}

// NewExponentialBackoff creates an exponential backoff strategy; a non-positive
// multiplier defaults to 2.
func NewExponentialBackoff(baseDelay, maxDelay time.Duration, multiplier float64, jitter bool) *ExponentialBackoff {
	if multiplier <= 0 {
		multiplier = 2.0
	}
	return &ExponentialBackoff{
		BaseDelay:  baseDelay,
		Multiplier: multiplier,
		MaxDelay:   maxDelay,
		Jitter:     jitter,
	}
}

// NextDelay returns BaseDelay * Multiplier^attempt, capped, optionally scaled by [0.5, 1.5).
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt))
	if eb.MaxDelay > 0 && delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}
	if eb.Jitter {
		delay *= 0.5 + rand.Float64()
	}
	return time.Duration(delay)
}

// BackoffFromConfig builds a strategy from its config name ("constant" or
// "exponential"); anything else yields jittered exponential.
func BackoffFromConfig(kind string, baseMs, maxMs int) BackoffStrategy {
	base := time.Duration(baseMs) * time.Millisecond
	maxDelay := time.Duration(maxMs) * time.Millisecond
	if maxDelay == 0 {
		maxDelay = 30 * time.Second
	}

	switch kind {
	case "constant":
		return NewConstantBackoff(base)
	case "exponential":
		return NewExponentialBackoff(base, maxDelay, 2.0, false)
	default:
		return NewExponentialBackoff(base, maxDelay, 2.0, true)
	}
}
