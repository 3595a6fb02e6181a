package utils

import (
	"testing"
	"time"
)

func TestConstantBackoff(t *testing.T) {
	delay := 100 * time.Millisecond
	backoff := NewConstantBackoff(delay)

	for i := 0; i < 5; i++ {
		if got := backoff.NextDelay(i); got != delay {
			t.Errorf("Attempt %d: expected %v, got %v", i, delay, got)
		}
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := NewExponentialBackoff(100*time.Millisecond, 10*time.Second, 2.0, false)

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{10, 10 * time.Second},
	}

	for _, tt := range tests {
		if delay := backoff.NextDelay(tt.attempt); delay != tt.expected {
			t.Errorf("Attempt %d: expected %v, got %v", tt.attempt, tt.expected, delay)
		}
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	base := 100 * time.Millisecond
	backoff := NewExponentialBackoff(base, 10*time.Second, 2.0, true)

	for attempt := 0; attempt < 5; attempt++ {
		delay := backoff.NextDelay(attempt)
		expected := float64(base) * float64(uint(1)<<uint(attempt))
		lo := time.Duration(expected * 0.5)
		hi := time.Duration(expected * 1.5)
		if delay < lo || delay > hi {
			t.Errorf("Attempt %d: delay %v outside [%v, %v]", attempt, delay, lo, hi)
		}
	}
}

func TestExponentialBackoffDefaultMultiplier(t *testing.T) {
	backoff := NewExponentialBackoff(100*time.Millisecond, time.Second, 0, false)
	if got := backoff.NextDelay(1); got != 200*time.Millisecond {
		t.Errorf("expected 200ms with default multiplier, got %v", got)
	}
}

func TestBackoffFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		baseMs  int
		maxMs   int
		attempt int
		check   func(time.Duration) bool
	}{
		{"Constant", "constant", 100, 1000, 5, func(d time.Duration) bool { return d == 100*time.Millisecond }},
		{"Exponential", "exponential", 100, 10000, 2, func(d time.Duration) bool { return d == 400*time.Millisecond }},
		{"Unknown defaults to jittered exponential", "other", 100, 10000, 0, func(d time.Duration) bool {
			return d >= 50*time.Millisecond && d <= 150*time.Millisecond
		}},
		{"Zero max defaults to 30s", "exponential", 1000, 0, 10, func(d time.Duration) bool { return d == 30*time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BackoffFromConfig(tt.kind, tt.baseMs, tt.maxMs)
			if b == nil {
				t.Fatal("BackoffFromConfig returned nil")
			}
			if d := b.NextDelay(tt.attempt); !tt.check(d) {
				t.Errorf("delay %v failed check", d)
			}
		})
	}
}
