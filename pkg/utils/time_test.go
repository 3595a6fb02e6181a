package utils

import (
	"testing"
	"time"
)

func TestTimeToMs(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected float64
	}{
		{time.Millisecond, 1},
		{1500 * time.Microsecond, 1.5},
		{2 * time.Second, 2000},
	}
	for _, tt := range tests {
		if got := TimeToMs(tt.d); got != tt.expected {
			t.Errorf("TimeToMs(%v) = %f, expected %f", tt.d, got, tt.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{1500 * time.Nanosecond, "2µs"},
		{1234567 * time.Nanosecond, "1ms"},
		{1234 * time.Millisecond, "1.23s"},
		{90*time.Second + 400*time.Millisecond, "1m30s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.expected {
			t.Errorf("FormatDuration(%v) = %q, expected %q", tt.d, got, tt.expected)
		}
	}
}

func TestNowUnixMs(t *testing.T) {
	before := time.Now().UTC().UnixMilli()
	got := NowUnixMs()
	if got < before {
		t.Errorf("NowUnixMs went backwards: %d < %d", got, before)
	}
}
