package utils

import "time"

// NowUnixMs returns the current UTC time in milliseconds
func NowUnixMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// TimeToMs converts time.Duration to milliseconds
func TimeToMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}
