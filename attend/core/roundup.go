package core

import (
	"fmt"
	"time"
)

// Supported round-up intervals in minutes.
const (
	RoundUpInterval15 = 15
	RoundUpInterval30 = 30
)

func ValidRoundUpInterval(minutes int) bool {
	return minutes == RoundUpInterval15 || minutes == RoundUpInterval30
}

// RoundUpTime advances t to the next boundary of the given interval.
// A time already on an exact boundary is returned unchanged.
func RoundUpTime(t time.Time, intervalMinutes int) (time.Time, error) {
	if !ValidRoundUpInterval(intervalMinutes) {
		return time.Time{}, fmt.Errorf("unsupported round-up interval: %d", intervalMinutes)
	}

	interval := time.Duration(intervalMinutes) * time.Minute
	truncated := t.Truncate(interval)
	if truncated.Equal(t) {
		return t, nil
	}
	return truncated.Add(interval), nil
}
