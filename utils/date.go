package utils

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02" // canonical calendar-day form

// dateLayouts are the literal forms accepted by NormalizeDate, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"20060102",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NormalizeDate collapses any supported literal date representation into the
// canonical YYYY-MM-DD string. Unrecognized input is a hard error.
func NormalizeDate(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("empty date string")
	}

	// RFC3339 timestamps collapse to their calendar day
	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return t.Format(DateLayout), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return t.Format(DateLayout), nil
		}
	}

	return "", fmt.Errorf("unrecognized date format: %v", s)
}

func MustParseDate(dateStr string) time.Time {
	t, _ := time.ParseInLocation(DateLayout, dateStr, time.UTC)
	return t
}

func ParseISOTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, fmt.Errorf("empty time string")
	}

	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return &t, nil
	}

	t, err = time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return &t, nil
	}

	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if tt, e := time.ParseInLocation(layout, s, time.UTC); e == nil {
			return &tt, nil
		}
	}

	return nil, fmt.Errorf("failed to parse time: %v", s)
}
