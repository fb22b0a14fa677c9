// internal/timeparse
// ------------------
// This internal package provides helpers for turning the loosely formatted duration strings found in
// environment variables and upstream headers into time.Duration values.
//
// Functions:
// - ParseDuration: Convert "800" (milliseconds), "1s", "6m0s" or any Go duration string.
// - SecondsToDuration: Convert a Retry-After style seconds value.
package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration converts strings like "800", "1s", "6m0s" into a duration.
// A bare integer is read as milliseconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// SecondsToDuration converts a header value in whole seconds, returning 0 when it cannot be parsed.
func SecondsToDuration(s string) time.Duration {
	sec, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || sec < 0 {
		return 0
	}
	return time.Duration(sec) * time.Second
}
