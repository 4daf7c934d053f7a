// Package scheduling holds the storage-free rules of the booking domain:
// wall-clock parsing, slot generation from weekly windows and the
// appointment status state machine.
package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ParseTimeOfDay parses an "HH:MM" 24h string into minutes after midnight.
func ParseTimeOfDay(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// FormatTimeOfDay renders minutes after midnight as "HH:MM".
func FormatTimeOfDay(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// MinuteOfDay returns the wall-clock minute of t in loc.
func MinuteOfDay(t time.Time, loc *time.Location) int {
	lt := t.In(loc)
	return lt.Hour()*60 + lt.Minute()
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// Combine joins a calendar date with an "HH:MM" time of day in loc.
func Combine(date time.Time, timeOfDay string, loc *time.Location) (time.Time, error) {
	m, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := date.In(loc).Date()
	return time.Date(y, mo, d, m/60, m%60, 0, 0, loc), nil
}
