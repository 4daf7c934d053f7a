package scheduling

import (
	"fmt"
	"sort"
)

// Window is a recurring weekly interval during which a doctor accepts bookings.
type Window struct {
	DayOfWeek int
	StartTime string
	EndTime   string
}

// Validate checks the day index, both time strings and start < end.
func (w Window) Validate() error {
	if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week %d out of range 0-6", w.DayOfWeek)
	}
	start, err := ParseTimeOfDay(w.StartTime)
	if err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	end, err := ParseTimeOfDay(w.EndTime)
	if err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	if start >= end {
		return fmt.Errorf("start_time %s must be before end_time %s", w.StartTime, w.EndTime)
	}
	return nil
}

// SortWindows orders windows by day, then start time, then end time.
func SortWindows(ws []Window) {
	sort.SliceStable(ws, func(i, j int) bool {
		if ws[i].DayOfWeek != ws[j].DayOfWeek {
			return ws[i].DayOfWeek < ws[j].DayOfWeek
		}
		if ws[i].StartTime != ws[j].StartTime {
			return ws[i].StartTime < ws[j].StartTime
		}
		return ws[i].EndTime < ws[j].EndTime
	})
}
