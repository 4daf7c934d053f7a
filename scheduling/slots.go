package scheduling

import (
	"sort"
	"time"
)

// DefaultGranularity is the slot length used when none is configured.
const DefaultGranularity = 30 * time.Minute

// Generator turns weekly windows into bookable times of day for a date.
type Generator struct {
	Granularity time.Duration
	Location    *time.Location
}

// NewGenerator returns a Generator, substituting defaults for a non-positive
// granularity or a nil location.
func NewGenerator(granularity time.Duration, loc *time.Location) Generator {
	if granularity < time.Minute {
		granularity = DefaultGranularity
	}
	if loc == nil {
		loc = time.UTC
	}
	return Generator{Granularity: granularity, Location: loc}
}

func (g Generator) step() int {
	return int(g.Granularity / time.Minute)
}

// Candidates returns every slot start (minutes after midnight) produced by the
// windows that fall on date's weekday, ascending and de-duplicated. Windows
// that fail validation are skipped, as are wall-clock times the location
// skips over (spring-forward gaps).
func (g Generator) Candidates(windows []Window, date time.Time) []int {
	weekday := int(date.In(g.Location).Weekday())
	step := g.step()

	seen := make(map[int]struct{})
	for _, w := range windows {
		if w.DayOfWeek != weekday || w.Validate() != nil {
			continue
		}
		start, _ := ParseTimeOfDay(w.StartTime)
		end, _ := ParseTimeOfDay(w.EndTime)
		for t := start; t+step <= end; t += step {
			seen[t] = struct{}{}
		}
	}

	out := make([]int, 0, len(seen))
	for t := range seen {
		if g.exists(date, t) {
			out = append(out, t)
		}
	}
	sort.Ints(out)
	return out
}

// exists reports whether minute m of date's calendar day occurs on the local clock.
func (g Generator) exists(date time.Time, m int) bool {
	at, err := Combine(date, FormatTimeOfDay(m), g.Location)
	return err == nil && MinuteOfDay(at, g.Location) == m
}

// Available returns the "HH:MM" slots of date minus those whose start
// coincides with a booked instant. booked may contain instants on any day;
// only those falling on date in the generator's location are considered.
func (g Generator) Available(windows []Window, date time.Time, booked []time.Time) []string {
	y, m, d := date.In(g.Location).Date()
	taken := make(map[int]struct{}, len(booked))
	for _, b := range booked {
		by, bm, bd := b.In(g.Location).Date()
		if by == y && bm == m && bd == d {
			taken[MinuteOfDay(b, g.Location)] = struct{}{}
		}
	}

	candidates := g.Candidates(windows, date)
	out := make([]string, 0, len(candidates))
	for _, t := range candidates {
		if _, ok := taken[t]; ok {
			continue
		}
		out = append(out, FormatTimeOfDay(t))
	}
	return out
}

// Fits reports whether instant t starts one of the slots generated by windows
// on its own calendar day, ignoring existing bookings.
func (g Generator) Fits(windows []Window, t time.Time) bool {
	lt := t.In(g.Location)
	if lt.Second() != 0 || lt.Nanosecond() != 0 {
		return false
	}
	minute := MinuteOfDay(lt, g.Location)
	for _, c := range g.Candidates(windows, lt) {
		if c == minute {
			return true
		}
	}
	return false
}
