package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 2026-10-19 is a Monday.
var monday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func TestWindowValidate(t *testing.T) {
	assert.NoError(t, Window{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"}.Validate())
	assert.Error(t, Window{DayOfWeek: 7, StartTime: "09:00", EndTime: "11:00"}.Validate())
	assert.Error(t, Window{DayOfWeek: -1, StartTime: "09:00", EndTime: "11:00"}.Validate())
	assert.Error(t, Window{DayOfWeek: 1, StartTime: "11:00", EndTime: "09:00"}.Validate())
	assert.Error(t, Window{DayOfWeek: 1, StartTime: "09:00", EndTime: "09:00"}.Validate())
	assert.Error(t, Window{DayOfWeek: 1, StartTime: "", EndTime: "09:00"}.Validate())
}

func TestAvailable_MondayMorning(t *testing.T) {
	g := NewGenerator(30*time.Minute, time.UTC)
	windows := []Window{{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"}}

	got := g.Available(windows, monday, nil)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, got)
}

func TestAvailable_NoWindowForWeekday(t *testing.T) {
	g := NewGenerator(30*time.Minute, time.UTC)
	windows := []Window{{DayOfWeek: 2, StartTime: "09:00", EndTime: "11:00"}}

	got := g.Available(windows, monday, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAvailable_BookingShrinksResult(t *testing.T) {
	g := NewGenerator(30*time.Minute, time.UTC)
	windows := []Window{{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"}}

	before := g.Available(windows, monday, nil)
	booked := []time.Time{monday.Add(9*time.Hour + 30*time.Minute)}
	after := g.Available(windows, monday, booked)

	assert.Less(t, len(after), len(before))
	assert.Equal(t, []string{"09:00", "10:00", "10:30"}, after)
}

func TestAvailable_IgnoresBookingsOnOtherDays(t *testing.T) {
	g := NewGenerator(30*time.Minute, time.UTC)
	windows := []Window{{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}}

	nextMonday := monday.AddDate(0, 0, 7).Add(9 * time.Hour)
	got := g.Available(windows, monday, []time.Time{nextMonday})
	assert.Equal(t, []string{"09:00", "09:30"}, got)
}

func TestAvailable_Idempotent(t *testing.T) {
	g := NewGenerator(30*time.Minute, time.UTC)
	windows := []Window{
		{DayOfWeek: 1, StartTime: "14:00", EndTime: "16:00"},
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"},
	}
	booked := []time.Time{monday.Add(14 * time.Hour)}

	assert.Equal(t, g.Available(windows, monday, booked), g.Available(windows, monday, booked))
}

func TestAvailable_OverlappingWindowsAreMerged(t *testing.T) {
	g := NewGenerator(30*time.Minute, time.UTC)
	windows := []Window{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:30"},
		{DayOfWeek: 1, StartTime: "10:00", EndTime: "11:00"},
	}

	got := g.Available(windows, monday, nil)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, got)
}

func TestAvailable_PartialTailIsDropped(t *testing.T) {
	g := NewGenerator(30*time.Minute, time.UTC)
	windows := []Window{{DayOfWeek: 1, StartTime: "09:00", EndTime: "09:45"}}

	assert.Equal(t, []string{"09:00"}, g.Available(windows, monday, nil))
}

func TestAvailable_SkipsInvalidWindows(t *testing.T) {
	g := NewGenerator(30*time.Minute, time.UTC)
	windows := []Window{
		{DayOfWeek: 1, StartTime: "12:00", EndTime: "11:00"},
		{DayOfWeek: 1, StartTime: "bad", EndTime: "11:00"},
	}

	assert.Empty(t, g.Available(windows, monday, nil))
}

func TestAvailable_RespectsLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	g := NewGenerator(30*time.Minute, loc)
	windows := []Window{{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}}
	date := time.Date(2026, 10, 19, 0, 0, 0, 0, loc)

	// 02:00 UTC is 09:00 in Jakarta on the same Monday.
	booked := []time.Time{time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC)}
	assert.Equal(t, []string{"09:30"}, g.Available(windows, date, booked))
}

func TestAvailable_SkipsSpringForwardGap(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	g := NewGenerator(30*time.Minute, loc)
	// Clocks jump from 02:00 to 03:00 on Sunday 2026-03-08.
	windows := []Window{{DayOfWeek: 0, StartTime: "01:00", EndTime: "04:00"}}
	date := time.Date(2026, 3, 8, 0, 0, 0, 0, loc)

	slots := g.Available(windows, date, nil)
	assert.Equal(t, []string{"01:00", "01:30", "03:00", "03:30"}, slots)
	for _, s := range slots {
		at, err := Combine(date, s, loc)
		assert.NoError(t, err)
		assert.True(t, g.Fits(windows, at), "listed slot %s must be bookable", s)
	}

	booked, err := Combine(date, "03:00", loc)
	assert.NoError(t, err)
	assert.Equal(t, []string{"01:00", "01:30", "03:30"}, g.Available(windows, date, []time.Time{booked}))
}

func TestNewGenerator_Defaults(t *testing.T) {
	g := NewGenerator(0, nil)
	assert.Equal(t, DefaultGranularity, g.Granularity)
	assert.Equal(t, time.UTC, g.Location)
}

func TestFits(t *testing.T) {
	g := NewGenerator(30*time.Minute, time.UTC)
	windows := []Window{{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"}}

	assert.True(t, g.Fits(windows, monday.Add(9*time.Hour)))
	assert.True(t, g.Fits(windows, monday.Add(10*time.Hour+30*time.Minute)))
	assert.False(t, g.Fits(windows, monday.Add(11*time.Hour)), "window end is not a slot start")
	assert.False(t, g.Fits(windows, monday.Add(9*time.Hour+15*time.Minute)), "off-grid minute")
	assert.False(t, g.Fits(windows, monday.Add(9*time.Hour+time.Second)), "seconds must be zero")
	assert.False(t, g.Fits(windows, monday.AddDate(0, 0, 1).Add(9*time.Hour)), "tuesday has no window")
}

func TestSortWindows(t *testing.T) {
	ws := []Window{
		{DayOfWeek: 3, StartTime: "09:00", EndTime: "10:00"},
		{DayOfWeek: 1, StartTime: "13:00", EndTime: "14:00"},
		{DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00"},
	}
	SortWindows(ws)
	assert.Equal(t, 1, ws[0].DayOfWeek)
	assert.Equal(t, "08:00", ws[0].StartTime)
	assert.Equal(t, "13:00", ws[1].StartTime)
	assert.Equal(t, 3, ws[2].DayOfWeek)
}
