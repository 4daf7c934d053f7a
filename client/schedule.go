package client

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/scheduling"
)

// ScheduleEditor is a local working copy of a doctor's weekly windows.
// Edits stay local until Save replaces the whole set on the server.
type ScheduleEditor struct {
	client *Client

	mu    sync.Mutex
	slots []model.AvailabilitySlotInput
	dirty bool
}

func (c *Client) NewScheduleEditor() *ScheduleEditor {
	return &ScheduleEditor{client: c}
}

// Load replaces the working copy with the server's current windows.
func (e *ScheduleEditor) Load(ctx context.Context) error {
	profile, err := e.client.MyDoctorProfile(ctx)
	if err != nil {
		return err
	}
	e.reset(profile.Availability)
	return nil
}

func (e *ScheduleEditor) reset(saved []model.AvailabilitySlot) {
	slots := make([]model.AvailabilitySlotInput, len(saved))
	for i, s := range saved {
		slots[i] = model.AvailabilitySlotInput{ID: s.ID, DayOfWeek: s.DayOfWeek, StartTime: s.StartTime, EndTime: s.EndTime}
	}
	e.mu.Lock()
	e.slots = slots
	e.dirty = false
	e.mu.Unlock()
}

// Add appends a window and returns its new id.
func (e *ScheduleEditor) Add(day int, start, end string) (string, error) {
	if day < 0 || day > 6 {
		return "", &ValidationError{Field: "day_of_week", Message: fmt.Sprintf("day %d out of range 0-6", day)}
	}
	id := uuid.NewString()
	e.mu.Lock()
	e.slots = append(e.slots, model.AvailabilitySlotInput{ID: id, DayOfWeek: day, StartTime: start, EndTime: end})
	e.dirty = true
	e.mu.Unlock()
	return id, nil
}

// Update changes the times of window id.
func (e *ScheduleEditor) Update(id, start, end string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.slots {
		if e.slots[i].ID == id {
			e.slots[i].StartTime = start
			e.slots[i].EndTime = end
			e.dirty = true
			return nil
		}
	}
	return &NotFoundError{Message: "window " + id}
}

func (e *ScheduleEditor) Remove(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.slots {
		if e.slots[i].ID == id {
			e.slots = append(e.slots[:i], e.slots[i+1:]...)
			e.dirty = true
			return nil
		}
	}
	return &NotFoundError{Message: "window " + id}
}

// Slots returns the working copy ordered by day and start time.
func (e *ScheduleEditor) Slots() []model.AvailabilitySlotInput {
	e.mu.Lock()
	out := append([]model.AvailabilitySlotInput(nil), e.slots...)
	e.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func (e *ScheduleEditor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// Save validates every window, replaces the server set and reloads the
// working copy from the response. Nothing is sent when a window is invalid.
func (e *ScheduleEditor) Save(ctx context.Context) error {
	slots := e.Slots()
	for _, s := range slots {
		w := scheduling.Window{DayOfWeek: s.DayOfWeek, StartTime: s.StartTime, EndTime: s.EndTime}
		if err := w.Validate(); err != nil {
			return &ValidationError{Field: "availability", Message: err.Error()}
		}
	}
	saved, err := e.client.ReplaceAvailability(ctx, slots)
	if err != nil {
		return err
	}
	e.reset(saved)
	return nil
}
