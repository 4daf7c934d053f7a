package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/scheduling"
)

// BookingFlow drives the patient's pick-a-date, pick-a-slot, book sequence
// for one doctor at one hospital. It is safe for concurrent use; a slow slot
// response for a date the user has already moved away from is discarded.
type BookingFlow struct {
	client     *Client
	doctorID   uint
	hospitalID uint
	loc        *time.Location

	mu       sync.Mutex
	gen      uint64
	date     string
	slots    []string
	selected string
}

// NewBookingFlow starts a flow. loc is the clinic zone the server uses to
// interpret slot times; nil means UTC.
func (c *Client) NewBookingFlow(doctorID, hospitalID uint, loc *time.Location) *BookingFlow {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingFlow{client: c, doctorID: doctorID, hospitalID: hospitalID, loc: loc}
}

// SelectDate fetches the free slots of date and clears any selected slot.
// ErrStaleResponse is returned when another SelectDate started meanwhile.
func (f *BookingFlow) SelectDate(ctx context.Context, date string) ([]string, error) {
	if _, err := scheduling.ParseDate(date, f.loc); err != nil {
		return nil, &ValidationError{Field: "date", Message: err.Error()}
	}

	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.date = date
	f.slots = nil
	f.selected = ""
	f.mu.Unlock()

	return f.load(ctx, gen, date)
}

func (f *BookingFlow) load(ctx context.Context, gen uint64, date string) ([]string, error) {
	slots, err := f.client.AvailableSlots(ctx, f.doctorID, date)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return nil, ErrStaleResponse
	}
	if err != nil {
		return nil, err
	}
	f.slots = slots
	return append([]string(nil), slots...), nil
}

// Refresh re-reads the slots of the current date.
func (f *BookingFlow) Refresh(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	if f.date == "" {
		f.mu.Unlock()
		return nil, &ValidationError{Field: "date", Message: "select a date first"}
	}
	f.gen++
	gen, date := f.gen, f.date
	f.mu.Unlock()
	return f.load(ctx, gen, date)
}

// SelectSlot marks one of the currently listed slots.
func (f *BookingFlow) SelectSlot(slot string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.slots {
		if s == slot {
			f.selected = slot
			return nil
		}
	}
	return &ValidationError{Field: "slot", Message: "slot " + slot + " is not available"}
}

// Slots returns the last fetched slots.
func (f *BookingFlow) Slots() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.slots...)
}

func (f *BookingFlow) Selected() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected
}

// Book submits the selected slot. On a conflict the slot list is re-fetched
// so the caller can offer what is still free; on success the selection is
// cleared and the list re-fetched.
func (f *BookingFlow) Book(ctx context.Context, reason string) (*model.AppointmentView, error) {
	f.mu.Lock()
	date, slot := f.date, f.selected
	f.mu.Unlock()
	if slot == "" {
		return nil, &ValidationError{Field: "slot", Message: "select a time slot"}
	}

	day, err := scheduling.ParseDate(date, f.loc)
	if err != nil {
		return nil, &ValidationError{Field: "date", Message: err.Error()}
	}
	at, err := scheduling.Combine(day, slot, f.loc)
	if err != nil {
		return nil, &ValidationError{Field: "slot", Message: err.Error()}
	}

	appt, err := f.client.CreateAppointment(ctx, model.CreateAppointmentRequest{
		DoctorID:   f.doctorID,
		HospitalID: f.hospitalID,
		Date:       at,
		Reason:     reason,
	})
	var conflict *ConflictError
	if err != nil && !errors.As(err, &conflict) {
		return nil, err
	}

	f.mu.Lock()
	f.selected = ""
	f.mu.Unlock()
	if _, rerr := f.Refresh(ctx); rerr != nil && !errors.Is(rerr, ErrStaleResponse) {
		f.client.logger.Warn().Err(rerr).Str("date", date).Msg("failed to refresh slots after booking")
	}
	return appt, err
}
