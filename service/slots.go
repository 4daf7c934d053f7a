package service

import (
	"context"
	"time"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/scheduling"
	"gorm.io/gorm"
)

// GetAvailableSlots lists the free "HH:MM" slot starts of a doctor on date
// (YYYY-MM-DD in the clinic time zone). A weekday without windows yields an
// empty list.
func (s *Scheduler) GetAvailableSlots(ctx context.Context, db *gorm.DB, doctorID uint, date string) ([]string, error) {
	day, err := scheduling.ParseDate(date, s.Slots.Location)
	if err != nil {
		return nil, NewValidationError("%v", err)
	}
	db = db.WithContext(ctx)
	if _, err := loadDoctor(db, doctorID); err != nil {
		return nil, err
	}

	slots, err := listAvailability(db, doctorID)
	if err != nil {
		return nil, err
	}
	booked, err := bookedInstants(db, doctorID, day)
	if err != nil {
		return nil, err
	}
	return s.Slots.Available(model.Windows(slots), day, booked), nil
}

// bookedInstants returns the start times held by non-cancelled appointments
// of the doctor during the local calendar day beginning at day.
func bookedInstants(db *gorm.DB, doctorID uint, day time.Time) ([]time.Time, error) {
	start := day.UTC()
	end := day.AddDate(0, 0, 1).UTC()

	var dates []time.Time
	err := db.Model(&model.Appointment{}).
		Where("doctor_id = ? AND status <> ? AND date >= ? AND date < ?", doctorID, scheduling.StatusCancelled, start, end).
		Pluck("date", &dates).Error
	if err != nil {
		return nil, NewInternalError("failed to load bookings", err)
	}
	return dates, nil
}
