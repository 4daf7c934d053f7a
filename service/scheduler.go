// Package service implements the booking core on top of gorm: availability,
// slot generation, the appointment lifecycle and the review gate. Every
// operation takes the *gorm.DB to run against so handlers can pass the
// request-scoped connection.
package service

import (
	"context"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/notify"
	"github.com/ariebrainware/medlink/scheduling"
	"gorm.io/gorm"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID uint
	RoleID uint32
}

func (p Principal) Role() string {
	return model.RoleName(p.RoleID)
}

// Scheduler bundles the slot rules and the notifier used by the booking operations.
type Scheduler struct {
	Slots    scheduling.Generator
	Notifier notify.Notifier
}

func NewScheduler(gen scheduling.Generator, n notify.Notifier) *Scheduler {
	return &Scheduler{Slots: gen, Notifier: n}
}

func (s *Scheduler) dispatch(ctx context.Context, ev notify.Event) {
	notify.Dispatch(ctx, s.Notifier, ev)
}

func loadDoctor(db *gorm.DB, id uint) (model.Doctor, error) {
	var doctor model.Doctor
	if err := db.First(&doctor, id).Error; err != nil {
		return model.Doctor{}, notFoundOr(err, "doctor", id)
	}
	return doctor, nil
}

// DoctorForUser returns the doctor profile attached to a DOCTOR login.
func DoctorForUser(ctx context.Context, db *gorm.DB, userID uint) (model.Doctor, error) {
	var doctor model.Doctor
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&doctor).Error
	if err != nil {
		return model.Doctor{}, notFoundOr(err, "doctor profile for user", userID)
	}
	return doctor, nil
}
