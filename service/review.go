package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/notify"
	"github.com/ariebrainware/medlink/scheduling"
	"gorm.io/gorm"
)

const (
	minRating = 1
	maxRating = 5
)

var errAlreadyReviewed = errors.New("already reviewed")

// SubmitReview records the patient's rating of the doctor behind a completed
// appointment and refreshes the doctor's aggregate rating in the same
// transaction. A patient reviews each doctor once.
func (s *Scheduler) SubmitReview(ctx context.Context, db *gorm.DB, caller Principal, req model.ReviewRequest) (*model.Review, error) {
	if req.Rating < minRating || req.Rating > maxRating {
		return nil, NewValidationError("rating must be between %d and %d", minRating, maxRating)
	}
	db = db.WithContext(ctx)

	var appt model.Appointment
	if err := db.First(&appt, req.AppointmentID).Error; err != nil {
		return nil, notFoundOr(err, "appointment", req.AppointmentID)
	}
	if appt.PatientID != caller.UserID {
		return nil, NewForbiddenError("appointment %d does not belong to you", appt.ID)
	}
	if appt.Status != scheduling.StatusCompleted {
		return nil, NewValidationError("appointment not completed")
	}

	review := model.Review{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		Rating:        req.Rating,
		Comment:       strings.TrimSpace(req.Comment),
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		err := tx.Model(&model.Review{}).
			Where("patient_id = ? AND doctor_id = ?", review.PatientID, review.DoctorID).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return errAlreadyReviewed
		}
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		return refreshDoctorRating(tx, review.DoctorID)
	})
	if errors.Is(err, errAlreadyReviewed) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, NewConflictError("you have already reviewed this doctor")
	}
	if err != nil {
		return nil, NewInternalError("failed to submit review", err)
	}

	ev := notify.NewEvent(notify.EventReviewSubmitted)
	ev.AppointmentID, ev.DoctorID, ev.PatientID = appt.ID, appt.DoctorID, appt.PatientID
	ev.Status, ev.Date = appt.Status, appt.Date
	s.dispatch(ctx, ev)

	return &review, nil
}

// refreshDoctorRating recomputes rating (mean, two decimals) and review_count
// from the reviews table.
func refreshDoctorRating(tx *gorm.DB, doctorID uint) error {
	var agg struct {
		Avg   float64
		Count int
	}
	err := tx.Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("doctor_id = ?", doctorID).
		Scan(&agg).Error
	if err != nil {
		return err
	}
	return tx.Model(&model.Doctor{}).Where("id = ?", doctorID).Updates(map[string]interface{}{
		"rating":       math.Round(agg.Avg*100) / 100,
		"review_count": agg.Count,
	}).Error
}
