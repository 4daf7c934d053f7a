package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/notify"
	"github.com/ariebrainware/medlink/scheduling"
	"gorm.io/gorm"
)

// CreateAppointment books a PENDING appointment for the calling patient.
// The instant must start one of the doctor's generated slots and must not be
// held by another non-cancelled appointment; either failure is a Conflict.
func (s *Scheduler) CreateAppointment(ctx context.Context, db *gorm.DB, caller Principal, req model.CreateAppointmentRequest) (*model.Appointment, error) {
	if caller.RoleID != model.RoleIDUser {
		return nil, NewForbiddenError("only patients can book appointments")
	}
	if req.Date.IsZero() {
		return nil, NewValidationError("date is required")
	}
	db = db.WithContext(ctx)

	var doctor model.Doctor
	if err := db.Preload("Hospitals").First(&doctor, req.DoctorID).Error; err != nil {
		return nil, notFoundOr(err, "doctor", req.DoctorID)
	}
	var hospital model.Hospital
	if err := db.First(&hospital, req.HospitalID).Error; err != nil {
		return nil, notFoundOr(err, "hospital", req.HospitalID)
	}
	if !practisesAt(doctor, hospital.ID) {
		return nil, NewValidationError("doctor %d does not practise at hospital %d", doctor.ID, hospital.ID)
	}

	at := req.Date.UTC()
	windows, err := listAvailability(db, doctor.ID)
	if err != nil {
		return nil, err
	}
	if !s.Slots.Fits(model.Windows(windows), at) {
		return nil, NewConflictError("%s is not an available slot", at.In(s.Slots.Location).Format(time.RFC3339))
	}

	key := model.SlotKeyFor(doctor.ID, at)
	appt := model.Appointment{
		DoctorID:   doctor.ID,
		HospitalID: hospital.ID,
		PatientID:  caller.UserID,
		Date:       at,
		Status:     scheduling.StatusPending,
		Reason:     strings.TrimSpace(req.Reason),
		SlotKey:    &key,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		var held int64
		if err := tx.Model(&model.Appointment{}).Where("slot_key = ?", key).Count(&held).Error; err != nil {
			return err
		}
		if held > 0 {
			return errSlotTaken
		}
		return tx.Create(&appt).Error
	})
	if errors.Is(err, errSlotTaken) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, NewConflictError("slot already booked")
	}
	if err != nil {
		return nil, NewInternalError("failed to create appointment", err)
	}

	ev := notify.NewEvent(notify.EventAppointmentCreated)
	ev.AppointmentID, ev.DoctorID, ev.PatientID = appt.ID, appt.DoctorID, appt.PatientID
	ev.Status, ev.Date = appt.Status, appt.Date
	s.dispatch(ctx, ev)

	return loadAppointment(db, appt.ID)
}

var errSlotTaken = errors.New("slot taken")

func practisesAt(doctor model.Doctor, hospitalID uint) bool {
	for _, h := range doctor.Hospitals {
		if h.ID == hospitalID {
			return true
		}
	}
	return false
}

func withAppointmentDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Doctor").
		Preload("Doctor.Specializations").
		Preload("Hospital").
		Preload("Patient").
		Preload("Review")
}

func loadAppointment(db *gorm.DB, id uint) (*model.Appointment, error) {
	var appt model.Appointment
	if err := withAppointmentDetails(db).First(&appt, id).Error; err != nil {
		return nil, notFoundOr(err, "appointment", id)
	}
	return &appt, nil
}

// actorFor decides in which capacity caller acts on appt. Admins always act
// as ADMIN, the owning doctor as DOCTOR and the booking patient as PATIENT.
func actorFor(db *gorm.DB, caller Principal, appt model.Appointment) (scheduling.Actor, bool) {
	switch caller.RoleID {
	case model.RoleIDAdmin:
		return scheduling.ActorAdmin, true
	case model.RoleIDDoctor:
		var doctor model.Doctor
		if err := db.Select("id").Where("user_id = ?", caller.UserID).First(&doctor).Error; err == nil && doctor.ID == appt.DoctorID {
			return scheduling.ActorDoctor, true
		}
	}
	if appt.PatientID == caller.UserID {
		return scheduling.ActorPatient, true
	}
	return "", false
}

// UpdateStatus moves an appointment along the lifecycle. An edge the state
// machine does not have is a Conflict; an edge the caller may not take is
// Forbidden. Cancelling frees the slot for new bookings.
func (s *Scheduler) UpdateStatus(ctx context.Context, db *gorm.DB, caller Principal, appointmentID uint, status string) (*model.Appointment, error) {
	to, err := scheduling.ParseStatus(strings.ToUpper(strings.TrimSpace(status)))
	if err != nil {
		return nil, NewValidationError("%v", err)
	}
	db = db.WithContext(ctx)

	var appt model.Appointment
	if err := db.First(&appt, appointmentID).Error; err != nil {
		return nil, notFoundOr(err, "appointment", appointmentID)
	}
	actor, ok := actorFor(db, caller, appt)
	if !ok {
		return nil, NewForbiddenError("appointment %d does not belong to you", appt.ID)
	}
	from := appt.Status
	if !scheduling.CanTransition(from, to) {
		return nil, NewConflictError("cannot move appointment from %s to %s", from, to)
	}
	if !scheduling.Allowed(actor, from, to) {
		return nil, NewForbiddenError("%s may not move appointment from %s to %s", strings.ToLower(string(actor)), from, to)
	}

	updates := map[string]interface{}{"status": to}
	if to == scheduling.StatusCancelled {
		updates["slot_key"] = nil
	}
	// Guard on the current status so two concurrent moves cannot both win.
	res := db.Model(&model.Appointment{}).
		Where("id = ? AND status = ?", appt.ID, from).
		Updates(updates)
	if res.Error != nil {
		return nil, NewInternalError("failed to update appointment", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NewConflictError("appointment %d was modified concurrently", appt.ID)
	}

	ev := notify.NewEvent(notify.EventStatusChanged)
	ev.AppointmentID, ev.DoctorID, ev.PatientID = appt.ID, appt.DoctorID, appt.PatientID
	ev.Status, ev.PreviousState, ev.Date = to, from, appt.Date
	s.dispatch(ctx, ev)

	return loadAppointment(db, appt.ID)
}

// ListAppointmentsForActor returns the caller's appointments, newest first.
// With role DOCTOR the caller's doctor profile is listed instead of their
// own bookings. Each item reports whether its patient has already reviewed
// its doctor.
func (s *Scheduler) ListAppointmentsForActor(ctx context.Context, db *gorm.DB, caller Principal, role string) ([]model.Appointment, error) {
	db = db.WithContext(ctx)
	q := withAppointmentDetails(db).Order("date DESC")

	if strings.EqualFold(role, model.RoleDoctor) {
		doctor, err := DoctorForUser(ctx, db, caller.UserID)
		if IsType(err, ErrorTypeNotFound) {
			return nil, NewForbiddenError("user %d has no doctor profile", caller.UserID)
		}
		if err != nil {
			return nil, err
		}
		q = q.Where("doctor_id = ?", doctor.ID)
	} else {
		q = q.Where("patient_id = ?", caller.UserID)
	}

	appts := []model.Appointment{}
	if err := q.Find(&appts).Error; err != nil {
		return nil, NewInternalError("failed to list appointments", err)
	}
	if err := markReviewedDoctors(db, appts); err != nil {
		return nil, err
	}
	return appts, nil
}

func markReviewedDoctors(db *gorm.DB, appts []model.Appointment) error {
	if len(appts) == 0 {
		return nil
	}
	patients := make([]uint, 0, len(appts))
	doctors := make([]uint, 0, len(appts))
	for _, a := range appts {
		patients = append(patients, a.PatientID)
		doctors = append(doctors, a.DoctorID)
	}

	var pairs []struct {
		PatientID uint
		DoctorID  uint
	}
	err := db.Model(&model.Review{}).
		Select("patient_id, doctor_id").
		Where("patient_id IN ? AND doctor_id IN ?", patients, doctors).
		Scan(&pairs).Error
	if err != nil {
		return NewInternalError("failed to load reviews", err)
	}

	reviewed := make(map[[2]uint]struct{}, len(pairs))
	for _, p := range pairs {
		reviewed[[2]uint{p.PatientID, p.DoctorID}] = struct{}{}
	}
	for i := range appts {
		_, appts[i].HasReviewedDoctor = reviewed[[2]uint{appts[i].PatientID, appts[i].DoctorID}]
	}
	return nil
}
