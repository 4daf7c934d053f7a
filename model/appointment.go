package model

import (
	"fmt"
	"time"

	"github.com/ariebrainware/medlink/scheduling"
)

// Appointment is a patient's booking of one slot with a doctor at a hospital.
// @Description Appointment information
type Appointment struct {
	Base
	DoctorID   uint              `json:"doctor_id" gorm:"index;not null" example:"1"`
	HospitalID uint              `json:"hospital_id" gorm:"index;not null" example:"1"`
	PatientID  uint              `json:"patient_id" gorm:"index;not null" example:"3"`
	Date       time.Time         `json:"date" gorm:"index;not null"`
	Status     scheduling.Status `json:"status" gorm:"type:varchar(16);index;not null" example:"PENDING"`
	Reason     string            `json:"reason,omitempty" gorm:"type:text"`
	// SlotKey holds "<doctor_id>:<unix>" while the appointment occupies its
	// slot and is NULL once cancelled. The unique index rejects double booking.
	SlotKey *string `json:"-" gorm:"type:varchar(64);uniqueIndex"`

	Doctor   *Doctor   `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`
	Hospital *Hospital `json:"hospital,omitempty" gorm:"foreignKey:HospitalID"`
	Patient  *User     `json:"patient,omitempty" gorm:"foreignKey:PatientID"`
	Review   *Review   `json:"review,omitempty" gorm:"foreignKey:AppointmentID"`

	HasReviewedDoctor bool `json:"has_reviewed_doctor" gorm:"-"`
}

// SlotKeyFor builds the occupancy key of doctorID at instant t.
func SlotKeyFor(doctorID uint, t time.Time) string {
	return fmt.Sprintf("%d:%d", doctorID, t.Unix())
}

// CreateAppointmentRequest is the body of POST /appointments.
type CreateAppointmentRequest struct {
	DoctorID   uint      `json:"doctor_id" binding:"required" example:"1"`
	HospitalID uint      `json:"hospital_id" binding:"required" example:"1"`
	Date       time.Time `json:"date" binding:"required" example:"2026-10-19T09:00:00Z"`
	Reason     string    `json:"reason,omitempty" example:"Chest pain"`
}

// UpdateStatusRequest is the body of PATCH /appointments/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"CONFIRMED"`
}

// AppointmentView is the wire shape of an appointment list item.
type AppointmentView struct {
	ID                uint              `json:"id"`
	Date              time.Time         `json:"date"`
	Status            scheduling.Status `json:"status"`
	Reason            string            `json:"reason,omitempty"`
	DoctorID          uint              `json:"doctor_id"`
	HospitalID        uint              `json:"hospital_id"`
	PatientID         uint              `json:"patient_id"`
	Doctor            *DoctorSummary    `json:"doctor,omitempty"`
	Hospital          *HospitalSummary  `json:"hospital,omitempty"`
	Patient           *UserSummary      `json:"patient,omitempty"`
	Review            *Review           `json:"review,omitempty"`
	HasReviewedDoctor bool              `json:"has_reviewed_doctor"`
	CreatedAt         time.Time         `json:"created_at"`
}

// View projects a with its loaded associations onto AppointmentView.
func (a Appointment) View() AppointmentView {
	v := AppointmentView{
		ID:                a.ID,
		Date:              a.Date,
		Status:            a.Status,
		Reason:            a.Reason,
		DoctorID:          a.DoctorID,
		HospitalID:        a.HospitalID,
		PatientID:         a.PatientID,
		Review:            a.Review,
		HasReviewedDoctor: a.HasReviewedDoctor,
		CreatedAt:         a.CreatedAt,
	}
	if a.Doctor != nil {
		d := a.Doctor.Summary()
		v.Doctor = &d
	}
	if a.Hospital != nil {
		h := a.Hospital.Summary()
		v.Hospital = &h
	}
	if a.Patient != nil {
		p := a.Patient.Summary()
		v.Patient = &p
	}
	return v
}

// Views projects a slice of appointments.
func Views(appts []Appointment) []AppointmentView {
	out := make([]AppointmentView, len(appts))
	for i, a := range appts {
		out[i] = a.View()
	}
	return out
}
