package model

// Review is a patient's rating of a doctor after a completed appointment.
// A patient reviews a given doctor at most once.
type Review struct {
	Base
	AppointmentID uint   `json:"appointment_id" gorm:"uniqueIndex;not null"`
	PatientID     uint   `json:"patient_id" gorm:"uniqueIndex:idx_review_patient_doctor;not null"`
	DoctorID      uint   `json:"doctor_id" gorm:"uniqueIndex:idx_review_patient_doctor;not null"`
	Rating        int    `json:"rating" gorm:"not null" example:"5"`
	Comment       string `json:"comment,omitempty" gorm:"type:text"`
}

// ReviewRequest is the body of POST /reviews.
type ReviewRequest struct {
	AppointmentID uint   `json:"appointment_id" binding:"required" example:"1"`
	Rating        int    `json:"rating" example:"5"`
	Comment       string `json:"comment,omitempty" example:"Very attentive"`
}
