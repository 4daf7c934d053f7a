package model

import "gorm.io/datatypes"

const (
	ChangeRequestPending  = "PENDING"
	ChangeRequestApproved = "APPROVED"
	ChangeRequestRejected = "REJECTED"
)

// ChangeRequest is a doctor's proposed profile edit awaiting admin review.
type ChangeRequest struct {
	Base
	DoctorID         uint           `json:"doctor_id" gorm:"index;not null"`
	RequestedChanges datatypes.JSON `json:"requested_changes" gorm:"type:json"`
	Status           string         `json:"status" gorm:"type:varchar(16);index;not null;default:PENDING"`
	Doctor           *Doctor        `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`
}

// ProcessChangeRequest is the admin decision body.
type ProcessChangeRequest struct {
	Status string `json:"status" binding:"required,oneof=APPROVED REJECTED" example:"APPROVED"`
}
