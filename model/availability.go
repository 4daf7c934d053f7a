package model

import (
	"time"

	"github.com/ariebrainware/medlink/scheduling"
)

// AvailabilitySlot is one recurring weekly window during which a doctor can be booked.
// @Description Weekly availability window
type AvailabilitySlot struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey" example:"5d0c7b0e-8f8b-4d59-9a4a-1f0f5b7c2d11"`
	DoctorID  uint      `json:"-" gorm:"index;not null"`
	DayOfWeek int       `json:"day_of_week" gorm:"not null" example:"1"`
	StartTime string    `json:"start_time" gorm:"type:varchar(5);not null" example:"09:00"`
	EndTime   string    `json:"end_time" gorm:"type:varchar(5);not null" example:"11:00"`
	CreatedAt time.Time `json:"-"`
}

func (s AvailabilitySlot) Window() scheduling.Window {
	return scheduling.Window{DayOfWeek: s.DayOfWeek, StartTime: s.StartTime, EndTime: s.EndTime}
}

// Windows projects slots onto the scheduling rules' input type.
func Windows(slots []AvailabilitySlot) []scheduling.Window {
	out := make([]scheduling.Window, len(slots))
	for i, s := range slots {
		out[i] = s.Window()
	}
	return out
}

// AvailabilityRequest is the body of PUT /doctor/availability.
type AvailabilityRequest struct {
	Availability []AvailabilitySlotInput `json:"availability"`
}

type AvailabilitySlotInput struct {
	ID        string `json:"id,omitempty"`
	DayOfWeek int    `json:"day_of_week" example:"1"`
	StartTime string `json:"start_time" example:"09:00"`
	EndTime   string `json:"end_time" example:"11:00"`
}
