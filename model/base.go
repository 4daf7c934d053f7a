package model

import (
	"time"

	"gorm.io/gorm"
)

// Base replaces gorm.Model so that rows serialise with snake_case keys.
type Base struct {
	ID        uint           `gorm:"primaryKey" json:"id" example:"1"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// All lists every persisted model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Role{},
		&User{},
		&Session{},
		&Specialization{},
		&Hospital{},
		&Doctor{},
		&AvailabilitySlot{},
		&Appointment{},
		&Review{},
		&ChangeRequest{},
		&SecurityLog{},
		&PasswordReset{},
	}
}
