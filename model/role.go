package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Role names as stored in the roles table and returned on login.
const (
	RoleAdmin  = "ADMIN"
	RoleUser   = "USER"
	RoleDoctor = "DOCTOR"
)

// Fixed role ids. Sessions cache the id, so they must not drift between deployments.
const (
	RoleIDAdmin  uint32 = 1
	RoleIDUser   uint32 = 2
	RoleIDDoctor uint32 = 3
)

type Role struct {
	ID        uint32    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// RoleName maps a role id to its name, or "" when unknown.
func RoleName(id uint32) string {
	switch id {
	case RoleIDAdmin:
		return RoleAdmin
	case RoleIDUser:
		return RoleUser
	case RoleIDDoctor:
		return RoleDoctor
	}
	return ""
}

func SeedRoles(db *gorm.DB) error {
	roles := []Role{
		{ID: RoleIDAdmin, Name: RoleAdmin},
		{ID: RoleIDUser, Name: RoleUser},
		{ID: RoleIDDoctor, Name: RoleDoctor},
	}

	for _, role := range roles {
		var existingRole Role
		err := db.Where("name = ?", role.Name).First(&existingRole).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.Name, err)
		}
	}
	return nil
}
