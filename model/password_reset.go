package model

import "time"

// PasswordReset is a single-use reset link issued by POST /auth/forgot-password.
// Only the SHA-256 of the token is stored.
type PasswordReset struct {
	Base
	UserID    uint       `json:"user_id" gorm:"index;not null"`
	TokenHash string     `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}
