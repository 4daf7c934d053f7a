package model

import "time"

type Session struct {
	Base
	UserID       uint      `json:"user_id" gorm:"index;not null"`
	SessionToken string    `json:"session_token" gorm:"type:varchar(512);index;not null"`
	ExpiresAt    time.Time `json:"expires_at"`
	ClientIP     string    `json:"client_ip" gorm:"type:varchar(45)"`
	Browser      string    `json:"browser" gorm:"type:varchar(512)"`
}
