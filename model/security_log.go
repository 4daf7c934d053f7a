package model

import "gorm.io/datatypes"

// SecurityLog is one persisted audit event: logins, lockouts, role
// rejections and the endpoint calls of signed-in users.
type SecurityLog struct {
	Base
	EventType string `json:"event_type" gorm:"type:varchar(64);index"`
	UserID    string `json:"user_id" gorm:"type:varchar(64);index"`
	Email     string `json:"email" gorm:"type:varchar(191);index"`
	IP        string `json:"ip" gorm:"type:varchar(45)"`
	// "City/Country", or whichever half the GeoIP lookup resolved.
	Location  string         `json:"location" gorm:"type:varchar(255);index"`
	UserAgent string         `json:"user_agent" gorm:"type:varchar(512)"`
	Message   string         `json:"message" gorm:"type:text"`
	Details   datatypes.JSON `json:"details,omitempty" gorm:"type:json"`
}
