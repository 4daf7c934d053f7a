package model

// User is an account of any role. Patients are users with the USER role.
type User struct {
	Base
	Name           string `json:"name" gorm:"type:varchar(191);not null" example:"Jane Doe"`
	Email          string `json:"email" gorm:"type:varchar(191);uniqueIndex;not null" example:"jane@example.com"`
	Password       string `json:"-" gorm:"type:varchar(255)"`
	PasswordSalt   string `json:"-" gorm:"type:varchar(64)"`
	RoleID         uint32 `json:"role_id" gorm:"index" example:"2"`
	FailedAttempts int    `json:"-" gorm:"default:0"`
	// LockedUntil is a unix timestamp; nil when the account is not locked.
	LockedUntil *int64 `json:"-"`
}

// UserSummary is the public projection of a user embedded in other payloads.
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
