package model

// Specialization is a medical discipline shared by doctors and hospitals.
// @Description Specialization information
type Specialization struct {
	Base
	Name string `json:"name" gorm:"type:varchar(191);uniqueIndex;not null" example:"Cardiology"`
}
