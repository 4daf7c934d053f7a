package model

// Doctor is the bookable profile attached to a DOCTOR user.
// @Description Doctor information
type Doctor struct {
	Base
	UserID            uint               `json:"user_id" gorm:"uniqueIndex;not null"`
	Name              string             `json:"name" gorm:"type:varchar(191);not null" example:"Dr. Andi"`
	Image             string             `json:"image,omitempty"`
	City              string             `json:"city" gorm:"type:varchar(100);index" example:"Jakarta"`
	YearsOfExperience int                `json:"years_of_experience" example:"8"`
	Rating            float64            `json:"rating" example:"4.7"`
	ReviewCount       int                `json:"review_count" example:"12"`
	Specializations   []Specialization   `json:"specializations" gorm:"many2many:doctor_specializations"`
	Hospitals         []Hospital         `json:"hospitals" gorm:"many2many:doctor_hospitals"`
	Availability      []AvailabilitySlot `json:"availability,omitempty" gorm:"foreignKey:DoctorID"`
}

// DoctorSummary is the projection embedded in appointment items.
type DoctorSummary struct {
	ID              uint             `json:"id"`
	Name            string           `json:"name"`
	Image           string           `json:"image,omitempty"`
	City            string           `json:"city"`
	Specializations []Specialization `json:"specializations"`
}

func (d Doctor) Summary() DoctorSummary {
	specs := d.Specializations
	if specs == nil {
		specs = []Specialization{}
	}
	return DoctorSummary{ID: d.ID, Name: d.Name, Image: d.Image, City: d.City, Specializations: specs}
}

// DoctorRequest is the admin create/update payload. Email and Password are
// only read on create, where they seed the DOCTOR login.
type DoctorRequest struct {
	Name              string `json:"name" binding:"required" example:"Dr. Andi"`
	Email             string `json:"email,omitempty" example:"andi@example.com"`
	Password          string `json:"password,omitempty"`
	Image             string `json:"image,omitempty"`
	City              string `json:"city" binding:"required" example:"Jakarta"`
	YearsOfExperience int    `json:"years_of_experience" binding:"gte=0"`
	SpecializationIDs []uint `json:"specialization_ids,omitempty"`
	HospitalIDs       []uint `json:"hospital_ids,omitempty"`
}

// DoctorStats is the admin dashboard count summary.
type DoctorStats struct {
	Doctors         int64 `json:"doctors"`
	Hospitals       int64 `json:"hospitals"`
	Specializations int64 `json:"specializations"`
	Appointments    int64 `json:"appointments"`
	PendingRequests int64 `json:"pending_requests"`
}
