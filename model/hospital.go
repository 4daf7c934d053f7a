package model

// Hospital represents a hospital entity
// @Description Hospital information
type Hospital struct {
	Base
	Name            string           `json:"name" gorm:"type:varchar(191);not null" example:"City General"`
	City            string           `json:"city" gorm:"type:varchar(100);index" example:"Jakarta"`
	Address         string           `json:"address" example:"Jl. Sudirman 1"`
	Rating          float64          `json:"rating" example:"4.5"`
	Latitude        *float64         `json:"latitude,omitempty"`
	Longitude       *float64         `json:"longitude,omitempty"`
	GoogleMapLink   string           `json:"google_map_link,omitempty"`
	Specializations []Specialization `json:"specializations" gorm:"many2many:hospital_specializations"`
}

// HospitalSummary is the subset of hospital fields embedded in doctor payloads.
type HospitalSummary struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
}

func (h Hospital) Summary() HospitalSummary {
	return HospitalSummary{ID: h.ID, Name: h.Name, City: h.City, Address: h.Address}
}

// HospitalRequest is the admin create/update payload.
type HospitalRequest struct {
	Name              string   `json:"name" binding:"required" example:"City General"`
	City              string   `json:"city" binding:"required" example:"Jakarta"`
	Address           string   `json:"address" example:"Jl. Sudirman 1"`
	Rating            float64  `json:"rating" binding:"gte=0,lte=5"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	GoogleMapLink     string   `json:"google_map_link,omitempty"`
	SpecializationIDs []uint   `json:"specialization_ids,omitempty"`
}
