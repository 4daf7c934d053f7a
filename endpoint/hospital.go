package endpoint

import (
	"errors"
	"strings"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListHospitals godoc
// @Summary      List hospitals
// @Tags         Hospital
// @Produce      json
// @Param        city query string false "City"
// @Success      200 {object} util.APIResponse{data=[]model.Hospital} "Hospitals retrieved"
// @Router       /hospitals [get]
func ListHospitals(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	q := db.Preload("Specializations").Order("name ASC")
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		q = q.Where("LOWER(city) = LOWER(?)", city)
	}
	hospitals := []model.Hospital{}
	if err := q.Find(&hospitals).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to list hospitals", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Hospitals retrieved", Data: hospitals})
}

// GetHospital godoc
// @Summary      Get hospital
// @Tags         Hospital
// @Produce      json
// @Param        id path int true "Hospital ID"
// @Success      200 {object} util.APIResponse{data=model.Hospital} "Hospital retrieved"
// @Failure      404 {object} util.APIResponse "Hospital not found"
// @Router       /hospitals/{id} [get]
func GetHospital(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var hospital model.Hospital
	if !findHospitalOrRespond(c, db, id, &hospital) {
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Hospital retrieved", Data: hospital})
}

func findHospitalOrRespond(c *gin.Context, db *gorm.DB, id uint, dst *model.Hospital) bool {
	err := db.Preload("Specializations").First(dst, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Hospital not found", Err: err})
		return false
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load hospital", Err: err})
		return false
	}
	return true
}

func loadSpecializationsOrRespond(c *gin.Context, db *gorm.DB, ids []uint) ([]model.Specialization, bool) {
	specs := []model.Specialization{}
	if len(ids) == 0 {
		return specs, true
	}
	if err := db.Find(&specs, ids).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load specializations", Err: err})
		return nil, false
	}
	seen := map[uint]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if len(specs) != len(seen) {
		util.CallUserError(c, util.APIErrorParams{Msg: "Unknown specialization id", Err: errors.New("unknown specialization id")})
		return nil, false
	}
	return specs, true
}

func applyHospitalRequest(h *model.Hospital, req model.HospitalRequest) {
	h.Name = strings.TrimSpace(req.Name)
	h.City = strings.TrimSpace(req.City)
	h.Address = strings.TrimSpace(req.Address)
	h.Rating = req.Rating
	h.Latitude = req.Latitude
	h.Longitude = req.Longitude
	h.GoogleMapLink = strings.TrimSpace(req.GoogleMapLink)
}

// CreateHospital godoc
// @Summary      Create hospital
// @Tags         Hospital
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.HospitalRequest true "Hospital"
// @Success      201 {object} util.APIResponse{data=model.Hospital} "Hospital created"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Router       /hospitals [post]
func CreateHospital(c *gin.Context) {
	var req model.HospitalRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	specs, ok := loadSpecializationsOrRespond(c, db, req.SpecializationIDs)
	if !ok {
		return
	}

	hospital := model.Hospital{Specializations: specs}
	applyHospitalRequest(&hospital, req)
	if err := db.Create(&hospital).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create hospital", Err: err})
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Hospital created", Data: hospital})
}

// UpdateHospital godoc
// @Summary      Update hospital
// @Tags         Hospital
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                 true "Hospital ID"
// @Param        request body model.HospitalRequest true "Hospital"
// @Success      200 {object} util.APIResponse{data=model.Hospital} "Hospital updated"
// @Failure      404 {object} util.APIResponse "Hospital not found"
// @Router       /hospitals/{id} [put]
func UpdateHospital(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req model.HospitalRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var hospital model.Hospital
	if !findHospitalOrRespond(c, db, id, &hospital) {
		return
	}
	specs, ok := loadSpecializationsOrRespond(c, db, req.SpecializationIDs)
	if !ok {
		return
	}

	applyHospitalRequest(&hospital, req)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Specializations").Save(&hospital).Error; err != nil {
			return err
		}
		return tx.Model(&hospital).Association("Specializations").Replace(specs)
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update hospital", Err: err})
		return
	}
	hospital.Specializations = specs
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Hospital updated", Data: hospital})
}

// DeleteHospital godoc
// @Summary      Delete hospital
// @Tags         Hospital
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Hospital ID"
// @Success      200 {object} util.APIResponse "Hospital deleted"
// @Failure      404 {object} util.APIResponse "Hospital not found"
// @Router       /hospitals/{id} [delete]
func DeleteHospital(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	res := db.Delete(&model.Hospital{}, id)
	if res.Error != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to delete hospital", Err: res.Error})
		return
	}
	if res.RowsAffected == 0 {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Hospital not found", Err: gorm.ErrRecordNotFound})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Hospital deleted"})
}
