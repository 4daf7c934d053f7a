package endpoint

import (
	"errors"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SpecializationRequest struct {
	Name string `json:"name" binding:"required" example:"Cardiology"`
}

// ListSpecializations godoc
// @Summary      List specializations
// @Tags         Specialization
// @Produce      json
// @Success      200 {object} util.APIResponse{data=[]model.Specialization} "Specializations retrieved"
// @Router       /specializations [get]
func ListSpecializations(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	specs := []model.Specialization{}
	if err := db.Order("name ASC").Find(&specs).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to list specializations", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Specializations retrieved", Data: specs})
}

// CreateSpecialization godoc
// @Summary      Create specialization
// @Tags         Specialization
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SpecializationRequest true "Specialization"
// @Success      201 {object} util.APIResponse{data=model.Specialization} "Specialization created"
// @Failure      409 {object} util.APIResponse "Specialization already exists"
// @Router       /specializations [post]
func CreateSpecialization(c *gin.Context) {
	var req SpecializationRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	name := util.NormalizeName(req.Name)
	if name == "" {
		util.CallUserError(c, util.APIErrorParams{Msg: "name is required", Err: errors.New("empty name")})
		return
	}
	var existing int64
	if err := db.Model(&model.Specialization{}).Where("LOWER(name) = LOWER(?)", name).Count(&existing).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return
	}
	if existing > 0 {
		util.CallConflict(c, util.APIErrorParams{Msg: "Specialization already exists", Err: errors.New("duplicate specialization")})
		return
	}

	spec := model.Specialization{Name: name}
	if err := db.Create(&spec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.CallConflict(c, util.APIErrorParams{Msg: "Specialization already exists", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create specialization", Err: err})
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Specialization created", Data: spec})
}

// DeleteSpecialization godoc
// @Summary      Delete specialization
// @Tags         Specialization
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Specialization ID"
// @Success      200 {object} util.APIResponse "Specialization deleted"
// @Failure      404 {object} util.APIResponse "Specialization not found"
// @Router       /specializations/{id} [delete]
func DeleteSpecialization(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	// Hard delete so the unique name can be reused.
	var deleted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, join := range []string{"doctor_specializations", "hospital_specializations"} {
			if err := tx.Exec("DELETE FROM "+join+" WHERE specialization_id = ?", id).Error; err != nil {
				return err
			}
		}
		res := tx.Unscoped().Delete(&model.Specialization{}, id)
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to delete specialization", Err: err})
		return
	}
	if deleted == 0 {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Specialization not found", Err: gorm.ErrRecordNotFound})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Specialization deleted"})
}
