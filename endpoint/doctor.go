package endpoint

import (
	"strconv"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/service"
	"github.com/ariebrainware/medlink/util"
	"github.com/gin-gonic/gin"
)

// ListDoctors godoc
// @Summary      List doctors
// @Description  Doctors with specializations and hospitals, highest rated first
// @Tags         Doctor
// @Produce      json
// @Param        specialization query string false "Specialization name"
// @Param        city           query string false "City"
// @Param        hospital_id    query int    false "Hospital ID"
// @Param        limit          query int    false "Page size (max 100)"
// @Param        offset         query int    false "Offset"
// @Success      200 {object} util.APIResponse{data=[]model.Doctor} "Doctors retrieved"
// @Router       /doctors [get]
func ListDoctors(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	f := service.DoctorFilter{
		Specialization: c.Query("specialization"),
		City:           c.Query("city"),
	}
	if v, err := strconv.ParseUint(c.Query("hospital_id"), 10, 64); err == nil {
		f.HospitalID = uint(v)
	}
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	f.Offset, _ = strconv.Atoi(c.Query("offset"))

	doctors, err := service.ListDoctors(c.Request.Context(), db, f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Doctors retrieved", Data: doctors})
}

// GetDoctor godoc
// @Summary      Get doctor
// @Description  One doctor with weekly availability
// @Tags         Doctor
// @Produce      json
// @Param        id path int true "Doctor ID"
// @Success      200 {object} util.APIResponse{data=model.Doctor} "Doctor retrieved"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Router       /doctors/{id} [get]
func GetDoctor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	doctor, err := service.GetDoctor(c.Request.Context(), db, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Doctor retrieved", Data: doctor})
}

// CreateDoctor godoc
// @Summary      Create doctor
// @Description  Create a DOCTOR login with its profile
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.DoctorRequest true "Doctor"
// @Success      201 {object} util.APIResponse{data=model.Doctor} "Doctor created"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      409 {object} util.APIResponse "Email already registered"
// @Router       /doctors [post]
func CreateDoctor(c *gin.Context) {
	var req model.DoctorRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	doctor, err := service.CreateDoctor(c.Request.Context(), db, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Doctor created", Data: doctor})
}

// UpdateDoctor godoc
// @Summary      Update doctor
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int               true "Doctor ID"
// @Param        request body model.DoctorRequest true "Doctor"
// @Success      200 {object} util.APIResponse{data=model.Doctor} "Doctor updated"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Router       /doctors/{id} [put]
func UpdateDoctor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req model.DoctorRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	doctor, err := service.UpdateDoctor(c.Request.Context(), db, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Doctor updated", Data: doctor})
}

// DeleteDoctor godoc
// @Summary      Delete doctor
// @Tags         Doctor
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Doctor ID"
// @Success      200 {object} util.APIResponse "Doctor deleted"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Router       /doctors/{id} [delete]
func DeleteDoctor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var doctor model.Doctor
	if err := service.DeleteDoctor(c.Request.Context(), db, id); err != nil {
		respondServiceError(c, err)
		return
	}
	if err := db.Unscoped().Select("user_id").First(&doctor, id).Error; err == nil {
		revokeUserSessions(c.Request.Context(), db, doctor.UserID)
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Doctor deleted"})
}

// DoctorStats godoc
// @Summary      Dashboard counts
// @Tags         Doctor
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=model.DoctorStats} "Stats retrieved"
// @Router       /doctors/stats [get]
func DoctorStats(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	st, err := service.Stats(c.Request.Context(), db)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Stats retrieved", Data: st})
}

// ListChangeRequests godoc
// @Summary      Pending profile change requests
// @Tags         Doctor
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=[]model.ChangeRequest} "Requests retrieved"
// @Router       /doctors/requests [get]
func ListChangeRequests(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	reqs, err := service.PendingChangeRequests(c.Request.Context(), db)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Requests retrieved", Data: reqs})
}

// ProcessChangeRequest godoc
// @Summary      Approve or reject a profile change
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                        true "Request ID"
// @Param        request body model.ProcessChangeRequest true "Decision"
// @Success      200 {object} util.APIResponse{data=model.ChangeRequest} "Request processed"
// @Failure      404 {object} util.APIResponse "Request not found"
// @Failure      409 {object} util.APIResponse "Request already processed"
// @Router       /doctors/requests/{id}/process [post]
func ProcessChangeRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req model.ProcessChangeRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}
	caller, ok := getPrincipalOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	cr, err := service.ProcessChangeRequest(c.Request.Context(), db, caller.UserID, id, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Request processed", Data: cr})
}
