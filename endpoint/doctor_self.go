package endpoint

import (
	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/service"
	"github.com/ariebrainware/medlink/util"
	"github.com/gin-gonic/gin"
)

// DoctorProfile is the payload of GET /doctor/me.
type DoctorProfile struct {
	*model.Doctor
	Availability    []model.AvailabilitySlot `json:"availability"`
	PendingRequests []model.ChangeRequest    `json:"pending_requests"`
}

// currentDoctorOrRespond resolves the caller's doctor profile, answering 403
// for logins without one.
func currentDoctorOrRespond(c *gin.Context) (model.Doctor, bool) {
	caller, ok := getPrincipalOrRespond(c)
	if !ok {
		return model.Doctor{}, false
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return model.Doctor{}, false
	}
	doctor, err := service.DoctorForUser(c.Request.Context(), db, caller.UserID)
	if service.IsType(err, service.ErrorTypeNotFound) {
		err = service.NewForbiddenError("user %d has no doctor profile", caller.UserID)
	}
	if err != nil {
		respondServiceError(c, err)
		return model.Doctor{}, false
	}
	return doctor, true
}

// GetMyDoctorProfile godoc
// @Summary      My doctor profile
// @Description  Profile, weekly availability and pending change requests of the calling doctor
// @Tags         Doctor
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=DoctorProfile} "Profile retrieved"
// @Failure      403 {object} util.APIResponse "No doctor profile"
// @Router       /doctor/me [get]
func GetMyDoctorProfile(c *gin.Context) {
	me, ok := currentDoctorOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	doctor, err := service.GetDoctor(c.Request.Context(), db, me.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	slots := doctor.Availability
	if slots == nil {
		slots = []model.AvailabilitySlot{}
	}
	pending, err := service.DoctorChangeRequests(c.Request.Context(), db, me.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Profile retrieved", Data: DoctorProfile{Doctor: doctor, Availability: slots, PendingRequests: pending}})
}

// ReplaceMyAvailability godoc
// @Summary      Replace weekly availability
// @Description  Replace the calling doctor's whole window set; nothing is saved when any window is invalid
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.AvailabilityRequest true "Windows"
// @Success      200 {object} util.APIResponse{data=[]model.AvailabilitySlot} "Availability saved"
// @Failure      400 {object} util.APIResponse "Invalid window"
// @Failure      403 {object} util.APIResponse "No doctor profile"
// @Router       /doctor/availability [put]
func ReplaceMyAvailability(c *gin.Context) {
	var req model.AvailabilityRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}
	me, ok := currentDoctorOrRespond(c)
	if !ok {
		return
	}
	sched, ok := getSchedulerOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	slots, err := sched.ReplaceAvailability(c.Request.Context(), db, me.ID, req.Availability)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Availability saved", Data: slots})
}

// RequestProfileUpdate godoc
// @Summary      Propose profile changes
// @Description  Submit name, city or years_of_experience changes for admin approval
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body map[string]interface{} true "Changes"
// @Success      201 {object} util.APIResponse{data=model.ChangeRequest} "Request submitted"
// @Failure      400 {object} util.APIResponse "Invalid changes"
// @Failure      403 {object} util.APIResponse "No doctor profile"
// @Router       /doctor/profile-update-request [post]
func RequestProfileUpdate(c *gin.Context) {
	var changes map[string]interface{}
	if !bindJSONOrRespond(c, &changes, "Invalid request body") {
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

	cr, err := service.SubmitChangeRequest(c.Request.Context(), db, caller.UserID, changes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Request submitted", Data: cr})
}
