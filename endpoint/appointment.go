package endpoint

import (
	"fmt"
	"strconv"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/util"
	"github.com/gin-gonic/gin"
)

// GetAvailableSlots godoc
// @Summary      List free slots
// @Description  Bookable start times of a doctor on a date, ascending
// @Tags         Appointment
// @Produce      json
// @Security     BearerAuth
// @Param        doctor_id query int    true "Doctor ID"
// @Param        date      query string true "Date (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse{data=[]string} "Slots retrieved"
// @Failure      400 {object} util.APIResponse "Invalid doctor_id or date"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Router       /appointments/slots [get]
func GetAvailableSlots(c *gin.Context) {
	raw := c.Query("doctor_id")
	if raw == "" {
		raw = c.Query("doctorId")
	}
	doctorID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || doctorID == 0 {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid doctor_id", Err: fmt.Errorf("invalid doctor_id %q", raw)})
		return
	}
	date := c.Query("date")
	if date == "" {
		util.CallUserError(c, util.APIErrorParams{Msg: "date is required", Err: fmt.Errorf("missing date")})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	sched, ok := getSchedulerOrRespond(c)
	if !ok {
		return
	}

	slots, err := sched.GetAvailableSlots(c.Request.Context(), db, uint(doctorID), date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Slots retrieved", Data: slots})
}

// CreateAppointment godoc
// @Summary      Book an appointment
// @Description  Create a PENDING appointment at one of the doctor's free slots
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.CreateAppointmentRequest true "Booking"
// @Success      201 {object} util.APIResponse{data=model.AppointmentView} "Appointment created"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      403 {object} util.APIResponse "Only patients can book"
// @Failure      404 {object} util.APIResponse "Doctor or hospital not found"
// @Failure      409 {object} util.APIResponse "Slot not available"
// @Router       /appointments [post]
func CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
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
	sched, ok := getSchedulerOrRespond(c)
	if !ok {
		return
	}

	appt, err := sched.CreateAppointment(c.Request.Context(), db, caller, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Appointment created", Data: appt.View()})
}

// ListMyAppointments godoc
// @Summary      List my appointments
// @Description  The caller's bookings, or with role=DOCTOR the caller's doctor schedule, newest first
// @Tags         Appointment
// @Produce      json
// @Security     BearerAuth
// @Param        role query string false "DOCTOR to list as the doctor"
// @Success      200 {object} util.APIResponse{data=[]model.AppointmentView} "Appointments retrieved"
// @Failure      403 {object} util.APIResponse "No doctor profile"
// @Router       /appointments/me [get]
func ListMyAppointments(c *gin.Context) {
	caller, ok := getPrincipalOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	sched, ok := getSchedulerOrRespond(c)
	if !ok {
		return
	}

	appts, err := sched.ListAppointmentsForActor(c.Request.Context(), db, caller, c.Query("role"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Appointments retrieved", Data: model.Views(appts)})
}

// UpdateAppointmentStatus godoc
// @Summary      Change appointment status
// @Description  Move an appointment along PENDING -> CONFIRMED -> COMPLETED, or cancel it
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                       true "Appointment ID"
// @Param        request body model.UpdateStatusRequest true "New status"
// @Success      200 {object} util.APIResponse{data=model.AppointmentView} "Status updated"
// @Failure      400 {object} util.APIResponse "Unknown status"
// @Failure      403 {object} util.APIResponse "Caller may not make this change"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      409 {object} util.APIResponse "Illegal transition"
// @Router       /appointments/{id}/status [patch]
func UpdateAppointmentStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateStatusRequest
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
	sched, ok := getSchedulerOrRespond(c)
	if !ok {
		return
	}

	appt, err := sched.UpdateStatus(c.Request.Context(), db, caller, id, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Status updated", Data: appt.View()})
}

// SubmitReview godoc
// @Summary      Review a doctor
// @Description  Rate the doctor of a completed appointment; once per doctor
// @Tags         Review
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.ReviewRequest true "Review"
// @Success      201 {object} util.APIResponse{data=model.Review} "Review submitted"
// @Failure      400 {object} util.APIResponse "Invalid rating or appointment not completed"
// @Failure      403 {object} util.APIResponse "Not your appointment"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      409 {object} util.APIResponse "Already reviewed"
// @Router       /reviews [post]
func SubmitReview(c *gin.Context) {
	var req model.ReviewRequest
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
	sched, ok := getSchedulerOrRespond(c)
	if !ok {
		return
	}

	review, err := sched.SubmitReview(c.Request.Context(), db, caller, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Review submitted", Data: review})
}
