package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ariebrainware/medlink/model"
)

// Register creates a patient account and signs the session in.
func (c *Client) Register(ctx context.Context, name, email, password string) (Credentials, error) {
	return c.authenticate(ctx, "/auth/register", map[string]string{"name": name, "email": email, "password": password})
}

// Login signs the session in.
func (c *Client) Login(ctx context.Context, email, password string) (Credentials, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) (Credentials, error) {
	if strings.TrimSpace(body["email"]) == "" || body["password"] == "" {
		return Credentials{}, &ValidationError{Field: "email", Message: "email and password are required"}
	}
	var creds Credentials
	if err := c.doJSON(ctx, http.MethodPost, path, nil, body, &creds); err != nil {
		return Credentials{}, err
	}
	if err := c.session.Begin(creds); err != nil {
		return creds, &UnknownError{Message: "store session", Err: err}
	}
	return creds, nil
}

// Logout ends the server session. The local session is cleared even when
// the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodDelete, "/auth/logout", nil, nil, nil)
	if tdErr := c.session.Teardown(); tdErr != nil && err == nil {
		err = &UnknownError{Message: "clear session", Err: tdErr}
	}
	return err
}

type DoctorQuery struct {
	Specialization string
	City           string
	HospitalID     uint
}

func (c *Client) Doctors(ctx context.Context, q DoctorQuery) ([]model.Doctor, error) {
	query := url.Values{}
	if q.Specialization != "" {
		query.Set("specialization", q.Specialization)
	}
	if q.City != "" {
		query.Set("city", q.City)
	}
	if q.HospitalID > 0 {
		query.Set("hospital_id", strconv.FormatUint(uint64(q.HospitalID), 10))
	}
	var out []model.Doctor
	err := c.doJSON(ctx, http.MethodGet, "/doctors", query, nil, &out)
	return out, err
}

func (c *Client) Doctor(ctx context.Context, id uint) (*model.Doctor, error) {
	var out model.Doctor
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/doctors/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DoctorProfile is the signed-in doctor's own view.
type DoctorProfile struct {
	model.Doctor
	Availability    []model.AvailabilitySlot `json:"availability"`
	PendingRequests []model.ChangeRequest    `json:"pending_requests"`
}

func (c *Client) MyDoctorProfile(ctx context.Context) (*DoctorProfile, error) {
	var out DoctorProfile
	if err := c.doJSON(ctx, http.MethodGet, "/doctor/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReplaceAvailability swaps the signed-in doctor's whole weekly schedule.
// Only empty times are caught locally; ordering and format are checked by
// the server.
func (c *Client) ReplaceAvailability(ctx context.Context, slots []model.AvailabilitySlotInput) ([]model.AvailabilitySlot, error) {
	for i, s := range slots {
		if strings.TrimSpace(s.StartTime) == "" || strings.TrimSpace(s.EndTime) == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("availability[%d]", i), Message: "start and end time are required"}
		}
	}
	if slots == nil {
		slots = []model.AvailabilitySlotInput{}
	}
	var out []model.AvailabilitySlot
	err := c.doJSON(ctx, http.MethodPut, "/doctor/availability", nil, model.AvailabilityRequest{Availability: slots}, &out)
	return out, err
}

// AvailableSlots lists the free "HH:MM" starts of doctorID on date (YYYY-MM-DD).
func (c *Client) AvailableSlots(ctx context.Context, doctorID uint, date string) ([]string, error) {
	query := url.Values{}
	query.Set("doctor_id", strconv.FormatUint(uint64(doctorID), 10))
	query.Set("date", date)
	out := []string{}
	err := c.doJSON(ctx, http.MethodGet, "/appointments/slots", query, nil, &out)
	return out, err
}

func (c *Client) CreateAppointment(ctx context.Context, req model.CreateAppointmentRequest) (*model.AppointmentView, error) {
	if req.Date.IsZero() {
		return nil, &ValidationError{Field: "date", Message: "select a time slot"}
	}
	var out model.AppointmentView
	if err := c.doJSON(ctx, http.MethodPost, "/appointments", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyAppointments lists the caller's bookings, or the caller's doctor schedule when asDoctor is set.
func (c *Client) MyAppointments(ctx context.Context, asDoctor bool) ([]model.AppointmentView, error) {
	var query url.Values
	if asDoctor {
		query = url.Values{"role": {model.RoleDoctor}}
	}
	out := []model.AppointmentView{}
	err := c.doJSON(ctx, http.MethodGet, "/appointments/me", query, nil, &out)
	return out, err
}

func (c *Client) UpdateStatus(ctx context.Context, appointmentID uint, status string) (*model.AppointmentView, error) {
	var out model.AppointmentView
	path := fmt.Sprintf("/appointments/%d/status", appointmentID)
	if err := c.doJSON(ctx, http.MethodPatch, path, nil, model.UpdateStatusRequest{Status: status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitReview(ctx context.Context, req model.ReviewRequest) (*model.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, &ValidationError{Field: "rating", Message: "rating must be between 1 and 5"}
	}
	var out model.Review
	if err := c.doJSON(ctx, http.MethodPost, "/reviews", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
