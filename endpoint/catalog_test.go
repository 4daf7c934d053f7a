package endpoint_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ariebrainware/medlink/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogBrowsing(t *testing.T) {
	r, db := SetupTestServer(t)
	cat := SetupCatalog(t, r, db)

	rr := doRequest(r, requestParams{method: http.MethodGet, path: "/hospitals?city=jakarta"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var hospitals []model.Hospital
	DecodeData(t, rr, &hospitals)
	require.Len(t, hospitals, 1)
	require.Len(t, hospitals[0].Specializations, 1)
	assert.Equal(t, "Cardiology", hospitals[0].Specializations[0].Name)

	rr = doRequest(r, requestParams{method: http.MethodGet, path: "/specializations"})
	require.Equal(t, http.StatusOK, rr.Code)

	for query, want := range map[string]int{
		"":                            1,
		"?specialization=cardiology":  1,
		"?specialization=Dermatology": 0,
		"?city=JAKARTA":               1,
		"?city=Bandung":               0,
		fmt.Sprintf("?hospital_id=%d", cat.hospitalID): 1,
	} {
		rr = doRequest(r, requestParams{method: http.MethodGet, path: "/doctors" + query})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var doctors []model.Doctor
		DecodeData(t, rr, &doctors)
		assert.Len(t, doctors, want, "query %q", query)
	}

	rr = doRequest(r, requestParams{method: http.MethodGet, path: "/doctors/999"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCatalogAdministration(t *testing.T) {
	r, db := SetupTestServer(t)
	cat := SetupCatalog(t, r, db)
	patientToken, _ := RegisterAndLogin(t, r, SignupCreds{Name: "Pat Patient", Email: "pat@example.com", Password: "patientpass"})

	rr := doRequest(r, requestParams{method: http.MethodPost, path: "/hospitals", body: map[string]string{"name": "X", "city": "Y"}, headers: bearer(patientToken)})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(r, requestParams{method: http.MethodPost, path: "/specializations", body: map[string]string{"name": "cardiology"}, headers: bearer(cat.adminToken)})
	assert.Equal(t, http.StatusConflict, rr.Code, "names are unique regardless of case")

	rr = doRequest(r, requestParams{method: http.MethodPost, path: "/doctors", body: map[string]interface{}{
		"name": "Dr. Twin", "email": "andi@example.com", "password": "doctorpass1", "city": "Jakarta",
	}, headers: bearer(cat.adminToken)})
	assert.Equal(t, http.StatusConflict, rr.Code, "doctor email must be free")

	rr = doRequest(r, requestParams{method: http.MethodPut, path: idPath("/hospitals", cat.hospitalID, ""), body: map[string]interface{}{
		"name": "City General Hospital", "city": "Jakarta", "specialization_ids": []uint{},
	}, headers: bearer(cat.adminToken)})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var hospital model.Hospital
	require.NoError(t, db.Preload("Specializations").First(&hospital, cat.hospitalID).Error)
	assert.Equal(t, "City General Hospital", hospital.Name)
	assert.Empty(t, hospital.Specializations)

	rr = doRequest(r, requestParams{method: http.MethodGet, path: "/doctors/stats", headers: bearer(cat.adminToken)})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var stats model.DoctorStats
	DecodeData(t, rr, &stats)
	assert.EqualValues(t, 1, stats.Doctors)
	assert.EqualValues(t, 1, stats.Hospitals)
	assert.EqualValues(t, 1, stats.Specializations)

	rr = doRequest(r, requestParams{method: http.MethodDelete, path: idPath("/specializations", cat.specializationID, ""), headers: bearer(cat.adminToken)})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	createdID(t, r, cat.adminToken, "/specializations", map[string]string{"name": "Cardiology"})

	rr = doRequest(r, requestParams{method: http.MethodDelete, path: idPath("/doctors", cat.doctorID, ""), headers: bearer(cat.adminToken)})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = doRequest(r, requestParams{method: http.MethodGet, path: "/doctor/me", headers: bearer(cat.doctorToken)})
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "deleted doctor loses its sessions")

	rr = doRequest(r, requestParams{method: http.MethodDelete, path: idPath("/hospitals", cat.hospitalID, ""), headers: bearer(cat.adminToken)})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doRequest(r, requestParams{method: http.MethodDelete, path: idPath("/hospitals", cat.hospitalID, ""), headers: bearer(cat.adminToken)})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDoctorSelfService(t *testing.T) {
	r, db := SetupTestServer(t)
	cat := SetupCatalog(t, r, db)
	patientToken, _ := RegisterAndLogin(t, r, SignupCreds{Name: "Pat Patient", Email: "pat@example.com", Password: "patientpass"})

	rr := doRequest(r, requestParams{method: http.MethodGet, path: "/doctor/me", headers: bearer(patientToken)})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(r, requestParams{method: http.MethodGet, path: "/doctor/me", headers: bearer(cat.doctorToken)})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var profile struct {
		ID              uint                     `json:"id"`
		Availability    []model.AvailabilitySlot `json:"availability"`
		PendingRequests []model.ChangeRequest    `json:"pending_requests"`
	}
	DecodeData(t, rr, &profile)
	assert.Equal(t, cat.doctorID, profile.ID)
	assert.NotNil(t, profile.Availability, "availability is always present")
	assert.Empty(t, profile.PendingRequests)

	rr = doRequest(r, requestParams{method: http.MethodPut, path: "/doctor/availability", body: map[string]interface{}{
		"availability": []map[string]interface{}{{"day_of_week": 1, "start_time": "11:00", "end_time": "09:00"}},
	}, headers: bearer(cat.doctorToken)})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "end before start")

	rr = doRequest(r, requestParams{method: http.MethodPost, path: "/doctor/profile-update-request", body: map[string]interface{}{"rating": 5}, headers: bearer(cat.doctorToken)})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "rating is not editable")

	reqID := createdID(t, r, cat.doctorToken, "/doctor/profile-update-request", map[string]interface{}{"city": "Bandung", "years_of_experience": 9})

	rr = doRequest(r, requestParams{method: http.MethodGet, path: "/doctors/requests", headers: bearer(cat.adminToken)})
	require.Equal(t, http.StatusOK, rr.Code)
	var pending []model.ChangeRequest
	DecodeData(t, rr, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, reqID, pending[0].ID)

	process := idPath("/doctors/requests", reqID, "/process")
	rr = doRequest(r, requestParams{method: http.MethodPost, path: process, body: map[string]string{"status": "APPROVED"}, headers: bearer(cat.adminToken)})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = doRequest(r, requestParams{method: http.MethodPost, path: process, body: map[string]string{"status": "REJECTED"}, headers: bearer(cat.adminToken)})
	assert.Equal(t, http.StatusConflict, rr.Code, "already processed")

	var doctor model.Doctor
	require.NoError(t, db.First(&doctor, cat.doctorID).Error)
	assert.Equal(t, "Bandung", doctor.City)
	assert.Equal(t, 9, doctor.YearsOfExperience)
}
