package endpoint_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ariebrainware/medlink/config"
	"github.com/ariebrainware/medlink/endpoint"
	"github.com/ariebrainware/medlink/middleware"
	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/notify"
	"github.com/ariebrainware/medlink/scheduling"
	"github.com/ariebrainware/medlink/service"
	"github.com/ariebrainware/medlink/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type apiResp struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// requestParams groups HTTP request parameters to reduce function arguments
type requestParams struct {
	method  string
	path    string
	body    interface{}
	headers map[string]string
}

func doRequest(r http.Handler, params requestParams) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if params.body != nil {
		_ = json.NewEncoder(&buf).Encode(params.body)
	}
	req := httptest.NewRequest(params.method, params.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range params.headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// SetupTestServer opens an isolated database, seeds the roles and mounts the
// full route table with a log notifier and 30 minute UTC slots.
func SetupTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	return SetupTestServerWithNotifier(t, notify.NewLogNotifier(util.Logger()))
}

// SetupTestServerWithNotifier is SetupTestServer delivering events to n.
func SetupTestServerWithNotifier(t *testing.T, n notify.Notifier) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db, err := config.ConnectMySQL()
	require.NoError(t, err, "connect test DB")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...), "auto migrate")
	require.NoError(t, model.SeedRoles(db), "seed roles")

	sched := service.NewScheduler(scheduling.NewGenerator(30*time.Minute, time.UTC), n)

	r := gin.New()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.SchedulerMiddleware(sched))
	endpoint.RegisterRoutes(r, middleware.RateLimitConfig{})
	return r, db
}

type SignupCreds struct {
	Name     string
	Email    string
	Password string
}

func parseLogin(t *testing.T, rr *httptest.ResponseRecorder) endpoint.LoginResponse {
	t.Helper()
	var data endpoint.LoginResponse
	DecodeData(t, rr, &data)
	require.NotEmpty(t, data.Token, "empty token")
	return data
}

// RegisterAndLogin signs up a patient account and returns its session token and user id.
func RegisterAndLogin(t *testing.T, r http.Handler, creds SignupCreds) (string, uint) {
	t.Helper()
	rr := doRequest(r, requestParams{method: http.MethodPost, path: "/auth/register", body: map[string]string{
		"name": creds.Name, "email": creds.Email, "password": creds.Password,
	}})
	require.Equal(t, http.StatusOK, rr.Code, "register %s: %s", creds.Email, rr.Body.String())
	data := parseLogin(t, rr)
	return data.Token, data.UserID
}

// Login authenticates an existing account.
func Login(t *testing.T, r http.Handler, email, password string) (string, uint) {
	t.Helper()
	rr := doRequest(r, requestParams{method: http.MethodPost, path: "/auth/login", body: map[string]string{
		"email": email, "password": password,
	}})
	require.Equal(t, http.StatusOK, rr.Code, "login %s: %s", email, rr.Body.String())
	data := parseLogin(t, rr)
	return data.Token, data.UserID
}

// CreateAdmin inserts an ADMIN account directly and logs it in.
func CreateAdmin(t *testing.T, r http.Handler, db *gorm.DB) string {
	t.Helper()
	salt, err := util.GenerateSalt()
	require.NoError(t, err)
	hash, err := util.HashPasswordArgon2("adminpass123", salt)
	require.NoError(t, err)
	admin := model.User{Name: "Admin User", Email: "admin@example.com", Password: hash, PasswordSalt: salt, RoleID: model.RoleIDAdmin}
	require.NoError(t, db.Create(&admin).Error)

	token, _ := Login(t, r, admin.Email, "adminpass123")
	return token
}

// ParseAPIResp decodes a standard API response from a ResponseRecorder.
func ParseAPIResp(t *testing.T, rr *httptest.ResponseRecorder) apiResp {
	t.Helper()
	var resp apiResp
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), "decode response: %s", rr.Body.String())
	return resp
}

// DecodeData unmarshals the data field of an API response into dst.
func DecodeData(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	resp := ParseAPIResp(t, rr)
	require.NoError(t, json.Unmarshal(resp.Data, dst), "decode data: %s", string(resp.Data))
}

// createdID posts body to path as token, expects 201 and returns the new id.
func createdID(t *testing.T, r http.Handler, token, path string, body interface{}) uint {
	t.Helper()
	rr := doRequest(r, requestParams{method: http.MethodPost, path: path, body: body, headers: bearer(token)})
	require.Equal(t, http.StatusCreated, rr.Code, "POST %s: %s", path, rr.Body.String())
	var out struct {
		ID uint `json:"id"`
	}
	DecodeData(t, rr, &out)
	require.NotZero(t, out.ID)
	return out.ID
}

// catalog is a hospital, specialization and doctor created through the admin API.
type catalog struct {
	adminToken       string
	specializationID uint
	hospitalID       uint
	doctorID         uint
	doctorToken      string
}

// SetupCatalog creates one cardiology doctor practising at one Jakarta
// hospital and logs that doctor in.
func SetupCatalog(t *testing.T, r http.Handler, db *gorm.DB) catalog {
	t.Helper()
	var cat catalog
	cat.adminToken = CreateAdmin(t, r, db)
	cat.specializationID = createdID(t, r, cat.adminToken, "/specializations", map[string]string{"name": "Cardiology"})
	cat.hospitalID = createdID(t, r, cat.adminToken, "/hospitals", map[string]interface{}{
		"name": "City General", "city": "Jakarta", "address": "Jl. Sudirman 1", "rating": 4.5,
		"specialization_ids": []uint{cat.specializationID},
	})
	cat.doctorID = createdID(t, r, cat.adminToken, "/doctors", map[string]interface{}{
		"name": "Dr. Andi", "email": "andi@example.com", "password": "doctorpass1",
		"city": "Jakarta", "years_of_experience": 8,
		"specialization_ids": []uint{cat.specializationID},
		"hospital_ids":       []uint{cat.hospitalID},
	})
	cat.doctorToken, _ = Login(t, r, "andi@example.com", "doctorpass1")
	return cat
}

func idPath(prefix string, id uint, suffix string) string {
	return fmt.Sprintf("%s/%d%s", prefix, id, suffix)
}
