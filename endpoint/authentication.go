package endpoint

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariebrainware/medlink/middleware"
	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/util"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	sessionTTL        = time.Hour
	maxFailedAttempts = 5
	lockoutDuration   = 15 * time.Minute
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"user@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

type LoginResponse struct {
	Token  string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Role   string `json:"role" example:"USER"`
	UserID uint   `json:"user_id" example:"1"`
	Name   string `json:"name" example:"Jane Doe"`
	Email  string `json:"email" example:"jane@example.com"`
}

// Login godoc
// @Summary      User login
// @Description  Authenticate user with email and password
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} util.APIResponse{data=LoginResponse} "Login successful"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Invalid email or password"
// @Failure      429 {object} util.APIResponse "Account locked"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /auth/login [post]
func Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	ci := clientInfo{IP: c.ClientIP(), Agent: c.Request.UserAgent()}
	ctx := loginContext{C: c, DB: db, Email: strings.ToLower(strings.TrimSpace(req.Email)), CI: ci}

	user, ok := loadUserForLogin(ctx)
	if !ok {
		return
	}
	if !ensureAccountNotLocked(ctx, &user) {
		return
	}
	if !verifyPasswordOrRespond(ctx, &user, req.Password) {
		return
	}
	finalizeLogin(ctx, &user, req.Password, "Login successful")
}

type clientInfo struct {
	IP    string
	Agent string
}

type loginContext struct {
	C     *gin.Context
	DB    *gorm.DB
	Email string
	CI    clientInfo
}

func loadUserForLogin(ctx loginContext) (model.User, bool) {
	user, err := loadUserByEmail(ctx.DB, ctx.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "user not found")
		util.CallUserNotAuthorized(ctx.C, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("user not found")})
		return model.User{}, false
	}
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "database error")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Database error", Err: err})
		return model.User{}, false
	}
	return user, true
}

func ensureAccountNotLocked(ctx loginContext, user *model.User) bool {
	if locked, expiry := isAccountLocked(user); locked {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "account locked")
		util.CallTooManyRequests(ctx.C, util.APIErrorParams{
			Msg: fmt.Sprintf("Account is locked until %s due to multiple failed login attempts", expiry.Format(time.RFC3339)),
			Err: fmt.Errorf("account locked"),
		})
		return false
	}
	return true
}

func verifyPasswordOrRespond(ctx loginContext, user *model.User, plain string) bool {
	match, err := util.VerifyPassword(plain, user.Password, user.PasswordSalt)
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "password verification error")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Password verification failed", Err: err})
		return false
	}
	if !match {
		incrementFailedAttempts(ctx.DB, user, ctx.CI)
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "invalid password")
		util.CallUserNotAuthorized(ctx.C, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("invalid password")})
		return false
	}
	return true
}

// finalizeLogin issues a token, records the session and answers with the
// LoginResponse. It is shared by login and registration.
func finalizeLogin(ctx loginContext, user *model.User, plain, msg string) bool {
	if err := resetFailedAttempts(ctx.DB, user); err != nil {
		util.LogSecurityEvent(util.SecurityEvent{EventType: util.EventSuspiciousActivity, UserID: fmt.Sprintf("%d", user.ID), Email: user.Email, IP: ctx.CI.IP, Message: fmt.Sprintf("Failed to reset failed attempts: %v", err)})
	}
	_ = upgradeLegacyPasswordIfNeeded(ctx.DB, user, plain, ctx.CI)

	role, err := fetchRole(ctx.DB, user.RoleID)
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "role not found")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Role not found", Err: err})
		return false
	}

	expires := time.Now().Add(sessionTTL)
	tokenString, err := createJWTToken(*user, expires)
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "token generation failed")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Could not generate token", Err: err})
		return false
	}

	session, err := recordSession(ctx.DB, SessionInfo{UserID: user.ID, Token: tokenString, Client: ctx.CI, Expires: expires})
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "session creation failed")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Failed to record session", Err: err})
		return false
	}

	if err := util.CacheSession(ctx.C.Request.Context(), tokenString, session.UserID, role.ID, time.Until(session.ExpiresAt)); err != nil {
		util.Logger().Warn().Err(err).Uint("user_id", user.ID).Msg("failed to cache session")
	}
	util.UserEmailCacheSet(user.ID, user.Email)

	util.LogLoginSuccess(user.ID, user.Email, ctx.CI.IP, ctx.CI.Agent)
	util.CallSuccessOK(ctx.C, util.APISuccessParams{Msg: msg, Data: LoginResponse{
		Token:  tokenString,
		Role:   role.Name,
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	}})
	return true
}

func loadUserByEmail(db *gorm.DB, email string) (model.User, error) {
	var user model.User
	err := db.Where("email = ?", email).First(&user).Error
	return user, err
}

func isAccountLocked(user *model.User) (bool, time.Time) {
	if user.LockedUntil != nil && *user.LockedUntil > time.Now().Unix() {
		return true, time.Unix(*user.LockedUntil, 0)
	}
	return false, time.Time{}
}

func incrementFailedAttempts(db *gorm.DB, user *model.User, ci clientInfo) {
	user.FailedAttempts++
	if user.FailedAttempts >= maxFailedAttempts {
		lockUntil := time.Now().Add(lockoutDuration).Unix()
		user.LockedUntil = &lockUntil
		util.LogAccountLocked(user.ID, user.Email, ci.IP, "too many failed login attempts")
	}
	err := db.Model(user).Updates(map[string]interface{}{
		"failed_attempts": user.FailedAttempts,
		"locked_until":    user.LockedUntil,
	}).Error
	if err != nil {
		util.LogLoginFailure(user.Email, ci.IP, ci.Agent, "failed to update failed attempts")
	}
}

func resetFailedAttempts(db *gorm.DB, user *model.User) error {
	if user.FailedAttempts == 0 && user.LockedUntil == nil {
		return nil
	}
	user.FailedAttempts = 0
	user.LockedUntil = nil
	return db.Model(user).Updates(map[string]interface{}{"failed_attempts": 0, "locked_until": nil}).Error
}

func upgradeLegacyPasswordIfNeeded(db *gorm.DB, user *model.User, plain string, ci clientInfo) error {
	if util.IsArgon2Hash(user.Password) {
		return nil
	}
	salt, err := util.GenerateSalt()
	if err != nil {
		return err
	}
	hashed, err := util.HashPasswordArgon2(plain, salt)
	if err != nil {
		return err
	}
	user.Password = hashed
	user.PasswordSalt = salt
	if err := db.Model(user).Updates(map[string]interface{}{"password": hashed, "password_salt": salt}).Error; err != nil {
		util.LogSecurityEvent(util.SecurityEvent{EventType: util.EventSuspiciousActivity, UserID: fmt.Sprintf("%d", user.ID), Email: user.Email, IP: ci.IP, Message: fmt.Sprintf("Failed to upgrade password hash: %v", err)})
		return err
	}
	util.LogSecurityEvent(util.SecurityEvent{EventType: util.EventPasswordChanged, UserID: fmt.Sprintf("%d", user.ID), Email: user.Email, IP: ci.IP, Message: "Upgraded password hash to Argon2"})
	return nil
}

func fetchRole(db *gorm.DB, roleID uint32) (model.Role, error) {
	var role model.Role
	err := db.Where("id = ?", roleID).First(&role).Error
	return role, err
}

func createJWTToken(user model.User, expires time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.RoleID,
		"exp":   expires.Unix(),
		"iat":   time.Now().Unix(),
		"jti":   uuid.NewString(),
	})
	return token.SignedString(util.GetJWTSecretByte())
}

// SessionInfo groups parameters for creating a session to avoid long argument lists.
type SessionInfo struct {
	UserID  uint
	Token   string
	Client  clientInfo
	Expires time.Time
}

func recordSession(db *gorm.DB, info SessionInfo) (model.Session, error) {
	session := model.Session{UserID: info.UserID, SessionToken: info.Token, ExpiresAt: info.Expires, ClientIP: info.Client.IP, Browser: info.Client.Agent}
	err := db.Create(&session).Error
	return session, err
}

// Logout godoc
// @Summary      User logout
// @Description  Invalidate the caller's session token
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse "Logout successful"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /auth/logout [delete]
func Logout(c *gin.Context) {
	sessionToken := middleware.BearerToken(c)
	if sessionToken == "" {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Session token not provided",
			Err: fmt.Errorf("session token not provided"),
		})
		c.Abort()
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var session model.Session
	if err := db.Where("session_token = ?", sessionToken).First(&session).Error; err != nil {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Session not found",
			Err: err,
		})
		return
	}

	var user model.User
	if err := db.First(&user, session.UserID).Error; err == nil {
		util.LogLogout(user.ID, user.Email, c.ClientIP(), c.Request.UserAgent())
	}

	if err := db.Delete(&session).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete session",
			Err: err,
		})
		return
	}

	if err := util.DropSession(c.Request.Context(), sessionToken, session.UserID); err != nil {
		util.Logger().Warn().Err(err).Uint("user_id", session.UserID).Msg("failed to drop cached session")
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Logout successful",
	})
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required" example:"John Doe"`
	Email    string `json:"email" binding:"required,email" example:"john@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"password123"`
}

// Register godoc
// @Summary      Patient signup
// @Description  Register a patient account and start a session
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Signup details"
// @Success      200 {object} util.APIResponse{data=LoginResponse} "Signup successful"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      409 {object} util.APIResponse "Email already exists"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /auth/register [post]
func Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !ensureEmailAvailable(c, db, email) {
		return
	}

	hashedPassword, salt, ok := hashPasswordForSignup(c, req.Password)
	if !ok {
		return
	}

	newUser := model.User{
		Name:         util.NormalizeName(req.Name),
		Email:        email,
		Password:     hashedPassword,
		PasswordSalt: salt,
		RoleID:       model.RoleIDUser,
	}
	if err := db.Create(&newUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.CallConflict(c, util.APIErrorParams{Msg: "Email already exists", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create new user", Err: err})
		return
	}

	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventSignupSuccess,
		UserID:    fmt.Sprintf("%d", newUser.ID),
		Email:     newUser.Email,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   "User signed up successfully",
	})

	ci := clientInfo{IP: c.ClientIP(), Agent: c.Request.UserAgent()}
	finalizeLogin(loginContext{C: c, DB: db, Email: email, CI: ci}, &newUser, req.Password, "Signup successful")
}

func ensureEmailAvailable(c *gin.Context, db *gorm.DB, email string) bool {
	var existingUser model.User
	err := db.First(&existingUser, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	if err == nil {
		util.CallConflict(c, util.APIErrorParams{Msg: "Email already exists", Err: fmt.Errorf("email already exists")})
		return false
	}
	util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
	return false
}

func hashPasswordForSignup(c *gin.Context, plain string) (string, string, bool) {
	salt, err := util.GenerateSalt()
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to generate password salt", Err: err})
		return "", "", false
	}
	hashedPassword, err := util.HashPasswordArgon2(plain, salt)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
		return "", "", false
	}
	return hashedPassword, salt, true
}

// forgotPasswordMsg is the answer whether or not the address is registered.
const forgotPasswordMsg = "If your email is registered, you will receive a reset link shortly."

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email" example:"jane@example.com"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required" example:"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"`
	Password string `json:"password" binding:"required,min=8" example:"newpassword123"`
}

// ForgotPassword godoc
// @Summary      Request a password reset
// @Description  Send a single-use reset token to the account's email. The response does not reveal whether the email is registered.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Account email"
// @Success      200 {object} util.APIResponse "Reset requested"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      429 {object} util.APIResponse "Too many requests"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /auth/forgot-password [post]
func ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	s, ok := getSchedulerOrRespond(c)
	if !ok {
		return
	}

	if err := s.RequestPasswordReset(c.Request.Context(), db, req.Email); err != nil {
		respondServiceError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: forgotPasswordMsg})
}

// ResetPassword godoc
// @Summary      Reset password
// @Description  Redeem a reset token, set a new password and sign out every session of the account
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Reset token and new password"
// @Success      200 {object} util.APIResponse "Password reset"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Reset token is invalid or expired"
// @Failure      429 {object} util.APIResponse "Too many requests"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /auth/reset-password [post]
func ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	s, ok := getSchedulerOrRespond(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	userID, err := s.ResetPassword(ctx, db, req.Token, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	revokeUserSessions(ctx, db, userID)

	// The caller proved control of the mailbox, so earlier failed logins
	// from this address no longer count against it.
	loginPath := strings.TrimSuffix(c.Request.URL.Path, "reset-password") + "login"
	if err := middleware.ResetRateLimit(ctx, c.ClientIP(), loginPath); err != nil {
		util.Logger().Warn().Err(err).Uint("user_id", userID).Msg("failed to reset login rate limit")
	}

	email, _ := util.UserEmailCacheGet(userID)
	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventPasswordChanged,
		UserID:    fmt.Sprintf("%d", userID),
		Email:     email,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   "Password reset with emailed token",
	})
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Password has been reset"})
}
