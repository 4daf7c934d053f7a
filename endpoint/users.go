package endpoint

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var ErrUserEmailAlreadyExists = errors.New("email already exists")

type UpdateUserRequest struct {
	Name     string `json:"name" example:"John Doe"`
	Email    string `json:"email" binding:"omitempty,email" example:"john@example.com"`
	Password string `json:"password" binding:"omitempty,min=8" example:"newpassword123"`
}

func (r UpdateUserRequest) empty() bool {
	return r.Name == "" && r.Email == "" && r.Password == ""
}

// applyUserUpdate copies the requested changes onto user. It reports whether
// the password changed so the caller can revoke existing sessions.
func applyUserUpdate(db *gorm.DB, user *model.User, req UpdateUserRequest) (bool, error) {
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" && email != user.Email {
		var count int64
		if err := db.Model(&model.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
			return false, fmt.Errorf("failed to validate email uniqueness: %w", err)
		}
		if count > 0 {
			return false, ErrUserEmailAlreadyExists
		}
		user.Email = email
	}
	if name := util.NormalizeName(req.Name); name != "" {
		user.Name = name
	}
	if req.Password == "" {
		return false, nil
	}
	salt, err := util.GenerateSalt()
	if err != nil {
		return false, fmt.Errorf("failed to generate password salt: %w", err)
	}
	hashed, err := util.HashPasswordArgon2(req.Password, salt)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hashed
	user.PasswordSalt = salt
	return true, nil
}

// revokeUserSessions removes the user's sessions from the table and the cache.
func revokeUserSessions(ctx context.Context, db *gorm.DB, userID uint) {
	if err := db.Where("user_id = ?", userID).Delete(&model.Session{}).Error; err != nil {
		util.Logger().Warn().Err(err).Uint("user_id", userID).Msg("failed to delete sessions")
	}
	if err := util.InvalidateUserSessions(ctx, userID); err != nil {
		util.Logger().Warn().Err(err).Uint("user_id", userID).Msg("failed to invalidate cached sessions")
	}
}

func updateUserOrRespond(c *gin.Context, db *gorm.DB, user *model.User, req UpdateUserRequest) {
	passwordChanged, err := applyUserUpdate(db, user, req)
	if errors.Is(err, ErrUserEmailAlreadyExists) {
		util.CallConflict(c, util.APIErrorParams{Msg: "Email already exists", Err: err})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update user fields", Err: err})
		return
	}

	if err := db.Save(user).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update user", Err: err})
		return
	}
	util.UserEmailCacheSet(user.ID, user.Email)

	if passwordChanged {
		revokeUserSessions(c.Request.Context(), db, user.ID)
		util.LogSecurityEvent(util.SecurityEvent{
			EventType: util.EventPasswordChanged,
			UserID:    fmt.Sprintf("%d", user.ID),
			Email:     user.Email,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Message:   "Password changed, sessions revoked",
		})
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "User updated successfully", Data: user})
}

func bindUpdateUserRequest(c *gin.Context) (UpdateUserRequest, bool) {
	var req UpdateUserRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return req, false
	}
	if req.empty() {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "At least one field (name, email, or password) must be provided",
			Err: fmt.Errorf("no fields to update"),
		})
		return req, false
	}
	return req, true
}

func fetchUserOrRespond(c *gin.Context, db *gorm.DB, userID uint) (*model.User, bool) {
	var user model.User
	err := db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "User not found", Err: err})
		return nil, false
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve user", Err: err})
		return nil, false
	}
	return &user, true
}

// UpdateUser godoc
// @Summary      Update current user profile
// @Description  Update the caller's name, email and/or password. A new password revokes every session.
// @Tags         User
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateUserRequest true "Update details"
// @Success      200 {object} util.APIResponse{data=model.User} "Update successful"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      409 {object} util.APIResponse "Email already exists"
// @Router       /user [patch]
func UpdateUser(c *gin.Context) {
	req, ok := bindUpdateUserRequest(c)
	if !ok {
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
	user, ok := fetchUserOrRespond(c, db, caller.UserID)
	if !ok {
		return
	}
	updateUserOrRespond(c, db, user, req)
}

// ListUsers godoc
// @Summary      List users (admin only)
// @Description  Cursor-paginated users, optionally filtered by keyword and role
// @Tags         User
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query int    false "Page size (default 10, max 100)"
// @Param        cursor  query int    false "Return users with id greater than this"
// @Param        keyword query string false "Match name or email"
// @Param        role    query string false "ADMIN, USER or DOCTOR"
// @Success      200 {object} util.APIResponse{data=object} "Users retrieved"
// @Router       /users [get]
func ListUsers(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	limit := parsePositiveInt(c.Query("limit"), 10, 100)
	cursor, _ := strconv.ParseUint(c.Query("cursor"), 10, 64)

	keyword := strings.TrimSpace(c.Query("keyword"))
	role := strings.ToUpper(c.Query("role"))
	filtered := func() *gorm.DB {
		q := db.Model(&model.User{})
		if keyword != "" {
			like := "%" + keyword + "%"
			q = q.Where("name LIKE ? OR email LIKE ?", like, like)
		}
		if role != "" {
			q = q.Where("role_id = (?)", db.Model(&model.Role{}).Select("id").Where("name = ?", role))
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to count users", Err: err})
		return
	}

	query := filtered()
	if cursor > 0 {
		query = query.Where("id > ?", cursor)
	}
	users := []model.User{}
	if err := query.Order("id ASC").Limit(limit + 1).Find(&users).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve users", Err: err})
		return
	}

	hasMore := len(users) > limit
	var nextCursor *uint
	if hasMore {
		users = users[:limit]
		last := users[len(users)-1].ID
		nextCursor = &last
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Users retrieved",
		Data: map[string]interface{}{
			"users":       users,
			"total":       total,
			"has_more":    hasMore,
			"next_cursor": nextCursor,
		},
	})
}

// parsePositiveInt parses q, returning def when it is missing or not
// positive and capping it at max when max > 0.
func parsePositiveInt(q string, def, max int) int {
	v, err := strconv.Atoi(q)
	if err != nil || v <= 0 {
		return def
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

// GetUserInfo godoc
// @Summary      Get user (admin only)
// @Tags         User
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      200 {object} util.APIResponse{data=model.User} "User retrieved"
// @Failure      404 {object} util.APIResponse "User not found"
// @Router       /users/{id} [get]
func GetUserInfo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	user, ok := fetchUserOrRespond(c, db, id)
	if !ok {
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "User retrieved", Data: user})
}

// AdminUpdateUser godoc
// @Summary      Update a user (admin only)
// @Tags         User
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int               true "User ID"
// @Param        request body UpdateUserRequest true "Update details"
// @Success      200 {object} util.APIResponse{data=model.User} "Update successful"
// @Failure      404 {object} util.APIResponse "User not found"
// @Failure      409 {object} util.APIResponse "Email already exists"
// @Router       /users/{id} [patch]
func AdminUpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	req, ok := bindUpdateUserRequest(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	user, ok := fetchUserOrRespond(c, db, id)
	if !ok {
		return
	}
	updateUserOrRespond(c, db, user, req)
}

// DeleteUser godoc
// @Summary      Delete a user (admin only)
// @Description  Soft-delete a user and revoke their sessions. Doctors are removed through DELETE /doctors/{id}.
// @Tags         User
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      200 {object} util.APIResponse "User deleted"
// @Failure      404 {object} util.APIResponse "User not found"
// @Failure      409 {object} util.APIResponse "User has a doctor profile"
// @Router       /users/{id} [delete]
func DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	user, ok := fetchUserOrRespond(c, db, id)
	if !ok {
		return
	}
	if user.RoleID == model.RoleIDDoctor {
		util.CallConflict(c, util.APIErrorParams{Msg: "Delete the doctor profile instead", Err: fmt.Errorf("user %d is a doctor", id)})
		return
	}

	if err := db.Delete(user).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to delete user", Err: err})
		return
	}
	revokeUserSessions(c.Request.Context(), db, id)
	util.UserEmailCacheDelete(id)
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "User deleted"})
}
