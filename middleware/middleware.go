package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/service"
	"github.com/ariebrainware/medlink/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DBKey        = "db"
	SchedulerKey = "scheduler"
	UserIDKey    = "user_id"
	RoleIDKey    = "role_id"
	TokenKey     = "session_token"
)

func setCorsHeaders(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
	h.Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Authorization, session-token")
	h.Set("Access-Control-Max-Age", "86400")
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Content-Type", "application/json")
}

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setCorsHeaders(c)

		// For preflight requests, respond with 204 and abort further processing.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// DatabaseMiddleware exposes db to handlers through the gin context.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DBKey, db)
		c.Next()
	}
}

// GetDB returns the request's database handle, or nil when none was set.
func GetDB(c *gin.Context) *gorm.DB {
	v, ok := c.Get(DBKey)
	if !ok {
		return nil
	}
	db, _ := v.(*gorm.DB)
	return db
}

// SchedulerMiddleware exposes the booking scheduler to handlers.
func SchedulerMiddleware(s *service.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(SchedulerKey, s)
		c.Next()
	}
}

func GetScheduler(c *gin.Context) *service.Scheduler {
	v, ok := c.Get(SchedulerKey)
	if !ok {
		return nil
	}
	s, _ := v.(*service.Scheduler)
	return s
}

// BearerToken extracts the session token from "Authorization: Bearer <token>",
// falling back to the session-token header.
func BearerToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		const prefix = "bearer "
		if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
			return strings.TrimSpace(auth[len(prefix):])
		}
	}
	return strings.TrimSpace(c.GetHeader("session-token"))
}

// ValidateLoginToken authenticates the request's session token. The Redis
// cache is consulted first; a miss or an unreadable entry falls back to the
// sessions table, where expired rows are rejected.
func ValidateLoginToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			unauthorized(c, 0, "missing session token")
			return
		}

		db := GetDB(c)
		if db == nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Database connection not available",
				Err: fmt.Errorf("db not found in context"),
			})
			c.Abort()
			return
		}

		userID, roleID, err := util.LookupSession(c.Request.Context(), token)
		if err != nil || userID == 0 {
			if err != nil && !errors.Is(err, util.ErrSessionNotCached) {
				util.Logger().Warn().Err(err).Msg("session cache lookup failed, using database")
			}
			userID, roleID, err = lookupSessionInDB(db, token)
			if err != nil {
				unauthorized(c, 0, err.Error())
				return
			}
		}

		c.Set(UserIDKey, userID)
		c.Set(RoleIDKey, roleID)
		c.Set(TokenKey, token)
		c.Next()
	}
}

var errInvalidSession = errors.New("invalid or expired session")

func lookupSessionInDB(db *gorm.DB, token string) (uint, uint32, error) {
	var row struct {
		UserID uint
		RoleID uint32
	}
	err := db.Table("sessions").
		Select("sessions.user_id, users.role_id").
		Joins("JOIN users ON users.id = sessions.user_id AND users.deleted_at IS NULL").
		Where("sessions.session_token = ? AND sessions.expires_at > ? AND sessions.deleted_at IS NULL", token, time.Now()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && row.UserID == 0) {
		return 0, 0, errInvalidSession
	}
	if err != nil {
		return 0, 0, err
	}
	return row.UserID, row.RoleID, nil
}

func unauthorized(c *gin.Context, userID uint, reason string) {
	util.LogUnauthorizedAccess(userID, c.ClientIP(), c.Request.URL.Path, reason)
	util.CallUserNotAuthorized(c, util.APIErrorParams{
		Msg: "Unauthorized",
		Err: errors.New(reason),
	})
	c.Abort()
}

// RequireRole lets the request through only for the listed roles. It must
// run after ValidateLoginToken.
func RequireRole(roleIDs ...uint32) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleID, _ := GetRoleID(c)
		for _, id := range roleIDs {
			if roleID == id {
				c.Next()
				return
			}
		}
		userID, _ := GetUserID(c)
		util.LogUnauthorizedAccess(userID, c.ClientIP(), c.Request.URL.Path, "role "+model.RoleName(roleID)+" not permitted")
		util.CallForbidden(c, util.APIErrorParams{
			Msg: "You do not have permission to perform this action",
			Err: fmt.Errorf("role %d not permitted", roleID),
		})
		c.Abort()
	}
}

func GetUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func GetRoleID(c *gin.Context) (uint32, bool) {
	v, ok := c.Get(RoleIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint32)
	return id, ok
}

// GetPrincipal returns the authenticated caller set by ValidateLoginToken.
func GetPrincipal(c *gin.Context) (service.Principal, bool) {
	userID, ok := GetUserID(c)
	if !ok || userID == 0 {
		return service.Principal{}, false
	}
	roleID, _ := GetRoleID(c)
	return service.Principal{UserID: userID, RoleID: roleID}, true
}
