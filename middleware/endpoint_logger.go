package middleware

import (
	"fmt"
	"time"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/util"
	"github.com/gin-gonic/gin"
)

// EndpointCallLogger records each request as an ENDPOINT_CALL security event
// and a zerolog access line. Events are persisted when
// util.SetSecurityLoggerDB was called during startup.
func EndpointCallLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		userID, _ := GetUserID(c)
		roleID, _ := GetRoleID(c)

		details := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"raw_path":    c.Request.URL.Path,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"query":       c.Request.URL.RawQuery,
		}
		if userID != 0 {
			details["user_id"] = userID
		}
		if roleID != 0 {
			details["role"] = model.RoleName(roleID)
		}

		util.LogSecurityEvent(util.SecurityEvent{
			EventType: util.EventEndpointCall,
			UserID:    fmt.Sprintf("%d", userID),
			Email:     util.GetUserEmail(GetDB(c), userID),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Message:   fmt.Sprintf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, status),
			Details:   details,
		})

		ev := util.Logger().Info()
		if status >= 500 {
			ev = util.Logger().Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Uint("user_id", userID).
			Msg("request")
	}
}
