package endpoint

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ariebrainware/medlink/middleware"
	"github.com/ariebrainware/medlink/service"
	"github.com/ariebrainware/medlink/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var errMissingToken = errors.New("session token not provided")

func bindJSONOrRespond(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: err})
		return false
	}
	return true
}

func getDBOrRespond(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database connection not available", Err: fmt.Errorf("db is nil")})
		return nil, false
	}
	return db, true
}

func getSchedulerOrRespond(c *gin.Context) (*service.Scheduler, bool) {
	s := middleware.GetScheduler(c)
	if s == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Scheduler not available", Err: fmt.Errorf("scheduler is nil")})
		return nil, false
	}
	return s, true
}

func getPrincipalOrRespond(c *gin.Context) (service.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "User not authenticated", Err: fmt.Errorf("user id not found in context")})
		return service.Principal{}, false
	}
	return p, true
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		util.CallUserError(c, util.APIErrorParams{Msg: fmt.Sprintf("Invalid %s", name), Err: fmt.Errorf("invalid %s %q", name, c.Param(name))})
		return 0, false
	}
	return uint(id), true
}

// respondServiceError writes err using its AppError status and message.
func respondServiceError(c *gin.Context, err error) {
	var appErr *service.AppError
	if errors.As(err, &appErr) && appErr.Type == service.ErrorTypeInternal {
		util.Logger().Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	util.CallAppError(c, util.APIErrorParams{Msg: service.Message(err), Err: err})
}
