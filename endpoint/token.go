package endpoint

import (
	"time"

	"github.com/ariebrainware/medlink/middleware"
	"github.com/ariebrainware/medlink/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TokenInfo describes a live session.
type TokenInfo struct {
	UserID    uint      `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ValidateToken godoc
// @Summary      Validate session token
// @Description  Validate if the session token is valid and not expired
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=TokenInfo} "Valid session token"
// @Failure      401 {object} util.APIResponse "Invalid or expired session token"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /token/validate [get]
func ValidateToken(c *gin.Context) {
	sessionToken := middleware.BearerToken(c)
	if sessionToken == "" {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Invalid session token", Err: errMissingToken})
		c.Abort()
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	info, err := lookupTokenInfo(db, sessionToken)
	if err != nil {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Session not found", Err: err})
		c.Abort()
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Valid session token",
		Data: info,
	})
}

func lookupTokenInfo(db *gorm.DB, token string) (TokenInfo, error) {
	var info TokenInfo
	err := db.Table("sessions").
		Select("sessions.user_id, users.name, users.email, roles.name AS role, sessions.expires_at").
		Joins("JOIN users ON sessions.user_id = users.id AND users.deleted_at IS NULL").
		Joins("JOIN roles ON users.role_id = roles.id").
		Where("sessions.session_token = ? AND sessions.expires_at > ? AND sessions.deleted_at IS NULL", token, time.Now()).
		Take(&info).Error
	return info, err
}
