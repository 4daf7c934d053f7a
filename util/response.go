package util

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Msg     string      `json:"msg"`
	Data    interface{} `json:"data"`
}

type APIErrorParams struct {
	Msg string
	Err error
}

type APISuccessParams struct {
	Msg  string
	Data interface{}
}

// StatusCoder is implemented by errors that carry their own HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

func callError(c *gin.Context, status int, params APIErrorParams) {
	errMsg := ""
	if params.Err != nil {
		errMsg = params.Err.Error()
	}
	c.JSON(status, APIResponse{
		Success: false,
		Error:   errMsg,
		Msg:     params.Msg,
		Data:    map[string]interface{}{},
	})
}

// CallErrorNotFound is for return API response not found
func CallErrorNotFound(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusNotFound, params)
}

// CallUserError is for return error from user side
func CallUserError(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusBadRequest, params)
}

// CallServerError is for return API response server error
func CallServerError(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusInternalServerError, params)
}

// CallUserNotAuthorized responds 401. Clients treat it as a dead session.
func CallUserNotAuthorized(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusUnauthorized, params)
}

// CallForbidden responds 403: the caller is known but may not do this.
func CallForbidden(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusForbidden, params)
}

// CallConflict responds 409, used for taken slots, illegal status moves and duplicate reviews.
func CallConflict(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusConflict, params)
}

// CallTooManyRequests responds 429.
func CallTooManyRequests(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusTooManyRequests, params)
}

// CallAppError picks the status from err when it implements StatusCoder and
// falls back to 500 otherwise. The error text becomes the envelope msg when
// params.Msg is empty.
func CallAppError(c *gin.Context, params APIErrorParams) {
	status := http.StatusInternalServerError
	var sc StatusCoder
	if errors.As(params.Err, &sc) {
		status = sc.HTTPStatus()
	}
	if params.Msg == "" && params.Err != nil {
		params.Msg = params.Err.Error()
	}
	callError(c, status, params)
}

// CallSuccessOK is for return API response with status code 200, you need to specify msg, and data as function parameter
func CallSuccessOK(c *gin.Context, params APISuccessParams) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Msg:     params.Msg,
		Data:    params.Data,
	})
}

// CallCreated responds 201 with the created resource.
func CallCreated(c *gin.Context, params APISuccessParams) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Msg:     params.Msg,
		Data:    params.Data,
	})
}

// NormalizeName trims surrounding whitespace and collapses internal runs of
// whitespace into single spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
