package api

import (
	"errors"
	"net/http"

	"gymdesk/internal/logger"

	"github.com/gin-gonic/gin"
)

// Error is a domain error that carries the HTTP status it maps to. The
// message is shown to the user verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error    { return NewError(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error  { return NewError(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error     { return NewError(http.StatusForbidden, message) }
func NotFound(message string) *Error      { return NewError(http.StatusNotFound, message) }
func Conflict(message string) *Error      { return NewError(http.StatusConflict, message) }
func Unprocessable(message string) *Error { return NewError(http.StatusUnprocessableEntity, message) }

// StatusOf returns the HTTP status for err, 500 for anything unknown.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}

// Fail answers err in the envelope. Unknown errors are logged and hidden.
func Fail(c *gin.Context, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		Abort(c, apiErr.Status, apiErr.Message)
		return
	}

	logger.Error("request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"error", err,
	)
	Abort(c, http.StatusInternalServerError, "internal server error")
}
