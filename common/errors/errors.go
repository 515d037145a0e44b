package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Wrap returns a copy of e carrying err. Sentinels are shared and never mutated.
func (e *Error) Wrap(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

var (
	ErrBadRequest         = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized       = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden          = New(http.StatusForbidden, "Forbidden", nil)
	ErrNotFound           = New(http.StatusNotFound, "Not found", nil)
	ErrInternalServer     = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "Service unavailable", nil)
	ErrTooManyRequests    = New(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
)

// Authentication error types
var (
	ErrInvalidCredentials = New(http.StatusUnauthorized, "Invalid credentials", nil)
	ErrInvalidToken       = New(http.StatusUnauthorized, "Invalid token", nil)
	ErrMissingToken       = New(http.StatusUnauthorized, "Authorization header required", nil)
)

// Abort stops the gin chain and renders err. Non-application errors become 500.
func Abort(c *gin.Context, err error) {
	appErr, ok := err.(*Error)
	if !ok {
		appErr = ErrInternalServer.Wrap(err)
	}
	c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr.Message})
}

// ErrorMiddleware renders the last error attached with c.Error when the
// handler wrote nothing itself.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		appErr, ok := err.(*Error)
		if !ok {
			appErr = ErrInternalServer.Wrap(err)
		}
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
	}
}
