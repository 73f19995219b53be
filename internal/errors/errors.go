package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError is the JSON body of every error response
type APIError struct {
	Message string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

type errorKind struct {
	status   int
	fallback string
}

var kinds = map[string]errorKind{
	ErrCodeUnauthorized:       {http.StatusUnauthorized, "Authentication credentials were not provided."},
	ErrCodeInvalidCredentials: {http.StatusUnauthorized, "No active account found with the given credentials"},
	ErrCodeForbidden:          {http.StatusForbidden, "You do not have permission to perform this action."},
	ErrCodeInvalidInput:       {http.StatusBadRequest, "Invalid request"},
	ErrCodeNotFound:           {http.StatusNotFound, "Not found."},
	ErrCodeInternalError:      {http.StatusInternalServerError, "Internal server error"},
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, "Service temporarily unavailable"},
}

// Abort writes the error body for code and stops the handler chain. An empty
// message is replaced by the code's default.
func Abort(c *gin.Context, code, message string, details interface{}) {
	kind, ok := kinds[code]
	if !ok {
		kind = kinds[ErrCodeInternalError]
	}
	if message == "" {
		message = kind.fallback
	}
	c.AbortWithStatusJSON(kind.status, &APIError{Message: message, Code: code, Details: details})
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	Abort(c, ErrCodeUnauthorized, message, nil)
}

// InvalidCredentials sends a 401 response for a failed login
func InvalidCredentials(c *gin.Context) {
	Abort(c, ErrCodeInvalidCredentials, "", nil)
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	Abort(c, ErrCodeForbidden, message, nil)
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	Abort(c, ErrCodeNotFound, message, nil)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	Abort(c, ErrCodeInvalidInput, message, nil)
}

// BadRequestWithDetails sends a 400 response with field-keyed details
func BadRequestWithDetails(c *gin.Context, message string, details interface{}) {
	Abort(c, ErrCodeInvalidInput, message, details)
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	Abort(c, ErrCodeInternalError, message, nil)
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	Abort(c, ErrCodeServiceUnavailable, message, nil)
}
