// Package response writes the JSON envelope every API response uses:
// {"success":true,"data":...} or {"success":false,"error":{...}}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes carried in error.code.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeNotEligible  = "NOT_ELIGIBLE"
	CodeBadRequest   = "BAD_REQUEST"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// SuccessBody always carries data, even when it is null.
type SuccessBody[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorBody struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// Success writes {success:true,data}. A zero status means 200.
func Success[T any](c *gin.Context, status int, data T) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, SuccessBody[T]{Success: true, Data: data})
}

// Error writes {success:false,error:{code,message,details?}}.
func Error(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, newError(code, message, details))
}

// Abort is Error for middleware: later handlers do not run.
func Abort(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, newError(code, message, details))
}

func newError(code, message string, details any) ErrorBody {
	if code == "" {
		code = CodeInternal
	}
	return ErrorBody{Success: false, Error: ErrorDetail{Code: code, Message: message, Details: details}}
}
