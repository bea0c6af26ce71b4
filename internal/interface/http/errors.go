package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/codex/internal/application"
	"github.com/oksasatya/codex/pkg/response"
	"github.com/oksasatya/codex/pkg/validation"
)

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// Domain errors and the envelope they turn into. Anything else is a 500.
var errorTable = []errorMapping{
	{application.ErrInvalidCredentials, http.StatusUnauthorized, response.CodeUnauthorized, "invalid credentials"},
	{application.ErrUserNotFound, http.StatusNotFound, response.CodeNotFound, "user not found"},
	{application.ErrNotEligible, http.StatusGone, response.CodeNotEligible, "account can no longer be restored"},
	{application.ErrDuplicateEmail, http.StatusConflict, response.CodeConflict, "email already registered"},
	{application.ErrDuplicateUsername, http.StatusConflict, response.CodeConflict, "username already taken"},
	{application.ErrPromptNotFound, http.StatusNotFound, response.CodeNotFound, "prompt not found"},
	{application.ErrInvalidInput, http.StatusBadRequest, response.CodeBadRequest, "invalid input"},
}

// writeError maps err onto the envelope. Unknown errors are logged and
// reported without their text.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			response.Error(c, m.status, m.code, m.message, nil)
			return
		}
	}
	if logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	response.Error(c, http.StatusInternalServerError, response.CodeInternal, "internal error", nil)
}

func writeBindError(c *gin.Context, err error) {
	response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request", validation.ToDetails(err))
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

func requestMeta(c *gin.Context) application.RequestMeta {
	return application.RequestMeta{IP: clientIP(c), UserAgent: c.GetHeader("User-Agent")}
}
