package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/codex/internal/application"
	"github.com/oksasatya/codex/internal/interface/middleware"
	"github.com/oksasatya/codex/pkg/helpers"
	"github.com/oksasatya/codex/pkg/response"
)

// AccountHandler serves the profile and the account lifecycle endpoints.
type AccountHandler struct {
	Users   *application.UserService
	Cookies *helpers.Manager
	Logger  *logrus.Logger
}

func NewAccountHandler(users *application.UserService, cookies *helpers.Manager, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{Users: users, Cookies: cookies, Logger: logger}
}

// GetProfile GET /api/profile
func (h *AccountHandler) GetProfile(c *gin.Context) {
	u, err := h.Users.GetProfile(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, newUserView(u))
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,min=1,max=64"`
	AvatarURL   *string `json:"avatar_url" binding:"omitempty,max=2048"`
}

// UpdateProfile PUT /api/profile
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	u, err := h.Users.UpdateProfile(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), application.UpdateProfileInput{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, newUserView(u))
}

type deletionView struct {
	Status    string    `json:"status"`
	DeletedAt time.Time `json:"deleted_at"`
	PurgeAt   time.Time `json:"purge_at"`
}

// Delete DELETE /api/account marks the account; it can be restored until purge_at.
func (h *AccountHandler) Delete(c *gin.Context) {
	u, err := h.Users.MarkForDeletion(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), requestMeta(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, deletionView{
		Status:    string(h.Users.State(u)),
		DeletedAt: *u.DeletedAt,
		PurgeAt:   h.Users.PurgeAt(u),
	})
}

// Export GET /api/account/export
func (h *AccountHandler) Export(c *gin.Context) {
	exp, err := h.Users.ExportPrompts(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, exp)
}
