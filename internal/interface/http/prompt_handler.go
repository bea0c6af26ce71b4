package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/codex/internal/application"
	"github.com/oksasatya/codex/internal/interface/middleware"
	"github.com/oksasatya/codex/pkg/response"
)

type PromptHandler struct {
	Prompts *application.PromptService
	Logger  *logrus.Logger
}

func NewPromptHandler(prompts *application.PromptService, logger *logrus.Logger) *PromptHandler {
	return &PromptHandler{Prompts: prompts, Logger: logger}
}

type promptRequest struct {
	Title    string   `json:"title" binding:"required,max=200"`
	Prompt   string   `json:"prompt" binding:"required,max=100000"`
	Response string   `json:"response" binding:"max=200000"`
	Model    string   `json:"model" binding:"max=100"`
	Tags     []string `json:"tags" binding:"max=20,dive,tagitem"`
}

func (r promptRequest) input() application.PromptInput {
	return application.PromptInput{Title: r.Title, Prompt: r.Prompt, Response: r.Response, Model: r.Model, Tags: r.Tags}
}

type pageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

type searchQuery struct {
	Q     string `form:"q" binding:"required,max=200"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// List GET /api/prompts?limit=&offset=
func (h *PromptHandler) List(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}
	page, err := h.Prompts.List(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), q.Limit, q.Offset)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

// Search GET /api/prompts/search?q=
func (h *PromptHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}
	items, err := h.Prompts.Search(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), q.Q, q.Limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// Create POST /api/prompts
func (h *PromptHandler) Create(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	p, err := h.Prompts.Create(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), req.input())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, application.NewPromptView(p))
}

// Get GET /api/prompts/:id
func (h *PromptHandler) Get(c *gin.Context) {
	p, err := h.Prompts.Get(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, application.NewPromptView(p))
}

// Update PUT /api/prompts/:id
func (h *PromptHandler) Update(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	p, err := h.Prompts.Update(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), c.Param("id"), req.input())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, application.NewPromptView(p))
}

// Delete DELETE /api/prompts/:id
func (h *PromptHandler) Delete(c *gin.Context) {
	if err := h.Prompts.Delete(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), c.Param("id")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil)
}
