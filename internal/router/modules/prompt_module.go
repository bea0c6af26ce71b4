package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/codex/internal/interface/http"
	"github.com/oksasatya/codex/internal/interface/middleware"
	"github.com/oksasatya/codex/pkg/helpers"
)

type PromptModule struct {
	Handler *handlers.PromptHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewPromptModule(h *handlers.PromptHandler, jwt *helpers.JWTManager, rdb *redis.Client) *PromptModule {
	return &PromptModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *PromptModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/prompts")
	g.Use(middleware.Auth(m.Redis, m.JWT))
	g.Use(middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByUserID(), nil))
	{
		g.GET("", m.Handler.List)
		g.GET("/search", m.Handler.Search)
		g.POST("", m.Handler.Create)
		g.GET("/:id", m.Handler.Get)
		g.PUT("/:id", m.Handler.Update)
		g.DELETE("/:id", m.Handler.Delete)
	}
}
