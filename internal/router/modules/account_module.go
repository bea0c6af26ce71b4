package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/codex/internal/interface/http"
	"github.com/oksasatya/codex/internal/interface/middleware"
	"github.com/oksasatya/codex/pkg/helpers"
)

// AccountModule serves /profile and /account. All routes need a session.
type AccountModule struct {
	Handler *handlers.AccountHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewAccountModule(h *handlers.AccountHandler, jwt *helpers.JWTManager, rdb *redis.Client) *AccountModule {
	return &AccountModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Redis, m.JWT))
	auth.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.DELETE("/account", m.Handler.Delete)
		// exports hit object storage; keep them rare
		auth.GET("/account/export", middleware.RateLimit(m.Redis, 5, time.Hour, middleware.KeyByUserID(), nil), m.Handler.Export)
	}
}
