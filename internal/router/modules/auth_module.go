package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/codex/internal/interface/http"
	"github.com/oksasatya/codex/internal/interface/middleware"
	"github.com/oksasatya/codex/pkg/helpers"
)

// AuthModule serves /auth/*. Credential endpoints are rate limited per IP
// and route; internal callers (health checks, seeding) are exempt.
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager, rdb *redis.Client) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	byIP, internal := middleware.KeyByIPAndPath(), middleware.AllowPrivateIP()
	registerLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, byIP, internal)
	loginLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, byIP, internal)
	restoreLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, byIP, internal)
	refreshLimiter := middleware.RateLimit(m.Redis, 60, time.Minute, byIP, internal)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/restore", restoreLimiter, m.Handler.Restore)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)

	rg.POST("/auth/logout", middleware.Auth(m.Redis, m.JWT), m.Handler.Logout)
}
