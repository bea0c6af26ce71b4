package router

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/codex/internal/application"
	"github.com/oksasatya/codex/internal/container"
	handlers "github.com/oksasatya/codex/internal/interface/http"
	"github.com/oksasatya/codex/internal/router/modules"
	"github.com/oksasatya/codex/pkg/helpers"
)

// Deps is everything the HTTP modules need.
type Deps struct {
	Users        *application.UserService
	Prompts      *application.PromptService
	JWT          *helpers.JWTManager
	Redis        *redis.Client
	Cookies      *helpers.Manager
	Logger       *logrus.Logger
	Checks       map[string]handlers.Check
	DebugEnabled bool
}

// BuildDeps assembles Deps from the container singletons.
func BuildDeps() Deps {
	cfg := container.GetConfig()
	checks := map[string]handlers.Check{}
	if rdb := container.GetRedis(); rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if pool := container.GetPGPool(); pool != nil {
		checks["postgres"] = pgCheck(pool)
	}
	return Deps{
		Users:        container.BuildUserService(),
		Prompts:      container.BuildPromptService(),
		JWT:          container.GetJWT(),
		Redis:        container.GetRedis(),
		Cookies:      helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
		Logger:       container.GetLogger(),
		Checks:       checks,
		DebugEnabled: cfg.DebugMetricsEnabled,
	}
}

func pgCheck(pool *pgxpool.Pool) handlers.Check {
	return func(ctx context.Context) error { return pool.Ping(ctx) }
}

// InitModules registers every feature module with the registry.
// It should be called once during startup, before RegisterAll.
func InitModules(r *Registry, d Deps) {
	r.Add(modules.NewHealthModule(handlers.NewHealthHandler(d.Checks)))
	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(d.Users, d.Cookies, d.Logger), d.JWT, d.Redis))
	r.Add(modules.NewAccountModule(handlers.NewAccountHandler(d.Users, d.Cookies, d.Logger), d.JWT, d.Redis))
	r.Add(modules.NewPromptModule(handlers.NewPromptHandler(d.Prompts, d.Logger), d.JWT, d.Redis))
	if d.DebugEnabled {
		r.Add(modules.NewDebugModule())
	}
}
