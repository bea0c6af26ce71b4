package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/codex/config"
	"github.com/oksasatya/codex/internal/interface/middleware"
	"github.com/oksasatya/codex/pkg/response"
)

// NewEngine builds the gin engine with the global middleware chain.
// CORS sits on the engine rather than the /api group so that preflights
// for any path are answered.
func NewEngine(cfg *config.Config, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	if err := middleware.TrustProxies(r, cfg.TrustedProxyList()); err != nil {
		logger.WithError(err).Warn("invalid TRUSTED_PROXIES, forwarded headers ignored")
		_ = middleware.TrustProxies(r, nil)
	}
	r.Use(gin.CustomRecovery(func(c *gin.Context, _ any) {
		response.Abort(c, http.StatusInternalServerError, response.CodeInternal, "internal server error", nil)
	}))
	r.Use(middleware.RequestID(), middleware.RealIP())
	policy := middleware.NewCORSPolicy(cfg.DevOrigins(), cfg.ProdOrigins(), cfg.CORSCanonicalOrigin, logger)
	r.Use(middleware.CORS(policy, cfg.IsDevelopment()))
	if cfg.DebugMetricsEnabled {
		r.Use(middleware.CountResponses())
	}
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "route not found", nil)
	})
	return r
}
