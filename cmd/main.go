package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/codex/config"
	"github.com/oksasatya/codex/internal/container"
	"github.com/oksasatya/codex/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/codex/internal/infrastructure/postgres"
	"github.com/oksasatya/codex/internal/infrastructure/search"
	"github.com/oksasatya/codex/internal/router"
	"github.com/oksasatya/codex/pkg/helpers"
	"github.com/oksasatya/codex/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	container.SetConfig(cfg)
	container.SetLogger(logger)

	closeStore := setupStore(ctx, cfg, logger)
	defer closeStore()

	// Redis
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	container.SetRedis(rdb)

	// GCS only backs account exports; without a bucket exports are returned inline
	if cfg.GCSExportBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			log.Fatalf("failed to init GCS client: %v", err)
		}
		defer func() { _ = gcsClient.Close() }()
		container.SetGCS(gcsClient)
	}

	container.SetJWT(helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL))

	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQLifecycleQueue)
		if err != nil {
			// lifecycle emails are best-effort, the API still works without them
			helpers.LogError(logger, "rabbitmq unavailable, lifecycle emails disabled", err, nil)
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}

	if cfg.SearchEnabled {
		setupSearch(ctx, cfg, logger)
	}

	r := router.NewEngine(cfg, logger)
	reg := router.NewRegistry(r)
	router.InitModules(reg, router.BuildDeps())
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s (env=%s store=%s)", cfg.Port, cfg.Env, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// setupStore registers the repositories for STORE_DRIVER and returns a closer.
func setupStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) func() {
	if cfg.StoreDriver == "memory" {
		logger.Warn("using in-memory store; data is lost on restart")
		container.SetRepositories(memory.NewUserRepository(), memory.NewPromptRepository())
		return func() {}
	}

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		pool.Close()
		log.Fatalf("migration failed: %v", err)
	}
	container.SetPGPool(pool)
	container.SetRepositories(pginfra.NewUserRepository(pool), pginfra.NewPromptRepository(pool))
	return pool.Close
}

func setupSearch(ctx context.Context, cfg *config.Config, logger *logrus.Logger) {
	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		helpers.LogError(logger, "elasticsearch client failed, search falls back to the database", err, nil)
		return
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := search.NewPromptIndex(es, cfg.ESPromptsIndex).EnsureIndex(c); err != nil {
		helpers.LogError(logger, "ensure prompt index failed", err, logrus.Fields{"index": cfg.ESPromptsIndex})
	}
	container.SetES(es)
}
