package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/codex/config"
	"github.com/oksasatya/codex/internal/container"
	pginfra "github.com/oksasatya/codex/internal/infrastructure/postgres"
	"github.com/oksasatya/codex/pkg/helpers"
)

// sweeper purges accounts whose retention window has elapsed.
func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-sweeper", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.StoreDriver == "memory" {
		log.Fatal("sweeper needs a shared store; STORE_DRIVER=memory is process local")
	}
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetRepositories(pginfra.NewUserRepository(pool), pginfra.NewPromptRepository(pool))

	if cfg.GCSExportBucket != "" {
		if gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath); err != nil {
			helpers.LogError(logger, "gcs unavailable, exports will not be purged", err, nil)
		} else {
			defer func() { _ = gcsClient.Close() }()
			container.SetGCS(gcsClient)
		}
	}
	if cfg.MailSendEnabled {
		if pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQLifecycleQueue); err != nil {
			helpers.LogError(logger, "rabbitmq unavailable, purge emails disabled", err, nil)
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}
	if cfg.SearchEnabled {
		if es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass); err != nil {
			helpers.LogError(logger, "elasticsearch unavailable, search documents will not be purged", err, nil)
		} else {
			container.SetES(es)
		}
	}

	svc := container.BuildUserService()
	sweep := func() {
		n, err := svc.SweepExpiredDeletions(ctx, time.Now())
		if err != nil {
			helpers.LogError(logger, "sweep failed", err, logrus.Fields{"purged": n})
			return
		}
		logger.WithField("purged", n).Info("sweep finished")
	}

	sweep()
	if *once {
		return
	}

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	logger.WithField("interval", cfg.SweepInterval.String()).Info("sweeper running")
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			sweep()
		}
	}
}
