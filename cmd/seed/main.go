package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/codex/config"
	"github.com/oksasatya/codex/internal/application"
	pginfra "github.com/oksasatya/codex/internal/infrastructure/postgres"
	"github.com/oksasatya/codex/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	users := pginfra.NewUserRepository(pool)
	prompts := pginfra.NewPromptRepository(pool)
	svc := application.NewUserService(users, prompts, nil, nil, logger)
	promptSvc := application.NewPromptService(prompts, nil, logger)

	email := "demo@codex.local"
	password := "password123"
	username := "demoUser"

	u, err := svc.Register(ctx, application.RegisterInput{Email: email, Username: username, Password: password, DisplayName: "Demo User"})
	switch {
	case errors.Is(err, application.ErrDuplicateEmail), errors.Is(err, application.ErrDuplicateUsername):
		u, err = users.GetByEmail(ctx, email)
		if err != nil {
			log.Fatalf("failed to load existing demo user: %v", err)
		}
		fmt.Printf("demo user already present: id=%s\n", u.ID)
		return
	case err != nil:
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s username=%s password=%s\n", u.ID, email, username, password)

	samples := []application.PromptInput{
		{Title: "Release notes", Prompt: "Summarize these commits as release notes", Tags: []string{"writing", "git"}},
		{Title: "SQL review", Prompt: "Review this query for missing indexes", Tags: []string{"sql"}},
		{Title: "Haiku", Prompt: "Write a haiku about rain", Response: "Soft rain on the roof", Tags: []string{"poem"}},
	}
	for _, in := range samples {
		p, err := promptSvc.Create(ctx, u.ID, in)
		if err != nil {
			log.Fatalf("failed to seed prompt %q: %v", in.Title, err)
		}
		fmt.Printf("seeded prompt: id=%s title=%s\n", p.ID, p.Title)
	}
}
