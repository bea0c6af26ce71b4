package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ACCOUNT_RETENTION", "")

	c := Load()

	assert.Equal(t, EnvDevelopment, c.Env)
	assert.True(t, c.IsDevelopment())
	assert.Equal(t, 7*24*time.Hour, c.AccountRetention)
	assert.Equal(t, "https://codex.pages.dev", c.CORSCanonicalOrigin)
	assert.Contains(t, c.DevOrigins(), "http://localhost:5173")
	assert.Empty(t, c.TrustedProxyList())
}

func TestLoad_ProductionAndLists(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("CORS_PROD_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("ACCOUNT_RETENTION", "48h")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.1")

	c := Load()

	assert.False(t, c.IsDevelopment())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.ProdOrigins())
	assert.Equal(t, 48*time.Hour, c.AccountRetention)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.1"}, c.TrustedProxyList())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "abc")
	t.Setenv("COOKIE_SECURE", "maybe")
	t.Setenv("SWEEP_INTERVAL", "soon")

	c := Load()

	assert.Equal(t, 0, c.RedisDB)
	assert.False(t, c.CookieSecure)
	assert.Equal(t, time.Hour, c.SweepInterval)
}

func TestPostgresDSN(t *testing.T) {
	c := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "codex", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/codex?sslmode=disable", c.PostgresDSN())
}
