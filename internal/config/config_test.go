package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDevelopment)
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/escrow")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "postgres://u:p@db:5432/escrow", cfg.DatabaseURL)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, int64(25), cfg.MaxUploadSizeMB)
	assert.Equal(t, 10.0, cfg.MinWithdrawalAmount)
	assert.Len(t, cfg.AllowedOrigins, 2)
}

func TestFromEnv_ProductionRequiresLongSecret(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://example.com")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestFromEnv_ProductionRequiresOrigins(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "CORS_ALLOWED_ORIGINS")
}

func TestFromEnv_ParsesOverrides(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")
	t.Setenv("MIN_WITHDRAWAL_AMOUNT", "25.5")
	t.Setenv("RATE_LIMIT_PERIOD", "30s")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 25.5, cfg.MinWithdrawalAmount)
	assert.Equal(t, 30*time.Second, cfg.RateLimitPeriod)
}

func TestFromEnv_RejectsBadValues(t *testing.T) {
	t.Setenv("APP_ENV", EnvDevelopment)

	t.Run("duration", func(t *testing.T) {
		t.Setenv("ACCESS_TOKEN_TTL", "soon")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "ACCESS_TOKEN_TTL")
	})

	t.Run("non-positive minimum", func(t *testing.T) {
		t.Setenv("MIN_WITHDRAWAL_AMOUNT", "0")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "MIN_WITHDRAWAL_AMOUNT")
	})
}

func TestGetDatabaseURL_FromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "db")
	t.Setenv("POSTGRESQL_USER", "escrow")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "escrow")

	assert.Equal(t, "postgres://escrow:p%40ss@db:5432/escrow?sslmode=disable", getDatabaseURL())
}
