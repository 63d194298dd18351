package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/db")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("REFRESH_TOKEN_EXPIRE_MINUTES", "")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("AUTH_TOKEN_SOURCE", "HEADER")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("BCRYPT_COST", "not-a-number")

	cfg := Load()

	assert.Equal(t, []byte("s3cret"), cfg.SecretKey)
	assert.Equal(t, "HS256", cfg.Algorithm)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, TokenSourceHeader, cfg.TokenSource)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "refreshToken", cfg.RefreshCookieName)
	assert.Equal(t, 300*time.Second, cfg.CacheTTL)
	assert.Equal(t, ":8080", cfg.Addr())

	require.NoError(t, cfg.Validate())
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := Config{
		Algorithm:   "RS256",
		AccessTTL:   time.Hour,
		RefreshTTL:  time.Minute,
		TokenSource: "query",
		DBDriver:    "postgres",
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"SECRET_KEY", "ALGORITHM", "shorter", "AUTH_TOKEN_SOURCE", "DATABASE_URL"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestTokenSource(t *testing.T) {
	assert.True(t, TokenSourceBoth.Header())
	assert.True(t, TokenSourceBoth.Cookie())
	assert.True(t, TokenSourceHeader.Header())
	assert.False(t, TokenSourceHeader.Cookie())
	assert.False(t, TokenSourceCookie.Header())
}
