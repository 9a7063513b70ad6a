package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_ENV", "")
	v := newViper()
	v.Set("APP_ENV", "development")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:3001", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, DevJWTSecret, cfg.JWTSecret)
	assert.Len(t, cfg.Warnings, 1)
}

func TestProductionRequiresSecret(t *testing.T) {
	v := newViper()
	v.Set("APP_ENV", "production")
	v.Set("JWT_SECRET", "")

	_, err := FromViper(v)
	assert.ErrorIs(t, err, ErrInsecureSecret)

	v.Set("JWT_SECRET", DevJWTSecret)
	_, err = FromViper(v)
	assert.ErrorIs(t, err, ErrInsecureSecret)

	v.Set("JWT_SECRET", "s3cret-value")
	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Empty(t, cfg.Warnings)
	assert.True(t, cfg.Production())
}

func TestCORSOriginsAndTTL(t *testing.T) {
	v := newViper()
	v.Set("JWT_SECRET", "x")
	v.Set("CORS_ORIGINS", "https://a.example, https://b.example ,")
	v.Set("TOKEN_TTL", "2h")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
}
