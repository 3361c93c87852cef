package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setRequired(t *testing.T) {
	t.Setenv("SHORTMARK_DB_DRIVER", "sqlite3")
	t.Setenv("SHORTMARK_DB_DSN", "file:shortmark.db")
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Token.AccessTTL)
	assert.Equal(t, 720*time.Hour, cfg.Token.RefreshTTL)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.Equal(t, 1.0, cfg.RateLimit.RPS)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Token.Seed)
	assert.False(t, cfg.HTTP.TrustProxy)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequired(t)
	t.Setenv("SHORTMARK_HTTP_ADDR", ":9090")
	t.Setenv("SHORTMARK_HTTP_BASE_URL", "https://s.example.com/")
	t.Setenv("SHORTMARK_TOKEN_ACCESS_TTL", "5m")
	t.Setenv("SHORTMARK_BCRYPT_COST", "4")
	t.Setenv("SHORTMARK_REDIS_ADDR", "localhost:6379")
	t.Setenv("SHORTMARK_REDIS_DB", "2")
	t.Setenv("SHORTMARK_RATELIMIT_BURST", "20")
	t.Setenv("SHORTMARK_LOG_PRETTY", "true")
	t.Setenv("SHORTMARK_HTTP_TRUST_PROXY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "https://s.example.com", cfg.HTTP.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.Token.AccessTTL)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.True(t, cfg.Log.Pretty)
	assert.True(t, cfg.HTTP.TrustProxy)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing driver", map[string]string{"SHORTMARK_DB_DSN": "x"}},
		{"missing dsn", map[string]string{"SHORTMARK_DB_DRIVER": "sqlite3"}},
		{"unknown driver", map[string]string{"SHORTMARK_DB_DRIVER": "oracle", "SHORTMARK_DB_DSN": "x"}},
		{"bad duration", map[string]string{"SHORTMARK_DB_DRIVER": "sqlite3", "SHORTMARK_DB_DSN": "x", "SHORTMARK_TOKEN_REFRESH_TTL": "soon"}},
		{"bad cost", map[string]string{"SHORTMARK_DB_DRIVER": "sqlite3", "SHORTMARK_DB_DSN": "x", "SHORTMARK_BCRYPT_COST": "99"}},
		{"zero burst", map[string]string{"SHORTMARK_DB_DRIVER": "sqlite3", "SHORTMARK_DB_DSN": "x", "SHORTMARK_RATELIMIT_BURST": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
