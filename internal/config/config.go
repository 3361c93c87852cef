package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	HTTP struct {
		Addr            string
		BaseURL         string
		ShutdownTimeout time.Duration
		// TrustProxy takes the client address from X-Forwarded-For and
		// X-Real-IP. Enable only behind a proxy that overwrites them.
		TrustProxy      bool
	}
	DB struct {
		Driver string
		DSN    string
	}
	Token struct {
		// Seed is a hex-encoded Ed25519 seed. Empty means an ephemeral key.
		Seed       string
		AccessTTL  time.Duration
		RefreshTTL time.Duration
	}
	BcryptCost int
	Redis      struct {
		// Addr enables the redirect cache when set.
		Addr     string
		Password string
		DB       int
	}
	RateLimit struct {
		RPS   float64
		Burst int
	}
	Log struct {
		Level  string
		Pretty bool
	}
}

// Load reads config from environment (SHORTMARK_ prefix) and optional shortmark.yaml.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHORTMARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("shortmark")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read shortmark.yaml: %w", err)
		}
	}
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.base_url", "http://localhost:8080")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("http.trust_proxy", false)
	v.SetDefault("token.access_ttl", "15m")
	v.SetDefault("token.refresh_ttl", "720h")
	v.SetDefault("bcrypt.cost", bcrypt.DefaultCost)
	v.SetDefault("redis.db", 0)
	v.SetDefault("ratelimit.rps", 1.0)
	v.SetDefault("ratelimit.burst", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

func fromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.HTTP.BaseURL = strings.TrimRight(v.GetString("http.base_url"), "/")
	cfg.HTTP.TrustProxy = v.GetBool("http.trust_proxy")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Token.Seed = v.GetString("token.seed")
	cfg.BcryptCost = v.GetInt("bcrypt.cost")
	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")
	cfg.RateLimit.RPS = v.GetFloat64("ratelimit.rps")
	cfg.RateLimit.Burst = v.GetInt("ratelimit.burst")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Pretty = v.GetBool("log.pretty")

	durations := []struct {
		key, env string
		dst      *time.Duration
	}{
		{"http.shutdown_timeout", "SHORTMARK_HTTP_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"token.access_ttl", "SHORTMARK_TOKEN_ACCESS_TTL", &cfg.Token.AccessTTL},
		{"token.refresh_ttl", "SHORTMARK_TOKEN_REFRESH_TTL", &cfg.Token.RefreshTTL},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.env, err)
		}
		*d.dst = parsed
	}

	switch cfg.DB.Driver {
	case "":
		return nil, fmt.Errorf("SHORTMARK_DB_DRIVER is required (sqlite3, mysql, postgres)")
	case "sqlite3", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported SHORTMARK_DB_DRIVER %q: must be sqlite3, mysql, or postgres", cfg.DB.Driver)
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("SHORTMARK_DB_DSN is required")
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("SHORTMARK_BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst < 1 {
		return nil, fmt.Errorf("SHORTMARK_RATELIMIT_RPS must be > 0 and SHORTMARK_RATELIMIT_BURST >= 1")
	}

	return cfg, nil
}
