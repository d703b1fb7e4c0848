package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env            string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	APIBaseURL     string        // target of the admin UI's data accessor
	HTTPTimeout    time.Duration // accessor transport timeout
	CacheTTL       time.Duration // record cache entry lifetime
	SessionTTL     time.Duration
	CORSSuffixes   []string
	HealthAdminKey string
	// OwnerEmail and OwnerPassword seed the first account on an empty users table.
	OwnerEmail    string
	OwnerPassword string
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_URL", "redis://127.0.0.1:6379/0")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("SESSION_TTL", "24h")

	port := v.GetString("PORT")
	apiBase := strings.TrimRight(v.GetString("API_BASE_URL"), "/")
	if apiBase == "" {
		apiBase = "http://127.0.0.1:" + port
	}

	cfg := &Config{
		Env:            v.GetString("APP_ENV"),
		Port:           port,
		LogLevel:       v.GetString("LOG_LEVEL"),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		RedisURL:       v.GetString("REDIS_URL"),
		APIBaseURL:     apiBase,
		HTTPTimeout:    v.GetDuration("HTTP_TIMEOUT"),
		CacheTTL:       v.GetDuration("CACHE_TTL"),
		SessionTTL:     v.GetDuration("SESSION_TTL"),
		CORSSuffixes:   splitList(v.GetString("CORS_ALLOWED_SUFFIXES")),
		HealthAdminKey: v.GetString("HEALTH_ADMIN_KEY"),
		OwnerEmail:     v.GetString("OWNER_EMAIL"),
		OwnerPassword:  v.GetString("OWNER_PASSWORD"),
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("config: HTTP_TIMEOUT must be positive, got %q", v.GetString("HTTP_TIMEOUT"))
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
