package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/saransh1220/careerpush/internal/shared/infrastructure/database"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server         ServerConfig
	Database       database.PostgresConfig
	Redis          database.RedisConfig
	JWT            JWTConfig
	Push           PushConfig
	API            APIConfig
	Session        SessionConfig
	Toast          ToastConfig
	Log            LogConfig
	MigrationsPath string
}

// ServerConfig holds development server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// PushConfig holds push channel configuration
type PushConfig struct {
	URL          string
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	PingInterval time.Duration
}

// APIConfig holds request-response API configuration
type APIConfig struct {
	BaseURL  string
	Timeout  time.Duration
	PageSize int
}

// SessionConfig holds client session configuration
type SessionConfig struct {
	PollInterval time.Duration
	AuthToken    string
}

// ToastConfig holds toast presentation configuration
type ToastConfig struct {
	Duration      time.Duration
	SwipeDistance float64
	SwipeVelocity float64
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

var defaults = map[string]any{
	"PORT":                  "8080",
	"CORS_ALLOWED_ORIGINS":  "*",
	"DB_HOST":               "localhost",
	"DB_PORT":               "5432",
	"DB_USER":               "postgres",
	"DB_PASSWORD":           "",
	"DB_NAME":               "careerpush",
	"DB_SSLMODE":            "disable",
	"REDIS_HOST":            "",
	"REDIS_PORT":            "6379",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"REDIS_CHANNEL":         "careerpush:notifications",
	"JWT_SECRET":            "default-dev-secret",
	"JWT_EXPIRATION":        "24h",
	"PUSH_URL":              "ws://localhost:8080/notifications/subscribe",
	"PUSH_BASE_DELAY":       "1s",
	"PUSH_MAX_DELAY":        "30s",
	"PUSH_MAX_ATTEMPTS":     10,
	"PUSH_PING_INTERVAL":    "30s",
	"API_BASE_URL":          "http://localhost:8080",
	"API_TIMEOUT":           "10s",
	"API_PAGE_SIZE":         50,
	"SESSION_POLL_INTERVAL": "60s",
	"AUTH_TOKEN":            "",
	"TOAST_DURATION":        "4s",
	"TOAST_SWIPE_DISTANCE":  40.0,
	"TOAST_SWIPE_VELOCITY":  0.5,
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "console",
	"MIGRATIONS_PATH":       "migrations",
}

// Load reads configuration from an optional config file and environment
// variables. Environment variables win over the file.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			AllowedOrigins: v.GetString("CORS_ALLOWED_ORIGINS"),
		},
		Database: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: database.RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Channel:  v.GetString("REDIS_CHANNEL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Expiry: duration(v, "JWT_EXPIRATION", 24*time.Hour),
		},
		Push: PushConfig{
			URL:          v.GetString("PUSH_URL"),
			BaseDelay:    duration(v, "PUSH_BASE_DELAY", time.Second),
			MaxDelay:     duration(v, "PUSH_MAX_DELAY", 30*time.Second),
			MaxAttempts:  v.GetInt("PUSH_MAX_ATTEMPTS"),
			PingInterval: duration(v, "PUSH_PING_INTERVAL", 30*time.Second),
		},
		API: APIConfig{
			BaseURL:  v.GetString("API_BASE_URL"),
			Timeout:  duration(v, "API_TIMEOUT", 10*time.Second),
			PageSize: v.GetInt("API_PAGE_SIZE"),
		},
		Session: SessionConfig{
			PollInterval: duration(v, "SESSION_POLL_INTERVAL", time.Minute),
			AuthToken:    v.GetString("AUTH_TOKEN"),
		},
		Toast: ToastConfig{
			Duration:      duration(v, "TOAST_DURATION", 4*time.Second),
			SwipeDistance: v.GetFloat64("TOAST_SWIPE_DISTANCE"),
			SwipeVelocity: v.GetFloat64("TOAST_SWIPE_VELOCITY"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
	}, nil
}

// duration parses a duration string or returns a default value
func duration(v *viper.Viper, key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(v.GetString(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
