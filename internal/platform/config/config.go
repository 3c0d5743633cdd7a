// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Progress store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Enrollment modes.
const (
	EnrollmentOpen     = "open"
	EnrollmentDatabase = "database"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	Progress    ProgressConfig
	Enrollment  EnrollmentConfig
	Quiz        QuizConfig
	WebSocket   WebSocketConfig
	Log         LogConfig
	CatalogPath string
	PlansPath   string
	AdminToken  string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	Host            string
	ShutdownTimeout int // seconds
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// CacheConfig holds Dragonfly/Redis connection settings.
type CacheConfig struct {
	URL      string
	PoolSize int
}

// ProgressConfig selects where progress records are kept.
type ProgressConfig struct {
	Backend string // "memory", "redis" or "postgres"
}

// EnrollmentConfig selects how course access is checked.
type EnrollmentConfig struct {
	Mode string // "open" or "database"
}

// QuizConfig holds quiz grading defaults.
type QuizConfig struct {
	PassPercent float64
}

// WebSocketConfig holds session transport settings.
type WebSocketConfig struct {
	Origins []string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with LEARN_ prefix.
// A .env file in the working directory is applied first when present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("LEARN_SERVER_PORT", 8080),
			Host:            envStr("LEARN_SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: envInt("LEARN_SERVER_SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			URL:         envStr("LEARN_DATABASE_URL", ""),
			MaxConns:    envInt("LEARN_DATABASE_MAX_CONNS", 25),
			MinConns:    envInt("LEARN_DATABASE_MIN_CONNS", 5),
			AutoMigrate: envBool("LEARN_DATABASE_AUTO_MIGRATE", true),
		},
		Cache: CacheConfig{
			URL:      envStr("LEARN_CACHE_URL", ""),
			PoolSize: envInt("LEARN_CACHE_POOL_SIZE", 10),
		},
		Progress: ProgressConfig{
			Backend: strings.ToLower(envStr("LEARN_PROGRESS_BACKEND", BackendMemory)),
		},
		Enrollment: EnrollmentConfig{
			Mode: strings.ToLower(envStr("LEARN_ENROLLMENT_MODE", EnrollmentOpen)),
		},
		Quiz: QuizConfig{
			PassPercent: envFloat("LEARN_QUIZ_PASS_PERCENT", 70),
		},
		WebSocket: WebSocketConfig{
			Origins: envList("LEARN_WS_ORIGINS"),
		},
		Log: LogConfig{
			Level:  envStr("LEARN_LOG_LEVEL", "info"),
			Format: envStr("LEARN_LOG_FORMAT", "json"),
		},
		CatalogPath: envStr("LEARN_CATALOG_PATH", "./content/courses"),
		PlansPath:   envStr("LEARN_PLANS_PATH", "./content/plans.yaml"),
		AdminToken:  envStr("LEARN_ADMIN_TOKEN", ""),
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	switch c.Progress.Backend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("LEARN_PROGRESS_BACKEND must be 'memory', 'redis' or 'postgres', got %q", c.Progress.Backend)
	}

	if c.Enrollment.Mode != EnrollmentOpen && c.Enrollment.Mode != EnrollmentDatabase {
		return fmt.Errorf("LEARN_ENROLLMENT_MODE must be 'open' or 'database', got %q", c.Enrollment.Mode)
	}

	if c.NeedsDatabase() && c.Database.URL == "" {
		return fmt.Errorf("LEARN_DATABASE_URL is required for the %s progress backend or database enrollment", c.Progress.Backend)
	}

	if c.Progress.Backend == BackendRedis && c.Cache.URL == "" {
		return fmt.Errorf("LEARN_CACHE_URL is required for the redis progress backend")
	}

	if c.Quiz.PassPercent <= 0 || c.Quiz.PassPercent > 100 {
		return fmt.Errorf("LEARN_QUIZ_PASS_PERCENT must be in (0, 100], got %v", c.Quiz.PassPercent)
	}

	if c.CatalogPath == "" {
		return fmt.Errorf("LEARN_CATALOG_PATH is required")
	}

	return nil
}

// NeedsDatabase reports whether a configured component requires PostgreSQL.
func (c *Config) NeedsDatabase() bool {
	return c.Progress.Backend == BackendPostgres || c.Enrollment.Mode == EnrollmentDatabase
}

// SlogLevel maps Log.Level to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
