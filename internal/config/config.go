package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Server holds the server process configuration, read from the environment
type Server struct {
	Host            string        `env:"DILEMMA_HOST"`
	Port            int           `env:"DILEMMA_PORT" envDefault:"3001"`
	LogLevel        string        `env:"DILEMMA_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"DILEMMA_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins  []string      `env:"DILEMMA_ALLOWED_ORIGINS" envSeparator:","`

	// Session policy
	RoundCap         int           `env:"DILEMMA_ROUND_CAP" envDefault:"10"`
	AutoAdvanceDelay time.Duration `env:"DILEMMA_AUTO_ADVANCE_DELAY" envDefault:"5s"`

	// Result archive
	StorageType string        `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string        `env:"REDIS_URL"`
	ResultTTL   time.Duration `env:"DILEMMA_RESULT_TTL" envDefault:"24h"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads and validates the server configuration
func Load() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c Server) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("DILEMMA_PORT out of range: %d", c.Port))
	}
	if c.RoundCap <= 0 {
		errs = append(errs, fmt.Errorf("DILEMMA_ROUND_CAP must be positive: %d", c.RoundCap))
	}
	if c.AutoAdvanceDelay < 0 {
		errs = append(errs, errors.New("DILEMMA_AUTO_ADVANCE_DELAY must not be negative"))
	}
	switch c.StorageType {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL required when STORAGE_TYPE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid STORAGE_TYPE %q: must be 'memory' or 'redis'", c.StorageType))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level returns the slog level named by LogLevel, defaulting to info
func (c Server) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid DILEMMA_LOG_LEVEL %q", s)
	}
	return level, nil
}
