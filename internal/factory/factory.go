package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/dilemmagame/internal/config"
	"github.com/mcoot/dilemmagame/internal/dependencies/clock"
	"github.com/mcoot/dilemmagame/internal/dependencies/random"
	"github.com/mcoot/dilemmagame/internal/services/registry"
	"github.com/mcoot/dilemmagame/internal/services/session"
	"github.com/mcoot/dilemmagame/internal/storage"
	"github.com/mcoot/dilemmagame/internal/storage/memory"
	redisstorage "github.com/mcoot/dilemmagame/internal/storage/redis"
	"github.com/mcoot/dilemmagame/internal/ws"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Registry    *registry.Registry
	Coordinator *session.Coordinator

	// Transport
	Hub       *ws.Hub
	WSHandler *ws.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the result archive backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Session holds room policy (optional)
	// If zero value, defaults to session.DefaultConfig()
	Session session.Config
	// AllowedOrigins restricts websocket upgrades. Empty accepts any origin.
	AllowedOrigins []string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = config.StorageTypeMemory
	}

	switch storageType {
	case config.StorageTypeMemory:
		store = memory.New()
	case config.StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	sessionCfg := cfg.Session
	if sessionCfg.RoundCap == 0 {
		sessionCfg = session.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), sessionCfg, cfg.AllowedOrigins, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	sessionCfg session.Config,
	allowedOrigins []string,
	logger *slog.Logger,
) *App {
	reg := registry.New(logger)
	hub := ws.NewHub(rnd, logger)
	coordinator := session.NewCoordinator(reg, store, hub, clk, rnd, sessionCfg, logger)
	wsHandler := ws.NewHandler(hub, coordinator, ws.HandlerConfig{AllowedOrigins: allowedOrigins})

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Registry:    reg,
		Coordinator: coordinator,
		Hub:         hub,
		WSHandler:   wsHandler,
	}
}

// Close stops rooms, drops connections and releases storage
func (a *App) Close() error {
	a.Hub.Close()
	a.Coordinator.Close()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
