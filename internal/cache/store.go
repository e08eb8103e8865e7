package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotbadge/internal/shared"
)

// Store is a TTL key/value cache safe for concurrent use.
type Store interface {
	// Get returns the value for key, or ok=false when it is absent or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value until ttl elapses. A non-positive ttl stores nothing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear removes every entry owned by the store.
	Clear(ctx context.Context) error
	Close() error
}

// Open builds the [Store] selected by cfg.Backend.
func Open(ctx context.Context, cfg shared.CacheConfig, logger *log.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(nil), nil
	case "sqlite":
		return OpenSQLiteStore(ctx, cfg.Path, cfg.MaxOpenConns, cfg.MaxIdleConns, nil)
	case "redis":
		store := NewRedisStore(cfg.RedisAddr, cfg.RedisPrefix)
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("%w: redis at %s: %v", shared.ErrServiceUnavailable, cfg.RedisAddr, err)
		}
		if logger != nil {
			logger.Debug("connected to redis cache", "addr", cfg.RedisAddr)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}
