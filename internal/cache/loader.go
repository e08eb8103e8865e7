package cache

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// loadTimeout bounds a shared load once it is detached from the caller that started it.
const loadTimeout = 30 * time.Second

// LoadFunc produces a fresh value on a cache miss. A nil value is returned to the caller but not stored.
type LoadFunc func(ctx context.Context) ([]byte, error)

// Loader is a read-through cache over a [Store].
type Loader struct {
	store  Store
	group  singleflight.Group
	logger *log.Logger
}

func NewLoader(store Store, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Loader{store: store, logger: logger}
}

// Store returns the underlying store.
func (l *Loader) Store() Store { return l.store }

// GetOrLoad returns the cached value for key or calls load once for all concurrent callers.
//
// The load does not inherit cancellation from the caller that started it; each caller stops
// waiting when its own ctx ends.
func (l *Loader) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load LoadFunc) ([]byte, error) {
	if value, ok := l.lookup(ctx, key); ok {
		return value, nil
	}

	ch := l.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		if value, ok := l.lookup(ctx, key); ok {
			return value, nil
		}

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if value != nil {
			if err := l.store.Set(ctx, key, value, ttl); err != nil {
				l.logger.Warn("cache write failed", "key", key, "error", err)
			}
		}
		return value, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		l.logger.Debug("shared in-flight load", "key", key)
	}

	value, _ := res.Val.([]byte)
	return value, nil
}

func (l *Loader) lookup(ctx context.Context, key string) ([]byte, bool) {
	value, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
		return nil, false
	}
	if ok {
		l.logger.Debug("cache hit", "key", key)
	}
	return value, ok
}
