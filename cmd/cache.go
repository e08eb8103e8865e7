package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotbadge/internal/ui"
	"github.com/urfave/cli/v3"
)

// purger is implemented by stores that keep expired rows until asked.
type purger interface {
	Purge(ctx context.Context) (int64, error)
}

// CacheClear removes every entry from the configured cache backend.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	store, err := r.cacheStore(ctx)
	if err != nil {
		return err
	}
	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	r.logger.Info("cache cleared", "backend", r.config.Cache.Backend)
	return r.writeLines(ui.Styles.OK("Cache cleared (" + r.config.Cache.Backend + ")"))
}

// CachePurge deletes expired entries from backends that do not expire them on their own.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	store, err := r.cacheStore(ctx)
	if err != nil {
		return err
	}

	p, ok := store.(purger)
	if !ok {
		return r.writeLines(ui.Styles.Help("The " + r.config.Cache.Backend + " backend expires entries itself"))
	}

	n, err := p.Purge(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return r.writeLines(ui.Styles.OK(fmt.Sprintf("Purged %d expired entries", n)))
}
