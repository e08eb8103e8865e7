package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/spotbadge/internal/badge"
	"github.com/desertthunder/spotbadge/internal/cache"
	"github.com/desertthunder/spotbadge/internal/server"
	"github.com/desertthunder/spotbadge/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the badge server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	handler, err := r.badgeHandler(ctx, cfg.Revision)
	if err != nil {
		return err
	}

	logger := shared.WithLogger(r.logger, "component", "server")
	router := server.NewRouter(logger, handler)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg.Addr(), router, logger).Run(ctx)
}

func (r *Runner) badgeHandler(ctx context.Context, revision string) (*server.BadgeHandler, error) {
	tracks, err := r.spotifyService(ctx)
	if err != nil {
		return nil, err
	}

	phrases, err := r.daylistResolver(ctx)
	if err != nil {
		return nil, err
	}

	loc, err := r.config.Daylist.Location()
	if err != nil {
		return nil, err
	}

	store, err := r.cacheStore(ctx)
	if err != nil {
		return nil, err
	}

	logger := shared.WithLogger(r.logger, "component", "badge")
	renderer := badge.NewRenderer(badge.RendererOpts{
		Images:     cache.NewLoader(store, logger),
		HTTPClient: r.httpClient,
		Location:   loc,
		Logger:     logger,
		Now:        r.now,
	})
	return server.NewBadgeHandler(tracks, phrases, renderer, revision, logger), nil
}
