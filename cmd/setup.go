package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotbadge/internal/scraper"
	"github.com/desertthunder/spotbadge/internal/shared"
	"github.com/desertthunder/spotbadge/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)
	return r.writeLines(
		ui.Styles.OK("Config written to "+r.configPath),
		ui.Styles.Help("Credentials can also come from CLIENT_ID, CLIENT_SECRET and REFRESH_TOKEN"),
	)
}

// SetupDatabase creates the sqlite cache database and runs (or rolls back) migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Cache
	r.logger.Info("initializing database", "path", cfg.Path)

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(ctx, db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writeLines(ui.Styles.OK("Rolled back latest migration"))
	}

	if err := shared.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Info("setup complete", "database", cfg.Path)
	return r.writeLines(ui.Styles.OK("Database ready at " + cfg.Path))
}

// SetupCookies imports session cookies from a copied browser request into the scraper's cookie file.
func (r *Runner) SetupCookies(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var (
		req *shared.CurlRequest
		err error
	)
	if curlFile != "" {
		req, err = shared.ParseCurlFile(curlFile)
	} else {
		req, err = shared.ParseCurlCommand([]byte(curlCmd))
	}
	if err != nil {
		return fmt.Errorf("failed to parse cURL command: %w", err)
	}

	cookies := scraper.CookiesFromCurl(req)
	if len(cookies) == 0 {
		return fmt.Errorf("%w: no cookies in cURL command", shared.ErrInvalidArgument)
	}

	path := r.config.Scraper.CookieFile
	if err := scraper.NewCookieJar(path, "").Save(cookies); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	r.logger.Info("imported cookies", "count", len(cookies), "path", path)

	lines := []string{ui.Styles.OK(fmt.Sprintf("Imported %d cookies to %s", len(cookies), path))}
	if r.config.Credentials.Web.Cookies != "" {
		lines = append(lines, ui.Styles.Warn("SPOTIFY_COOKIES is set and takes precedence over the cookie file"))
	}
	return r.writeLines(lines...)
}

// SetupBrowser installs the Chromium build used by the scraper.
func (r *Runner) SetupBrowser(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("installing chromium for the scraper")
	if err := scraper.InstallBrowser(); err != nil {
		return fmt.Errorf("failed to install browser: %w", err)
	}
	return r.writeLines(ui.Styles.OK("Browser installed"))
}
