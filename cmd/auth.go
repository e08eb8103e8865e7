package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/desertthunder/spotbadge/internal/server"
	"github.com/desertthunder/spotbadge/internal/services"
	"github.com/desertthunder/spotbadge/internal/shared"
	"github.com/desertthunder/spotbadge/internal/ui"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// Auth runs the authorization code flow on a local callback server and reports the refresh token.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: CLIENT_ID and CLIENT_SECRET are required", shared.ErrMissingCredentials)
	}

	redirect, err := url.Parse(creds.RedirectURI)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, creds.RedirectURI)
	}
	if redirect.Path != server.CallbackPath {
		return fmt.Errorf("%w: redirect_uri path must be %s", shared.ErrInvalidConfig, server.CallbackPath)
	}

	token, err := r.authorize(ctx, services.OAuthConfig(creds.ClientID, creds.ClientSecret, creds.RedirectURI, ""), redirect.Host, cmd.Duration("timeout"), !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	r.config.Credentials.Spotify.RefreshToken = token.RefreshToken

	if cmd.Bool("write-env") {
		path := cmd.String("env-file")
		if err := writeEnv(path, "REFRESH_TOKEN", token.RefreshToken); err != nil {
			return err
		}
		return r.writeLines(ui.Styles.OK("Authorization successful"), ui.Styles.Field("Saved REFRESH_TOKEN to", path))
	}

	return r.writeLines(
		ui.Styles.OK("Authorization successful"),
		ui.Styles.Field("REFRESH_TOKEN", token.RefreshToken),
		ui.Styles.Help("Set it in your environment or rerun with --write-env"),
	)
}

// authorize serves the callback on addr until one result arrives or timeout passes.
func (r *Runner) authorize(ctx context.Context, config *oauth2.Config, addr string, timeout time.Duration, openBrowser bool) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	if timeout <= 0 {
		timeout = authTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	handler := server.NewOAuthHandler(config, state)
	logger := shared.WithLogger(r.logger, "component", "auth")
	srv := server.New(addr, server.NewRouter(logger, handler), logger)

	serverErrors := make(chan error, 1)
	go func() { serverErrors <- srv.Run(ctx) }()

	authURL := handler.AuthURL()
	opened := false
	if openBrowser {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
		if err := shared.OpenBrowser(ctx, authURL); err != nil {
			r.logger.Warn("failed to open browser automatically", "error", err)
		} else {
			opened = true
		}
	}
	if !opened {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("callback server: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: authorization not completed within %s", shared.ErrTimeout, timeout)
	}

	cancel()
	if err := <-serverErrors; err != nil {
		r.logger.Warn("error shutting down callback server", "error", err)
	}

	if result.Err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, result.Err)
	}
	return result.Token, nil
}

// writeEnv sets key in the dotenv file at path, creating it when missing.
func writeEnv(path, key, value string) error {
	env, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		env = map[string]string{}
	} else if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	env[key] = value
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}
