package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/spotbadge/internal/formatter"
	"github.com/desertthunder/spotbadge/internal/models"
	"github.com/desertthunder/spotbadge/internal/services"
	"github.com/desertthunder/spotbadge/internal/shared"
	"github.com/desertthunder/spotbadge/internal/ui"
	"github.com/urfave/cli/v3"
)

// playlistFinder is implemented by services that can search playlists by name prefix.
type playlistFinder interface {
	FindPlaylist(ctx context.Context, prefix string) (*models.Playlist, error)
}

// profiler is implemented by services that can describe the authenticated account.
type profiler interface {
	UserProfile(ctx context.Context) (*services.SpotifyUser, error)
}

// Whoami prints the profile of the account behind the refresh token.
func (r *Runner) Whoami(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.spotifyService(ctx)
	if err != nil {
		return err
	}

	p, ok := svc.(profiler)
	if !ok {
		return fmt.Errorf("%w: %s cannot describe the account", shared.ErrInvalidArgument, svc.Name())
	}

	user, err := p.UserProfile(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}
	return r.writeLines(
		ui.Styles.Title(user.DisplayName),
		ui.Styles.Field("ID", user.ID),
		ui.Styles.Field("Country", user.Country),
		ui.Styles.Field("Product", user.Product),
	)
}

// Track prints the track the badge would show.
func (r *Runner) Track(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.spotifyService(ctx)
	if err != nil {
		return err
	}

	track, err := svc.CurrentTrack(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve current track: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(track, cmd.Bool("pretty"))
	}

	if track == nil {
		return r.writeLines(ui.Styles.Warn("Nothing playing and no listening history"))
	}

	status := "Last played"
	if track.Playing {
		status = "Now playing"
	}
	return r.writeLines(
		ui.Styles.Title(status),
		ui.Styles.Field("Song", track.Name),
		ui.Styles.Field("Artist", track.ArtistName),
		ui.Styles.Field("Link", track.ExternalURL),
	)
}

// Playlists lists playlists, or the first one matching --prefix.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.spotifyService(ctx)
	if err != nil {
		return err
	}

	var playlists []models.Playlist
	if prefix := cmd.String("prefix"); prefix != "" {
		finder, ok := svc.(playlistFinder)
		if !ok {
			return fmt.Errorf("%w: %s cannot search playlists", shared.ErrInvalidArgument, svc.Name())
		}

		playlist, err := finder.FindPlaylist(ctx, prefix)
		if err != nil && !errors.Is(err, shared.ErrPlaylistNotFound) {
			return fmt.Errorf("failed to search playlists: %w", err)
		}
		if playlist == nil {
			return fmt.Errorf("%w: no playlist starts with %q", shared.ErrPlaylistNotFound, prefix)
		}
		playlists = []models.Playlist{*playlist}
	} else {
		if playlists, err = svc.GetPlaylists(ctx); err != nil {
			return fmt.Errorf("failed to list playlists: %w", err)
		}
	}

	if limit := cmd.Int("limit"); limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}
	if cmd.IsSet("format") {
		format, err := formatter.ParseFormat(cmd.String("format"))
		if err != nil {
			return err
		}
		return formatter.Write(r.output, format, playlists)
	}

	r.writePlain("%s\n\n", ui.Styles.Title(fmt.Sprintf("Found %d playlists", len(playlists))))
	for i, p := range playlists {
		visibility := "Private"
		if p.Public {
			visibility = "Public"
		}

		lines := []string{fmt.Sprintf("%d. %s", i+1, p.Name)}
		if p.Description != "" {
			lines = append(lines, "   "+ui.Styles.Field("Description", p.Description))
		}
		lines = append(lines,
			"   "+ui.Styles.Field("ID", p.ID),
			"   "+ui.Styles.Field("Tracks", strconv.Itoa(p.TrackCount)),
			"   "+ui.Styles.Field("Visibility", visibility),
			"",
		)
		if err := r.writeLines(lines...); err != nil {
			return err
		}
	}
	return nil
}
