// package services defines the Spotify Web API client used by the badge server and CLI
package services

import (
	"context"

	"github.com/desertthunder/spotbadge/internal/models"
)

// Service is the read-only view of the account the badge server and CLI depend on.
type Service interface {
	// CurrentTrack returns the playing track, else the most recently played one, else nil.
	CurrentTrack(ctx context.Context) (*models.Track, error)

	// GetPlaylists retrieves the account's playlists, following pagination.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// Name returns the name of the service
	Name() string
}
