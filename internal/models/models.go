// Package models defines the transport-neutral values handed to the badge renderer and CLI.
//
// [Track] is what the badge shows; it is never persisted beyond the API response cache.
package models

// Track is the resolved "now playing" (or last played) song.
type Track struct {
	Name          string `json:"name"`
	ArtistName    string `json:"artist_name"`
	AlbumImageURL string `json:"album_image_url,omitempty"`
	ExternalURL   string `json:"external_url"`
	// Playing is false when the track came from listening history.
	Playing bool `json:"playing"`
}

// Playlist is a summary of one of the account's playlists.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
	URL         string `json:"url"`
}
