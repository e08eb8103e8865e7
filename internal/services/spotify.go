// Spotify Web API client with refresh-token handling and a per-endpoint response cache.
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotbadge/internal/cache"
	"github.com/desertthunder/spotbadge/internal/models"
	"github.com/desertthunder/spotbadge/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultExpiresIn  = time.Hour
	expirySkew        = 60 * time.Second
	playlistPageSize  = 50
	playlistScanLimit = 1000
	maxResponseBytes  = 5 << 20
)

// SpotifyScopes are requested when minting a refresh token.
var SpotifyScopes = []string{
	"user-read-currently-playing",
	"user-read-recently-played",
	"playlist-read-private",
	"user-read-private",
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	Product     string `json:"product"`
}

// CurrentlyPlaying is the me/player/currently-playing payload. Item is nil for ads and episodes.
type CurrentlyPlaying struct {
	IsPlaying            bool          `json:"is_playing"`
	CurrentlyPlayingType string        `json:"currently_playing_type"`
	Item                 *SpotifyTrack `json:"item"`
}

// PlayHistory is one entry of the listening history.
type PlayHistory struct {
	Track    SpotifyTrack `json:"track"`
	PlayedAt string       `json:"played_at"`
}

// RecentlyPlayed is the me/player/recently-played payload.
type RecentlyPlayed struct {
	Items []PlayHistory `json:"items"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Owner        Owner               `json:"owner"`
	Public       bool                `json:"public"`
	Tracks       simplePlaylistTrack `json:"tracks"`
	ExternalURLs externalURLs        `json:"external_urls"`
	URI          string              `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifySimplePlaylist `json:"items"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
}

// Token is the short-lived bearer credential. ExpiresAt already includes a safety margin.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid reports whether the token can be used at now.
func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// APIError is a non-success response from the Web API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error: status %d on %s: %s", e.StatusCode, e.Endpoint, e.Body)
}

func (e *APIError) Unwrap() error { return shared.ErrAPIRequest }

// AuthError is a rejected refresh-token grant.
type AuthError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *AuthError) Error() string {
	msg := e.Description
	if msg == "" {
		msg = e.Code
	}
	return fmt.Sprintf("%v (status %d): %s", shared.ErrRefreshFailed, e.StatusCode, msg)
}

func (e *AuthError) Unwrap() error { return shared.ErrRefreshFailed }

// OAuthConfig builds the OAuth2 client configuration for the Spotify accounts service.
//
// Client credentials travel in the form body, which is what the accounts service documents for refresh.
func OAuthConfig(clientID, clientSecret, redirectURI, tokenURL string) *oauth2.Config {
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       SpotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   spotifyAuthURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// SpotifyOpts configures a [SpotifyService]. Only the three credentials are required.
type SpotifyOpts struct {
	ClientID     string
	ClientSecret string
	RefreshToken string

	TokenURL   string
	BaseURL    string
	HTTPClient *http.Client
	Cache      *cache.Loader
	Policy     cache.Policy
	Logger     *log.Logger
	Now        func() time.Time
}

// SpotifyService is a single-account Web API client.
//
// The access token is obtained lazily, refreshed before it expires, and refreshed once more when the API
// answers 401. Responses for endpoints matched by the cache policy are served from the cache loader.
type SpotifyService struct {
	oauth      *oauth2.Config
	baseURL    string
	httpClient *http.Client
	loader     *cache.Loader
	policy     cache.Policy
	logger     *log.Logger
	now        func() time.Time

	mu           sync.Mutex
	token        Token
	refreshToken string
}

// NewSpotifyService validates the credentials and builds the client. No network call is made.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	creds := shared.SpotifyConfig{ClientID: opts.ClientID, ClientSecret: opts.ClientSecret, RefreshToken: opts.RefreshToken}
	if missing := creds.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingCredentials, strings.Join(missing, ", "))
	}

	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Policy == nil {
		opts.Policy = cache.DefaultPolicy
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &SpotifyService{
		oauth:        OAuthConfig(opts.ClientID, opts.ClientSecret, "", opts.TokenURL),
		baseURL:      strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient:   opts.HTTPClient,
		loader:       opts.Cache,
		policy:       opts.Policy,
		logger:       shared.WithLogger(opts.Logger, "service", "spotify"),
		now:          opts.Now,
		refreshToken: opts.RefreshToken,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Refresh exchanges the refresh token for a new access token.
func (s *SpotifyService) Refresh(ctx context.Context) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *SpotifyService) refreshLocked(ctx context.Context) (Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	tok, err := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: s.refreshToken}).Token()
	if err != nil {
		return Token{}, refreshError(err)
	}

	s.token = Token{
		AccessToken: tok.AccessToken,
		ExpiresAt:   s.now().Add(tokenLifetime(tok) - expirySkew),
	}
	if tok.RefreshToken != "" && tok.RefreshToken != s.refreshToken {
		s.logger.Info("refresh token rotated by accounts service")
		s.refreshToken = tok.RefreshToken
	}

	s.logger.Debug("access token refreshed", "expires_at", s.token.ExpiresAt)
	return s.token, nil
}

// RefreshToken returns the refresh token currently in use, which differs from the configured one after rotation.
func (s *SpotifyService) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

func tokenLifetime(tok *oauth2.Token) time.Duration {
	if tok.ExpiresIn > 0 {
		return time.Duration(tok.ExpiresIn) * time.Second
	}
	if v, ok := tok.Extra("expires_in").(float64); ok && v > 0 {
		return time.Duration(v) * time.Second
	}
	return defaultExpiresIn
}

func refreshError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	authErr := &AuthError{Code: re.ErrorCode, Description: re.ErrorDescription}
	if re.Response != nil {
		authErr.StatusCode = re.Response.StatusCode
	}
	if authErr.Description == "" && authErr.Code == "" {
		authErr.Description = strings.TrimSpace(string(re.Body))
	}
	return authErr
}

// accessToken returns a usable token, refreshing first when the current one is missing or expired.
func (s *SpotifyService) accessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token.Valid(s.now()) {
		return s.token.AccessToken, nil
	}
	tok, err := s.refreshLocked(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// replaceRejected refreshes after a 401 unless another caller already replaced the rejected token.
func (s *SpotifyService) replaceRejected(ctx context.Context, rejected string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token.AccessToken != rejected && s.token.Valid(s.now()) {
		return s.token.AccessToken, nil
	}
	tok, err := s.refreshLocked(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Request performs a GET against the Web API and returns the raw body.
//
// A nil body with a nil error means the API had nothing to report (204).
func (s *SpotifyService) Request(ctx context.Context, endpoint string) ([]byte, error) {
	ttl := s.policy.TTL(endpoint)
	if ttl <= 0 || s.loader == nil {
		return s.fetch(ctx, endpoint)
	}

	return s.loader.GetOrLoad(ctx, cache.RequestKey(endpoint), ttl, func(ctx context.Context) ([]byte, error) {
		return s.fetch(ctx, endpoint)
	})
}

func (s *SpotifyService) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	token, err := s.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	status, body, err := s.get(ctx, endpoint, token)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		s.logger.Info("access token rejected, refreshing", "endpoint", endpoint)
		if token, err = s.replaceRejected(ctx, token); err != nil {
			return nil, err
		}
		if status, body, err = s.get(ctx, endpoint, token); err != nil {
			return nil, err
		}
	}

	switch {
	case status == http.StatusNoContent:
		return nil, nil
	case status >= 200 && status < 300:
		if len(body) == 0 {
			return nil, nil
		}
		return body, nil
	default:
		return nil, &APIError{StatusCode: status, Endpoint: endpoint, Body: strings.TrimSpace(string(body))}
	}
}

func (s *SpotifyService) get(ctx context.Context, endpoint, token string) (int, []byte, error) {
	apiURL := s.baseURL + "/" + strings.TrimPrefix(endpoint, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// decode requests endpoint into v and reports whether the API returned content.
func (s *SpotifyService) decode(ctx context.Context, endpoint string, v any) (bool, error) {
	body, err := s.Request(ctx, endpoint)
	if err != nil || body == nil {
		return false, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", endpoint, err)
	}
	return true, nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if ok, err := s.decode(ctx, "me", &user); err != nil || !ok {
		return nil, err
	}
	return &user, nil
}

// CurrentlyPlaying returns the playback state, or nil when nothing is playing.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context) (*CurrentlyPlaying, error) {
	var playing CurrentlyPlaying
	if ok, err := s.decode(ctx, "me/player/currently-playing", &playing); err != nil || !ok {
		return nil, err
	}
	return &playing, nil
}

// RecentlyPlayed returns up to limit (1-50) history entries, newest first.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, limit int) (*RecentlyPlayed, error) {
	limit = min(max(limit, 1), 50)

	var history RecentlyPlayed
	endpoint := fmt.Sprintf("me/player/recently-played?limit=%d", limit)
	if _, err := s.decode(ctx, endpoint, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// CurrentTrack resolves the track shown on the badge.
func (s *SpotifyService) CurrentTrack(ctx context.Context) (*models.Track, error) {
	playing, err := s.CurrentlyPlaying(ctx)
	if err != nil {
		return nil, err
	}
	if playing != nil && playing.Item != nil {
		track := toTrack(*playing.Item)
		track.Playing = playing.IsPlaying
		return &track, nil
	}

	history, err := s.RecentlyPlayed(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(history.Items) == 0 {
		return nil, nil
	}

	track := toTrack(history.Items[0].Track)
	return &track, nil
}

func toTrack(t SpotifyTrack) models.Track {
	track := models.Track{Name: t.Name, ExternalURL: t.ExternalURLs.Spotify}
	if len(t.Artists) > 0 {
		track.ArtistName = t.Artists[0].Name
	}

	// Index 1 is the 300px rendition; fall back to whatever exists.
	switch images := t.Album.Images; {
	case len(images) > 1:
		track.AlbumImageURL = images[1].URL
	case len(images) == 1:
		track.AlbumImageURL = images[0].URL
	}
	return track
}

// UserPlaylists retrieves the current user's playlists with pagination.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > playlistPageSize {
		limit = playlistPageSize
	}

	query := url.Values{}
	query.Set("limit", fmt.Sprint(limit))
	query.Set("offset", fmt.Sprint(offset))

	var response SpotifyPaginatedPlaylists
	if _, err := s.decode(ctx, "me/playlists?"+query.Encode(), &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetPlaylists retrieves the account's playlists, stopping after the scan limit.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	err := s.eachPlaylist(ctx, func(p SpotifySimplePlaylist) bool {
		playlists = append(playlists, toPlaylist(p))
		return true
	})
	return playlists, err
}

// FindPlaylist returns the first playlist whose name starts with prefix (case-insensitive).
func (s *SpotifyService) FindPlaylist(ctx context.Context, prefix string) (*models.Playlist, error) {
	prefix = strings.ToLower(prefix)

	var found *models.Playlist
	err := s.eachPlaylist(ctx, func(p SpotifySimplePlaylist) bool {
		if strings.HasPrefix(strings.ToLower(p.Name), prefix) {
			playlist := toPlaylist(p)
			found = &playlist
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: no playlist starting with %q", shared.ErrPlaylistNotFound, prefix)
	}
	return found, nil
}

// eachPlaylist pages through me/playlists until fn returns false, the last page, or the scan limit.
func (s *SpotifyService) eachPlaylist(ctx context.Context, fn func(SpotifySimplePlaylist) bool) error {
	for offset := 0; offset < playlistScanLimit; offset += playlistPageSize {
		page, err := s.UserPlaylists(ctx, playlistPageSize, offset)
		if err != nil {
			return err
		}
		for _, p := range page.Items {
			if !fn(p) {
				return nil
			}
		}
		if page.Next == nil || len(page.Items) == 0 {
			return nil
		}
	}
	return nil
}

func toPlaylist(p SpotifySimplePlaylist) models.Playlist {
	return models.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		TrackCount:  p.Tracks.Total,
		Public:      p.Public,
		URL:         p.ExternalURLs.Spotify,
	}
}
