package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotbadge/internal/badge"
	"github.com/desertthunder/spotbadge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTracks struct {
	track *models.Track
	err   error
}

func (s stubTracks) CurrentTrack(context.Context) (*models.Track, error) { return s.track, s.err }

type stubPhrases struct {
	phrase string
}

func (s stubPhrases) Phrase(context.Context) (string, bool) { return s.phrase, s.phrase != "" }

// slowPhrases never resolves before its caller gives up.
type slowPhrases struct{}

func (slowPhrases) Phrase(ctx context.Context) (string, bool) {
	<-ctx.Done()
	return "", false
}

func newBadgeServer(t *testing.T, tracks TrackSource, phrases PhraseSource) http.Handler {
	t.Helper()
	renderer := badge.NewRenderer(badge.RendererOpts{
		Now: func() time.Time { return time.Date(2024, 5, 1, 9, 5, 0, 0, time.UTC) },
	})
	return NewRouter(log.New(&bytes.Buffer{}), NewBadgeHandler(tracks, phrases, renderer, "abc123", nil))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestBadgeHandlerTrack(t *testing.T) {
	track := &models.Track{Name: "Song", ArtistName: "Artist", ExternalURL: "https://open.spotify.com/track/1"}

	t.Run("renders svg", func(t *testing.T) {
		h := newBadgeServer(t, stubTracks{track: track}, stubPhrases{})

		for _, path := range []string{"/", "/svg"} {
			rec := get(t, h, path)
			require.Equal(t, http.StatusOK, rec.Code, path)
			assert.Equal(t, "image/svg+xml; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, badge.CacheControl(badge.TrackMaxAge), rec.Header().Get("Cache-Control"))
			assert.Equal(t, `W/"abc123"`, rec.Header().Get("ETag"))
			assert.Contains(t, rec.Body.String(), "Song")
		}
	})

	t.Run("not ready without track", func(t *testing.T) {
		for name, src := range map[string]stubTracks{
			"nil track": {},
			"error":     {err: errors.New("api down")},
		} {
			rec := get(t, newBadgeServer(t, src, stubPhrases{}), "/svg")
			require.Equal(t, http.StatusServiceUnavailable, rec.Code, name)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "SVG not ready", body["error"])
		}
	})

	t.Run("link redirects", func(t *testing.T) {
		rec := get(t, newBadgeServer(t, stubTracks{track: track}, stubPhrases{}), "/link")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, track.ExternalURL, rec.Header().Get("Location"))
	})

	t.Run("link missing", func(t *testing.T) {
		rec := get(t, newBadgeServer(t, stubTracks{}, stubPhrases{}), "/link")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "No track link available")
	})
}

func TestBadgeHandlerDaylist(t *testing.T) {
	t.Run("phrase", func(t *testing.T) {
		h := newBadgeServer(t, stubTracks{}, stubPhrases{phrase: "sleepy jazz"})
		rec := get(t, h, "/daylist/dark")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, badge.CacheControl(badge.DaylistMaxAge), rec.Header().Get("Cache-Control"))
		assert.Contains(t, rec.Body.String(), "another sleepy jazz")
	})

	t.Run("fallback caption", func(t *testing.T) {
		h := newBadgeServer(t, stubTracks{}, stubPhrases{})
		rec := get(t, h, "/daylist")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, badge.CacheControl(badge.DefaultCaptionMaxAge), rec.Header().Get("Cache-Control"))
		assert.Contains(t, rec.Body.String(), "another morning of music")
	})
}

func TestBadgeHandlerPhraseWait(t *testing.T) {
	renderer := badge.NewRenderer(badge.RendererOpts{
		Now: func() time.Time { return time.Date(2024, 5, 1, 19, 5, 0, 0, time.UTC) },
	})
	h := NewBadgeHandler(stubTracks{}, slowPhrases{}, renderer, "", nil)
	h.phraseWait = 20 * time.Millisecond

	start := time.Now()
	rec := get(t, h, "/daylist")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, rec.Body.String(), "another evening of music")
	assert.Equal(t, badge.CacheControl(badge.DefaultCaptionMaxAge), rec.Header().Get("Cache-Control"))
	assert.Less(t, defaultPhraseWait, writeTimeout, "phrase wait must stay under the write timeout")
}

func TestBadgeHandlerMisc(t *testing.T) {
	h := newBadgeServer(t, stubTracks{}, stubPhrases{})

	t.Run("favicon", func(t *testing.T) {
		for _, path := range []string{"/favicon.ico", "/favicon.png"} {
			assert.Equal(t, http.StatusNoContent, get(t, h, path).Code, path)
		}
	})

	t.Run("health", func(t *testing.T) {
		rec := get(t, h, "/healthz")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok","revision":"abc123"}`, rec.Body.String())
	})

	t.Run("unknown path", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(t, h, "/nope").Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/svg", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
