package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotbadge/internal/badge"
	"github.com/desertthunder/spotbadge/internal/models"
)

// TrackSource resolves the track shown on the badge. A nil track with a nil error means nothing to show.
type TrackSource interface {
	CurrentTrack(ctx context.Context) (*models.Track, error)
}

// PhraseSource resolves the current daylist phrase.
type PhraseSource interface {
	Phrase(ctx context.Context) (string, bool)
}

// defaultPhraseWait caps how long a daylist request waits on a live resolution before falling back
// to the time-of-day caption. It stays below the server's WriteTimeout.
const defaultPhraseWait = 20 * time.Second

// BadgeHandler serves the track and daylist badges.
type BadgeHandler struct {
	tracks   TrackSource
	phrases  PhraseSource
	renderer *badge.Renderer
	revision string
	logger   *log.Logger
	mux      *http.ServeMux

	phraseWait time.Duration
}

// NewBadgeHandler wires the badge routes. revision, when set, becomes the weak ETag of every badge.
func NewBadgeHandler(tracks TrackSource, phrases PhraseSource, renderer *badge.Renderer, revision string, logger *log.Logger) *BadgeHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	h := &BadgeHandler{
		tracks:   tracks,
		phrases:  phrases,
		renderer: renderer,
		revision: revision,
		logger:   logger,
		mux:      http.NewServeMux(),

		phraseWait: defaultPhraseWait,
	}

	h.mux.HandleFunc("GET /{$}", h.trackSVG)
	h.mux.HandleFunc("GET /svg", h.trackSVG)
	h.mux.HandleFunc("GET /link", h.trackLink)
	h.mux.HandleFunc("GET /daylist", h.daylist)
	h.mux.HandleFunc("GET /daylist/light", h.daylist)
	h.mux.HandleFunc("GET /daylist/dark", h.daylist)
	h.mux.HandleFunc("GET /favicon.ico", noContent)
	h.mux.HandleFunc("GET /favicon.png", noContent)
	h.mux.HandleFunc("GET /healthz", h.health)
	return h
}

func (h *BadgeHandler) Routes() []string {
	return []string{"/{$}", "/svg", "/link", "/daylist", "/daylist/light", "/daylist/dark", "/favicon.ico", "/favicon.png", "/healthz"}
}

func (h *BadgeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *BadgeHandler) trackSVG(w http.ResponseWriter, r *http.Request) {
	track, err := h.tracks.CurrentTrack(r.Context())
	if err != nil {
		h.logger.Error("failed to resolve current track", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody("SVG not ready"))
		return
	}
	if track == nil {
		h.logger.Warn("no current track found")
		writeJSON(w, http.StatusServiceUnavailable, errorBody("SVG not ready"))
		return
	}

	svg, err := h.renderer.Track(r.Context(), track)
	if err != nil {
		h.logger.Error("failed to render track badge", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody("SVG not ready"))
		return
	}

	h.logger.Debug("served track badge", "song", track.Name, "artist", track.ArtistName)
	h.writeSVG(w, svg, badge.CacheControl(badge.TrackMaxAge))
}

func (h *BadgeHandler) trackLink(w http.ResponseWriter, r *http.Request) {
	track, err := h.tracks.CurrentTrack(r.Context())
	if err != nil {
		h.logger.Error("failed to resolve current track", "error", err)
	}
	if track == nil || track.ExternalURL == "" {
		writeJSON(w, http.StatusNotFound, errorBody("No track link available"))
		return
	}
	http.Redirect(w, r, track.ExternalURL, http.StatusFound)
}

func (h *BadgeHandler) daylist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.phraseWait)
	defer cancel()

	phrase, ok := h.phrases.Phrase(ctx)
	if !ok {
		h.logger.Warn("no daylist phrase, using time of day")
		phrase = ""
	}

	svg, maxAge, err := h.renderer.Daylist(phrase, badge.SchemeFromPath(r.URL.Path))
	if err != nil {
		h.logger.Error("failed to render daylist badge", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	h.writeSVG(w, svg, badge.CacheControl(maxAge))
}

func (h *BadgeHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "revision": h.revision})
}

func (h *BadgeHandler) writeSVG(w http.ResponseWriter, svg []byte, cacheControl string) {
	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	w.Header().Set("Cache-Control", cacheControl)
	if h.revision != "" {
		w.Header().Set("ETag", `W/"`+h.revision+`"`)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(svg)
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
