// Package badge renders the track and daylist SVG badges.
//
// Album art is fetched once per URL and kept in the cache store for a day, then inlined
// as a data URI so the badge renders inside sandboxed image proxies.
package badge

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotbadge/internal/cache"
	"github.com/desertthunder/spotbadge/internal/models"
	"github.com/desertthunder/spotbadge/internal/shared"
)

// Cache lifetimes sent to clients.
const (
	TrackMaxAge          = 60 * time.Second
	DaylistMaxAge        = 30 * time.Minute
	DefaultCaptionMaxAge = 60 * time.Second

	imageTTL      = 24 * time.Hour
	maxImageBytes = 2 << 20
	imageKey      = "image:"
)

var (
	//go:embed templates/*.svg
	templateFS embed.FS

	//go:embed assets/spotify.svg
	logoSVG []byte

	//go:embed assets/placeholder.svg
	placeholderSVG []byte

	templates = template.Must(template.New("badge").Funcs(template.FuncMap{"xml": escape}).ParseFS(templateFS, "templates/*.svg"))
)

// Scheme is the daylist badge color scheme.
type Scheme string

const (
	Light Scheme = "light"
	Dark  Scheme = "dark"
)

// SchemeFromPath picks the scheme from a request path ending in /dark or /light.
func SchemeFromPath(path string) Scheme {
	if strings.HasSuffix(path, "/dark") {
		return Dark
	}
	return Light
}

func (s Scheme) foreground() string {
	if s == Dark {
		return "#e6edf3"
	}
	return "#1f2328"
}

// CacheControl formats a public Cache-Control value for maxAge.
func CacheControl(maxAge time.Duration) string {
	s := int(maxAge.Seconds())
	return fmt.Sprintf("public, max-age=%d, s-maxage=%d, must-revalidate", s, s)
}

type RendererOpts struct {
	// Images caches album art. Nil disables caching.
	Images     *cache.Loader
	HTTPClient *http.Client
	Location   *time.Location
	Logger     *log.Logger
	Now        func() time.Time
}

// Renderer produces badge SVGs.
type Renderer struct {
	images      *cache.Loader
	client      *http.Client
	loc         *time.Location
	logger      *log.Logger
	now         func() time.Time
	logo        string
	placeholder string
}

func NewRenderer(opts RendererOpts) *Renderer {
	r := &Renderer{
		images:      opts.Images,
		client:      opts.HTTPClient,
		loc:         opts.Location,
		logger:      opts.Logger,
		now:         opts.Now,
		logo:        dataURI("image/svg+xml", logoSVG),
		placeholder: dataURI("image/svg+xml", placeholderSVG),
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: 10 * time.Second}
	}
	if r.loc == nil {
		r.loc = time.UTC
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

type trackData struct {
	Song   string
	Artist string
	Image  string
	Logo   string
}

// Track renders the track badge. Missing or unreachable album art is replaced by a placeholder.
func (r *Renderer) Track(ctx context.Context, t *models.Track) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: track", shared.ErrMissingArgument)
	}

	return render("track.svg", trackData{
		Song:   t.Name,
		Artist: t.ArtistName,
		Image:  r.albumArt(ctx, t.AlbumImageURL),
		Logo:   r.logo,
	})
}

type daylistData struct {
	Caption    string
	Foreground string
	Logo       string
}

// Daylist renders the daylist badge and returns how long clients may cache it.
// An empty phrase renders the time-of-day fallback with a short lifetime.
func (r *Renderer) Daylist(phrase string, scheme Scheme) ([]byte, time.Duration, error) {
	maxAge := DaylistMaxAge
	if phrase == "" {
		maxAge = DefaultCaptionMaxAge
	}

	svg, err := render("daylist.svg", daylistData{
		Caption:    Caption(r.now().In(r.loc), phrase),
		Foreground: scheme.foreground(),
		Logo:       r.logo,
	})
	return svg, maxAge, err
}

func (r *Renderer) albumArt(ctx context.Context, url string) string {
	if url == "" {
		return r.placeholder
	}

	var (
		data []byte
		err  error
	)
	if r.images != nil {
		data, err = r.images.GetOrLoad(ctx, imageKey+url, imageTTL, func(ctx context.Context) ([]byte, error) {
			return r.fetchImage(ctx, url)
		})
	} else {
		data, err = r.fetchImage(ctx, url)
	}
	if err != nil || len(data) == 0 {
		r.logger.Warn("using placeholder album art", "url", url, "error", err)
		return r.placeholder
	}
	return dataURI(http.DetectContentType(data), data)
}

func (r *Renderer) fetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: album art returned %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read album art: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("%w: album art larger than %d bytes", shared.ErrServiceUnavailable, maxImageBytes)
	}
	return data, nil
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func dataURI(mime string, data []byte) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func escape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return ""
	}
	return b.String()
}
