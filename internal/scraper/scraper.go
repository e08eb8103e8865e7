package scraper

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotbadge/internal/shared"
)

const (
	DefaultSearchURL = "https://open.spotify.com/search/daylist"
	DefaultLoginURL  = "https://accounts.spotify.com/login"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

// Config controls a scrape run.
type Config struct {
	SearchURL string
	LoginURL  string
	Username  string
	Password  string

	Headless  bool
	Viewport  Viewport
	UserAgent string
	Locale    string

	// Timeout bounds a whole run, browser startup included.
	Timeout           time.Duration
	NavigationTimeout time.Duration
	ElementTimeout    time.Duration

	Pause     Jitter
	Keystroke Jitter

	// ScreenshotDir receives a page capture when a run fails. Empty disables it.
	ScreenshotDir string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		SearchURL:         DefaultSearchURL,
		LoginURL:          DefaultLoginURL,
		Headless:          true,
		Viewport:          Viewport{Width: 1280, Height: 720},
		UserAgent:         DefaultUserAgent,
		Locale:            "en-US",
		Timeout:           2 * time.Minute,
		NavigationTimeout: 30 * time.Second,
		ElementTimeout:    5 * time.Second,
		Pause:             Jitter{Min: 500 * time.Millisecond, Max: 2 * time.Second},
		Keystroke:         Jitter{Min: 50 * time.Millisecond, Max: 150 * time.Millisecond},
	}
}

// ConfigFrom builds a run configuration from the application config.
func ConfigFrom(sc shared.ScraperConfig, creds shared.WebLoginConfig) Config {
	cfg := DefaultConfig()
	cfg.Username = creds.Username
	cfg.Password = creds.Password
	cfg.Headless = sc.Headless
	cfg.ScreenshotDir = sc.ScreenshotDir

	if sc.UserAgent != "" {
		cfg.UserAgent = sc.UserAgent
	}
	if sc.Locale != "" {
		cfg.Locale = sc.Locale
	}
	if d := sc.Timeout(); d > 0 {
		cfg.Timeout = d
	}
	if d := sc.NavigationTimeout(); d > 0 {
		cfg.NavigationTimeout = d
	}
	if d := sc.ElementTimeout(); d > 0 {
		cfg.ElementTimeout = d
	}

	cfg.Pause = Jitter{Min: ms(sc.JitterMinMS), Max: ms(sc.JitterMaxMS)}
	cfg.Keystroke = Jitter{Min: ms(sc.KeyDelayMinMS), Max: ms(sc.KeyDelayMaxMS)}
	return cfg
}

// TargetHost is the host a successful login lands on.
func (c Config) TargetHost() string {
	u, err := url.Parse(c.SearchURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func (c Config) launchOptions() LaunchOptions {
	return LaunchOptions{
		Headless:          c.Headless,
		Viewport:          c.Viewport,
		UserAgent:         c.UserAgent,
		Locale:            c.Locale,
		Args:              []string{"--disable-blink-features=AutomationControlled"},
		NavigationTimeout: c.NavigationTimeout,
	}
}

// Scraper runs the daylist state machine against browsers started by a [Driver].
type Scraper struct {
	cfg    Config
	driver Driver
	jar    *CookieJar
	logger *log.Logger
}

// New returns a Scraper. jar may be nil to run without persisted cookies.
func New(cfg Config, driver Driver, jar *CookieJar, logger *log.Logger) *Scraper {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scraper{cfg: cfg, driver: driver, jar: jar, logger: logger}
}

// FindPhrase scrapes the current daylist phrase. Every failure collapses to ok=false.
func (s *Scraper) FindPhrase(ctx context.Context) (string, bool) {
	res := s.Scrape(ctx)
	return res.Phrase, res.OK()
}

// Scrape performs one run and reports how it ended.
// The browser session is closed before Scrape returns, whatever the outcome.
func (s *Scraper) Scrape(ctx context.Context) (res Result) {
	runID := shared.GenerateID()
	logger := s.logger.With("run", runID)
	started := time.Now()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("scraper panicked", "panic", p)
			res = transient(fmt.Errorf("panic: %v", p))
		}
	}()

	session, err := s.driver.Launch(ctx, s.cfg.launchOptions())
	if err != nil {
		logger.Error("failed to launch browser", "error", err)
		return transient(fmt.Errorf("launch: %w", err))
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close browser", "error", err)
		}
	}()

	r := newRun(s.cfg, session, s.jar, logger)
	res = r.execute(ctx)

	logger = logger.With("outcome", res.Outcome, "states", len(r.trace), "elapsed", time.Since(started).Round(time.Millisecond))
	if res.OK() {
		logger.Info("scraped daylist phrase", "phrase", res.Phrase)
		return res
	}

	logger.Warn("scrape failed", "error", res.Err)
	s.screenshot(session.Page(), runID, res.Outcome, logger)
	return res
}

func (s *Scraper) screenshot(page Page, runID string, outcome Outcome, logger *log.Logger) {
	if s.cfg.ScreenshotDir == "" {
		return
	}
	if err := os.MkdirAll(s.cfg.ScreenshotDir, 0o755); err != nil {
		logger.Warn("screenshot dir", "error", err)
		return
	}

	path := filepath.Join(s.cfg.ScreenshotDir, fmt.Sprintf("daylist-%s-%s.png", outcome, runID))
	if err := page.Screenshot(path); err != nil {
		logger.Warn("failed to capture screenshot", "error", err)
		return
	}
	logger.Info("saved failure screenshot", "path", path)
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
