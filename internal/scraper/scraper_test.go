package scraper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestScrape(t *testing.T) {
	ctx := context.Background()

	t.Run("bulleted title succeeds without login", func(t *testing.T) {
		page := newFakePage()
		page.titles = []string{"daylist • chill folk monday morning"}
		driver := newFakeDriver(page)

		s := New(testConfig(), driver, nil, nil)
		res := s.Scrape(ctx)

		if res.Outcome != OutcomeSuccess || res.Phrase != "chill folk monday morning" {
			t.Fatalf("expected success with phrase, got %v %q (%v)", res.Outcome, res.Phrase, res.Err)
		}
		if n := driver.session.closeCount(); n != 1 {
			t.Errorf("expected session closed once, got %d", n)
		}
		if page.gotoCount(DefaultLoginURL) != 0 {
			t.Error("expected no login navigation")
		}
		if !slices.Contains(driver.opts.Args, "--disable-blink-features=AutomationControlled") {
			t.Errorf("expected automation flag in launch args, got %v", driver.opts.Args)
		}
	})

	t.Run("unbulleted title is opened and searched again", func(t *testing.T) {
		page := newFakePage()
		page.titles = []string{"daylist", "daylist • late night indie"}
		driver := newFakeDriver(page)

		res := New(testConfig(), driver, nil, nil).Scrape(ctx)

		if !res.OK() || res.Phrase != "late night indie" {
			t.Fatalf("expected phrase after retry, got %v %q", res.Outcome, res.Phrase)
		}
		if got := page.gotoCount(DefaultSearchURL); got != 2 {
			t.Errorf("expected 2 searches, got %d", got)
		}
		if !slices.Contains(page.clicks, daylistSelector) {
			t.Errorf("expected daylist element clicked, got %v", page.clicks)
		}
	})

	t.Run("second unbulleted title is ambiguous", func(t *testing.T) {
		page := newFakePage()
		page.titles = []string{"daylist"}
		driver := newFakeDriver(page)

		res := New(testConfig(), driver, nil, nil).Scrape(ctx)

		if res.Outcome != OutcomeAmbiguous {
			t.Fatalf("expected ambiguous, got %v", res.Outcome)
		}
		if res.Phrase != "" {
			t.Errorf("expected no phrase, got %q", res.Phrase)
		}
	})

	t.Run("missing element is not found", func(t *testing.T) {
		page := newFakePage()
		driver := newFakeDriver(page)

		res := New(testConfig(), driver, nil, nil).Scrape(ctx)
		if res.Outcome != OutcomeNotFound {
			t.Fatalf("expected not found, got %v", res.Outcome)
		}
	})

	t.Run("protected content triggers reload", func(t *testing.T) {
		page := newFakePage()
		page.protected = true
		page.titles = []string{"daylist • rainy afternoon"}
		driver := newFakeDriver(page)

		res := New(testConfig(), driver, nil, nil).Scrape(ctx)
		if !res.OK() {
			t.Fatalf("expected success, got %v", res.Outcome)
		}
		if page.reloads != 1 {
			t.Errorf("expected 1 reload, got %d", page.reloads)
		}
	})

	t.Run("login prompt without credentials needs login", func(t *testing.T) {
		page := newFakePage()
		page.loginPrompts = []bool{true}
		driver := newFakeDriver(page)

		res := New(testConfig(), driver, nil, nil).Scrape(ctx)

		if res.Outcome != OutcomeNeedsLogin {
			t.Fatalf("expected needs login, got %v", res.Outcome)
		}
		if page.gotoCount(DefaultLoginURL) != 0 {
			t.Error("expected no login attempt without credentials")
		}
	})

	t.Run("login saves cookies and resumes search", func(t *testing.T) {
		page := newFakePage()
		page.loginPrompts = []bool{true, false}
		page.landingURL = "https://accounts.spotify.com/status"
		page.webPlayerShown = true
		page.titles = []string{"daylist • sunny pop saturday"}

		driver := newFakeDriver(page)
		driver.session.current = []Cookie{{Name: "sp_dc", Value: "abc", Domain: ".spotify.com", Path: "/"}}

		cfg := testConfig()
		cfg.Username = "listener"
		cfg.Password = "hunter2"

		path := filepath.Join(t.TempDir(), "cookies.json")
		jar := NewCookieJar(path, "")

		res := New(cfg, driver, jar, nil).Scrape(ctx)
		if !res.OK() {
			t.Fatalf("expected success, got %v (%v)", res.Outcome, res.Err)
		}
		if page.typed[usernameSelector] != "listener" || page.typed[passwordSelector] != "hunter2" {
			t.Errorf("expected credentials typed, got %v", page.typed)
		}
		if !slices.Contains(page.clicks, webPlayerSelector) {
			t.Errorf("expected web player link clicked, got %v", page.clicks)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected cookie file, got %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("expected 0600, got %o", perm)
		}

		saved, source, err := jar.Load()
		if err != nil || source != SourceFile || len(saved) != 1 || saved[0].Name != "sp_dc" {
			t.Errorf("expected saved cookie, got %v %q %v", saved, source, err)
		}
	})

	t.Run("login is attempted once", func(t *testing.T) {
		page := newFakePage()
		page.loginPrompts = []bool{true}
		driver := newFakeDriver(page)

		cfg := testConfig()
		cfg.Username = "listener"
		cfg.Password = "wrong"

		res := New(cfg, driver, nil, nil).Scrape(ctx)

		if res.Outcome != OutcomeNeedsLogin {
			t.Fatalf("expected needs login, got %v", res.Outcome)
		}
		if got := page.gotoCount(DefaultLoginURL); got != 1 {
			t.Errorf("expected one login attempt, got %d", got)
		}
	})

	t.Run("login landing elsewhere does not save cookies", func(t *testing.T) {
		page := newFakePage()
		page.loginPrompts = []bool{true}
		page.landingURL = "https://accounts.spotify.com/login?error=1"
		driver := newFakeDriver(page)
		driver.session.current = []Cookie{{Name: "sp_dc", Value: "abc"}}

		cfg := testConfig()
		cfg.Username = "listener"
		cfg.Password = "wrong"

		path := filepath.Join(t.TempDir(), "cookies.json")
		res := New(cfg, driver, NewCookieJar(path, ""), nil).Scrape(ctx)

		if res.Outcome != OutcomeNeedsLogin {
			t.Fatalf("expected needs login, got %v", res.Outcome)
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected no cookie file, got %v", err)
		}
	})

	t.Run("stored cookies are added before searching", func(t *testing.T) {
		page := newFakePage()
		page.titles = []string{"daylist • focus"}
		driver := newFakeDriver(page)

		path := filepath.Join(t.TempDir(), "cookies.json")
		if err := os.WriteFile(path, []byte(`[{"name":"file","value":"1"}]`), 0o600); err != nil {
			t.Fatal(err)
		}
		jar := NewCookieJar(path, `[{"name":"env","value":"2"}]`)

		if res := New(testConfig(), driver, jar, nil).Scrape(ctx); !res.OK() {
			t.Fatalf("expected success, got %v", res.Outcome)
		}
		if len(driver.session.added) != 1 || driver.session.added[0].Name != "env" {
			t.Errorf("expected env cookies added, got %v", driver.session.added)
		}
	})

	t.Run("timeout closes the session", func(t *testing.T) {
		page := newFakePage()
		page.blockGoto = true
		driver := newFakeDriver(page)

		cfg := testConfig()
		cfg.Timeout = 20 * time.Millisecond

		res := New(cfg, driver, nil, nil).Scrape(ctx)

		if res.Outcome != OutcomeTransientError {
			t.Fatalf("expected transient error, got %v", res.Outcome)
		}
		if !errors.Is(res.Err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", res.Err)
		}
		if n := driver.session.closeCount(); n != 1 {
			t.Errorf("expected session closed once, got %d", n)
		}
	})

	t.Run("panic is recovered and the session closed", func(t *testing.T) {
		page := newFakePage()
		page.panicOnExtract = true
		driver := newFakeDriver(page)

		res := New(testConfig(), driver, nil, nil).Scrape(ctx)

		if res.Outcome != OutcomeTransientError {
			t.Fatalf("expected transient error, got %v", res.Outcome)
		}
		if n := driver.session.closeCount(); n != 1 {
			t.Errorf("expected session closed once, got %d", n)
		}
	})

	t.Run("launch failure is transient", func(t *testing.T) {
		driver := &fakeDriver{launchErr: errors.New("no chromium")}

		res := New(testConfig(), driver, nil, nil).Scrape(ctx)
		if res.Outcome != OutcomeTransientError {
			t.Fatalf("expected transient error, got %v", res.Outcome)
		}
	})

	t.Run("failure screenshot", func(t *testing.T) {
		page := newFakePage()
		driver := newFakeDriver(page)

		cfg := testConfig()
		cfg.ScreenshotDir = filepath.Join(t.TempDir(), "shots")

		New(cfg, driver, nil, nil).Scrape(ctx)

		if len(page.screenshots) != 1 {
			t.Fatalf("expected 1 screenshot, got %d", len(page.screenshots))
		}
		if filepath.Dir(page.screenshots[0]) != cfg.ScreenshotDir {
			t.Errorf("expected screenshot in %s, got %s", cfg.ScreenshotDir, page.screenshots[0])
		}
	})
}

func TestFindPhrase(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		page := newFakePage()
		page.titles = []string{"daylist • moody"}

		phrase, ok := New(testConfig(), newFakeDriver(page), nil, nil).FindPhrase(ctx)
		if !ok || phrase != "moody" {
			t.Errorf("expected moody, got %q %v", phrase, ok)
		}
	})

	t.Run("failure collapses to not ok", func(t *testing.T) {
		driver := &fakeDriver{launchErr: errors.New("boom")}

		phrase, ok := New(testConfig(), driver, nil, nil).FindPhrase(ctx)
		if ok || phrase != "" {
			t.Errorf("expected no phrase, got %q %v", phrase, ok)
		}
	})
}

func TestParseTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		phrase  string
		outcome Outcome
	}{
		{"bulleted", "daylist • indie rock tuesday night", "indie rock tuesday night", OutcomeSuccess},
		{"no spaces around bullet", "daylist•folk", "folk", OutcomeSuccess},
		{"capitalized", "Daylist • soft pop", "soft pop", OutcomeSuccess},
		{"bare", "daylist", "", OutcomeAmbiguous},
		{"empty phrase", "daylist • ", "", OutcomeAmbiguous},
		{"other element", "Discover Weekly", "", OutcomeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phrase, outcome := ParseTitle(tt.title)
			if phrase != tt.phrase || outcome != tt.outcome {
				t.Errorf("ParseTitle(%q) = %q, %v; expected %q, %v", tt.title, phrase, outcome, tt.phrase, tt.outcome)
			}
		})
	}
}

func TestConfigTargetHost(t *testing.T) {
	if got := DefaultConfig().TargetHost(); got != "open.spotify.com" {
		t.Errorf("expected open.spotify.com, got %q", got)
	}
}
