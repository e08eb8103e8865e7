package scraper

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// fakePage replays scripted answers for the state machine.
type fakePage struct {
	mu sync.Mutex

	url string
	// loginPrompts answers successive login checks; the last answer repeats.
	loginPrompts []bool
	protected    bool
	// titles answers successive WaitAttribute calls; "" means the element never appeared.
	titles         []string
	landingURL     string
	webPlayerShown bool
	blockGoto      bool
	panicOnExtract bool

	gotos       []string
	reloads     int
	clicks      []string
	typed       map[string]string
	screenshots []string
}

func newFakePage() *fakePage {
	return &fakePage{typed: map[string]string{}, landingURL: "https://open.spotify.com/"}
}

func (p *fakePage) Goto(ctx context.Context, url string) error {
	p.mu.Lock()
	p.gotos = append(p.gotos, url)
	p.url = url
	block := p.blockGoto
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (p *fakePage) Reload(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reloads++
	p.protected = false
	return nil
}

func (p *fakePage) WaitIdle(ctx context.Context) error { return ctx.Err() }

func (p *fakePage) TextVisible(ctx context.Context, text string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch text {
	case protectedContentText:
		return p.protected, nil
	case loginPromptText:
		if len(p.loginPrompts) == 0 {
			return false, nil
		}
		v := p.loginPrompts[0]
		if len(p.loginPrompts) > 1 {
			p.loginPrompts = p.loginPrompts[1:]
		}
		return v, nil
	}
	return false, nil
}

func (p *fakePage) Visible(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return selector == webPlayerSelector && p.webPlayerShown, nil
}

func (p *fakePage) Fill(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typed[selector] = value
	return nil
}

func (p *fakePage) Type(ctx context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len([]rune(text)) != 1 {
		return errors.New("expected one key per call")
	}
	p.typed[selector] += text
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, selector)
	switch selector {
	case submitSelector:
		p.url = p.landingURL
	case webPlayerSelector:
		p.url = "https://open.spotify.com/"
	}
	return nil
}

func (p *fakePage) WaitAttribute(ctx context.Context, selector, attr string, timeout time.Duration) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.panicOnExtract {
		panic("page crashed")
	}
	if len(p.titles) == 0 {
		return "", false, nil
	}
	title := p.titles[0]
	if len(p.titles) > 1 {
		p.titles = p.titles[1:]
	}
	return title, title != "", nil
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Screenshot(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.screenshots = append(p.screenshots, path)
	return nil
}

func (p *fakePage) gotoCount(prefix string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, u := range p.gotos {
		if strings.HasPrefix(u, prefix) {
			n++
		}
	}
	return n
}

type fakeSession struct {
	mu      sync.Mutex
	page    *fakePage
	added   []Cookie
	current []Cookie
	closes  int
}

func (s *fakeSession) Page() Page { return s.page }

func (s *fakeSession) Cookies(ctx context.Context) ([]Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, nil
}

func (s *fakeSession) AddCookies(ctx context.Context, cookies []Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, cookies...)
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

type fakeDriver struct {
	session   *fakeSession
	launchErr error
	launches  int
	opts      LaunchOptions
}

func (d *fakeDriver) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	d.launches++
	d.opts = opts
	if d.launchErr != nil {
		return nil, d.launchErr
	}
	return d.session, nil
}

func newFakeDriver(page *fakePage) *fakeDriver {
	return &fakeDriver{session: &fakeSession{page: page}}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Pause = Jitter{}
	cfg.Keystroke = Jitter{}
	cfg.Timeout = 5 * time.Second
	return cfg
}
