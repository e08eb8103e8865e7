package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// InstallBrowser downloads the driver and Chromium build used by [PlaywrightDriver].
func InstallBrowser() error {
	return playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
}

// PlaywrightDriver launches Chromium through playwright-go.
type PlaywrightDriver struct{}

func (PlaywrightDriver) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start driver: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("launch chromium: %w", err), pw.Stop())
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: opts.Viewport.Width, Height: opts.Viewport.Height},
	}
	if opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.Locale != "" {
		contextOpts.Locale = playwright.String(opts.Locale)
	}

	session := &pwSession{pw: pw, browser: browser}

	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("new context: %w", err), session.Close())
	}
	page, err := bctx.NewPage()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("new page: %w", err), session.Close())
	}

	timeout := opts.NavigationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	page.SetDefaultTimeout(float64(timeout.Milliseconds()))
	page.SetDefaultNavigationTimeout(float64(timeout.Milliseconds()))

	session.bctx = bctx
	session.page = &pwPage{page: page, timeout: timeout}
	return session, nil
}

type pwSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    *pwPage

	once     sync.Once
	closeErr error
}

func (s *pwSession) Page() Page { return s.page }

func (s *pwSession) Cookies(ctx context.Context) ([]Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := s.bctx.Cookies()
	if err != nil {
		return nil, err
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			cookie.SameSite = string(*c.SameSite)
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}

func (s *pwSession) AddCookies(ctx context.Context, cookies []Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	opts := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		oc := playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   playwright.String(c.Domain),
			Path:     playwright.String(c.Path),
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
		}
		if c.Path == "" {
			oc.Path = playwright.String("/")
		}
		if c.Expires > 0 {
			oc.Expires = playwright.Float(c.Expires)
		}
		if c.SameSite != "" {
			sameSite := playwright.SameSiteAttribute(c.SameSite)
			oc.SameSite = &sameSite
		}
		opts = append(opts, oc)
	}
	return s.bctx.AddCookies(opts)
}

func (s *pwSession) Close() error {
	s.once.Do(func() {
		var errs []error
		if s.browser != nil {
			errs = append(errs, s.browser.Close())
		}
		if s.pw != nil {
			errs = append(errs, s.pw.Stop())
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

type pwPage struct {
	page    playwright.Page
	timeout time.Duration
}

// budget caps an operation timeout by what is left of ctx.
func (p *pwPage) budget(ctx context.Context, d time.Duration) *float64 {
	if d <= 0 {
		d = p.timeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		d = max(min(d, time.Until(deadline)), time.Millisecond)
	}
	return playwright.Float(float64(d.Milliseconds()))
}

func (p *pwPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   p.budget(ctx, 0),
	})
	return err
}

func (p *pwPage) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   p.budget(ctx, 0),
	})
	return err
}

func (p *pwPage) WaitIdle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: p.budget(ctx, 0),
	})
}

func (p *pwPage) TextVisible(ctx context.Context, text string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.page.GetByText(text).First().IsVisible()
}

func (p *pwPage) Visible(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.page.Locator(selector).First().IsVisible()
}

func (p *pwPage) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.Locator(selector).First().Fill(value, playwright.LocatorFillOptions{
		Timeout: p.budget(ctx, 0),
	})
}

func (p *pwPage) Type(ctx context.Context, selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.Locator(selector).First().PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Timeout: p.budget(ctx, 0),
	})
}

func (p *pwPage) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: p.budget(ctx, 0),
	})
}

func (p *pwPage) WaitAttribute(ctx context.Context, selector, attr string, timeout time.Duration) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	loc := p.page.Locator(selector).First()
	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: p.budget(ctx, timeout),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return "", false, ctx.Err()
	} else if err != nil {
		return "", false, err
	}

	value, err := loc.GetAttribute(attr)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (p *pwPage) URL() string { return p.page.URL() }

func (p *pwPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}
