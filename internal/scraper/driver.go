package scraper

import (
	"context"
	"time"
)

// Viewport is the emulated window size.
type Viewport struct {
	Width  int
	Height int
}

// LaunchOptions describes the browser a [Driver] should start.
type LaunchOptions struct {
	Headless          bool
	Viewport          Viewport
	UserAgent         string
	Locale            string
	Args              []string
	NavigationTimeout time.Duration
}

// Driver starts browser sessions.
type Driver interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Session owns one browser, its context and a single page.
type Session interface {
	Page() Page
	Cookies(ctx context.Context) ([]Cookie, error)
	AddCookies(ctx context.Context, cookies []Cookie) error
	// Close shuts the browser and stops the driver process. Safe to call more than once.
	Close() error
}

// Page is the subset of page automation the state machine needs.
//
// Navigation methods wait until the network is idle.
type Page interface {
	Goto(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	WaitIdle(ctx context.Context) error
	TextVisible(ctx context.Context, text string) (bool, error)
	Visible(ctx context.Context, selector string) (bool, error)
	Fill(ctx context.Context, selector, value string) error
	// Type sends text as key presses to the element.
	Type(ctx context.Context, selector, text string) error
	Click(ctx context.Context, selector string) error
	// WaitAttribute waits up to timeout for selector to become visible and returns attr.
	// found is false, with a nil error, when the element never appeared.
	WaitAttribute(ctx context.Context, selector, attr string, timeout time.Duration) (value string, found bool, err error)
	URL() string
	Screenshot(path string) error
}
