// Package scraper finds the daylist phrase by driving a real browser through the Spotify web player.
//
// # State machine
//
// A run moves through explicit states, each implemented as a named step:
//
//	Init -> Search -> CheckLogin -> Extract -> Done
//	                      |
//	                      +-> Login -> Search (at most once per run)
//
// Every step either names the next state or ends the run with a tagged [Result]
// (Success, NeedsLogin, NotFound, Ambiguous, TransientError). Extract treats a title
// without the "•" separator as ambiguous: the element is opened once and the search
// repeated, after which only the bulleted form is accepted.
//
// # Resources
//
// The browser and its driver are owned by a [Session] and closed exactly once on every
// exit path, including timeouts, cancellation and panics. [Scraper.FindPhrase] converts
// any failure into ok=false; nothing from this package propagates as an error to the
// badge server.
//
// # Cookies
//
// [CookieJar] loads session cookies from an environment blob (preferred) or a local file
// and rewrites the file atomically, only after a successful login.
//
// # Driver
//
// [PlaywrightDriver] adapts github.com/playwright-community/playwright-go to the [Driver],
// [Session] and [Page] interfaces. Tests substitute a scripted page.
package scraper
