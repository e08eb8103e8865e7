package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
)

// State is a step of a scrape run.
type State int

const (
	StateInit State = iota
	StateSearch
	StateCheckLogin
	StateLogin
	StateExtract
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSearch:
		return "search"
	case StateCheckLogin:
		return "check_login"
	case StateLogin:
		return "login"
	case StateExtract:
		return "extract"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome tags how a run ended.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNeedsLogin
	OutcomeNotFound
	OutcomeAmbiguous
	OutcomeTransientError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNeedsLogin:
		return "needs_login"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeAmbiguous:
		return "ambiguous"
	case OutcomeTransientError:
		return "transient_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the terminal value of a run. Phrase is set only on success.
type Result struct {
	Outcome Outcome
	Phrase  string
	Err     error
}

// OK reports whether the run produced a phrase.
func (r Result) OK() bool { return r.Outcome == OutcomeSuccess && r.Phrase != "" }

var (
	errLoginPersisted = errors.New("login prompt still visible after logging in")
	errNoCredentials  = errors.New("login required but no credentials configured")
	errLoginRejected  = errors.New("login did not return to the web player")
	errNoDaylist      = errors.New("no daylist element on the search page")
	errUnbulleted     = errors.New("daylist title still has no phrase after opening it")
)

// Page text and selectors on the Spotify web player and login pages.
const (
	loginPromptText      = "Log in"
	protectedContentText = "Playback of protected content is not enabled"

	usernameSelector  = "#login-username"
	passwordSelector  = "#login-password"
	submitSelector    = "#login-button"
	webPlayerSelector = "button[data-testid='web-player-link']"
	daylistSelector   = `a[title^="daylist"]`
)

type step func(ctx context.Context) (State, *Result)

// run holds the per-scrape state. It is not reused.
type run struct {
	cfg     Config
	session Session
	page    Page
	jar     *CookieJar
	logger  *log.Logger

	attemptedLogin bool
	requireBullet  bool
	trace          []State
}

func newRun(cfg Config, session Session, jar *CookieJar, logger *log.Logger) *run {
	return &run{cfg: cfg, session: session, page: session.Page(), jar: jar, logger: logger}
}

// execute drives the machine from Init until a step returns a result.
func (r *run) execute(ctx context.Context) Result {
	steps := map[State]step{
		StateInit:       r.init,
		StateSearch:     r.search,
		StateCheckLogin: r.checkLogin,
		StateLogin:      r.login,
		StateExtract:    r.extract,
	}

	state := StateInit
	for {
		r.trace = append(r.trace, state)
		if err := ctx.Err(); err != nil {
			return transient(err)
		}

		fn, ok := steps[state]
		if !ok {
			return transient(fmt.Errorf("no step for state %s", state))
		}

		next, res := fn(ctx)
		if res != nil {
			r.trace = append(r.trace, StateDone)
			return *res
		}

		r.logger.Debug("scraper transition", "from", state, "to", next)
		state = next
	}
}

func (r *run) init(ctx context.Context) (State, *Result) {
	if r.jar == nil {
		return StateSearch, nil
	}

	cookies, source, err := r.jar.Load()
	if err != nil {
		r.logger.Warn("ignoring stored cookies", "error", err)
		return StateSearch, nil
	}
	if len(cookies) == 0 {
		return StateSearch, nil
	}

	if err := r.session.AddCookies(ctx, cookies); err != nil {
		r.logger.Warn("failed to add stored cookies", "source", source, "error", err)
		return StateSearch, nil
	}
	r.logger.Debug("loaded cookies", "source", source, "count", len(cookies))
	return StateSearch, nil
}

func (r *run) search(ctx context.Context) (State, *Result) {
	if err := r.page.Goto(ctx, r.cfg.SearchURL); err != nil {
		return 0, result(transient(fmt.Errorf("open search: %w", err)))
	}
	if err := r.cfg.Pause.Sleep(ctx); err != nil {
		return 0, result(transient(err))
	}

	protected, err := r.page.TextVisible(ctx, protectedContentText)
	if err != nil {
		r.logger.Debug("protected content check failed", "error", err)
	}
	if protected {
		r.logger.Info("protected content banner shown, reloading")
		if err := r.page.Reload(ctx); err != nil {
			return 0, result(transient(fmt.Errorf("reload: %w", err)))
		}
		if err := r.settle(ctx); err != nil {
			return 0, result(transient(err))
		}
	}
	return StateCheckLogin, nil
}

func (r *run) checkLogin(ctx context.Context) (State, *Result) {
	prompt, err := r.page.TextVisible(ctx, loginPromptText)
	if err != nil {
		return 0, result(transient(fmt.Errorf("login check: %w", err)))
	}
	if !prompt {
		return StateExtract, nil
	}

	switch {
	case r.attemptedLogin:
		return 0, &Result{Outcome: OutcomeNeedsLogin, Err: errLoginPersisted}
	case r.cfg.Username == "" || r.cfg.Password == "":
		return 0, &Result{Outcome: OutcomeNeedsLogin, Err: errNoCredentials}
	default:
		return StateLogin, nil
	}
}

func (r *run) login(ctx context.Context) (State, *Result) {
	r.attemptedLogin = true

	if err := r.page.Goto(ctx, r.cfg.LoginURL); err != nil {
		return 0, result(transient(fmt.Errorf("open login: %w", err)))
	}
	if err := r.cfg.Pause.Sleep(ctx); err != nil {
		return 0, result(transient(err))
	}

	if err := r.typeSlowly(ctx, usernameSelector, r.cfg.Username); err != nil {
		return 0, result(transient(fmt.Errorf("username: %w", err)))
	}
	if err := r.cfg.Pause.Sleep(ctx); err != nil {
		return 0, result(transient(err))
	}
	if err := r.typeSlowly(ctx, passwordSelector, r.cfg.Password); err != nil {
		return 0, result(transient(fmt.Errorf("password: %w", err)))
	}
	if err := r.page.Click(ctx, submitSelector); err != nil {
		return 0, result(transient(fmt.Errorf("submit: %w", err)))
	}
	if err := r.settle(ctx); err != nil {
		return 0, result(transient(err))
	}

	if ok, _ := r.page.Visible(ctx, webPlayerSelector); ok {
		if err := r.page.Click(ctx, webPlayerSelector); err != nil {
			return 0, result(transient(fmt.Errorf("web player link: %w", err)))
		}
		if err := r.settle(ctx); err != nil {
			return 0, result(transient(err))
		}
	}

	if !r.onTargetHost() {
		r.logger.Warn("login did not land on the web player", "url", r.page.URL())
		return 0, &Result{Outcome: OutcomeNeedsLogin, Err: errLoginRejected}
	}

	r.persistCookies(ctx)
	return StateSearch, nil
}

func (r *run) extract(ctx context.Context) (State, *Result) {
	title, found, err := r.page.WaitAttribute(ctx, daylistSelector, "title", r.cfg.ElementTimeout)
	if err != nil {
		return 0, result(transient(fmt.Errorf("daylist element: %w", err)))
	}
	if !found {
		return 0, &Result{Outcome: OutcomeNotFound, Err: errNoDaylist}
	}

	phrase, outcome := ParseTitle(title)
	switch outcome {
	case OutcomeSuccess:
		return 0, &Result{Outcome: OutcomeSuccess, Phrase: phrase}
	case OutcomeAmbiguous:
		if r.requireBullet {
			return 0, &Result{Outcome: OutcomeAmbiguous, Err: errUnbulleted}
		}
		r.requireBullet = true
		r.logger.Debug("daylist title has no phrase, opening it", "title", title)
		if err := r.page.Click(ctx, daylistSelector); err != nil {
			return 0, result(transient(fmt.Errorf("open daylist: %w", err)))
		}
		if err := r.settle(ctx); err != nil {
			return 0, result(transient(err))
		}
		return StateSearch, nil
	default:
		return 0, &Result{Outcome: OutcomeNotFound, Err: fmt.Errorf("unexpected title %q", title)}
	}
}

func (r *run) typeSlowly(ctx context.Context, selector, value string) error {
	if err := r.page.Fill(ctx, selector, ""); err != nil {
		return err
	}
	for _, ch := range value {
		if err := r.page.Type(ctx, selector, string(ch)); err != nil {
			return err
		}
		if err := r.cfg.Keystroke.Sleep(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) settle(ctx context.Context) error {
	if err := r.page.WaitIdle(ctx); err != nil {
		return err
	}
	return r.cfg.Pause.Sleep(ctx)
}

func (r *run) onTargetHost() bool {
	u, err := url.Parse(r.page.URL())
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), r.cfg.TargetHost())
}

// persistCookies saves the session after a login. Failures are logged; the run continues.
func (r *run) persistCookies(ctx context.Context) {
	if r.jar == nil || r.jar.Path() == "" {
		return
	}

	cookies, err := r.session.Cookies(ctx)
	if err != nil {
		r.logger.Warn("failed to read session cookies", "error", err)
		return
	}
	if err := r.jar.Save(cookies); err != nil {
		r.logger.Warn("failed to save cookies", "path", r.jar.Path(), "error", err)
		return
	}
	r.logger.Info("saved session cookies", "path", r.jar.Path(), "count", len(cookies))
}

func transient(err error) Result {
	return Result{Outcome: OutcomeTransientError, Err: err}
}

func result(r Result) *Result { return &r }
