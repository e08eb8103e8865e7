package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotbadge/internal/cache"
	"github.com/desertthunder/spotbadge/internal/daylist"
	"github.com/desertthunder/spotbadge/internal/scraper"
	"github.com/desertthunder/spotbadge/internal/services"
	"github.com/desertthunder/spotbadge/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services that need credentials or a cache backend are built on first use so setup commands run
// without them.
type Runner struct {
	config     *shared.Config
	configPath string
	loadConfig bool

	spotify    services.Service
	store      cache.Store
	scraper    daylist.PhraseScraper
	driver     scraper.Driver
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	// Config is used as is; when nil the config is loaded from --config before any command runs.
	Config     *shared.Config
	ConfigPath string
	Spotify    services.Service
	Store      cache.Store
	Scraper    daylist.PhraseScraper
	Driver     scraper.Driver
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	loadConfig := opts.Config == nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		loadConfig: loadConfig,
		spotify:    opts.Spotify,
		store:      opts.Store,
		scraper:    opts.Scraper,
		driver:     opts.Driver,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        opts.Now,
	}
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "spotbadge",
		Usage:   "Serve Spotify now-playing and daylist badges",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   r.configPath,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Before:   r.before,
		After:    r.after,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, trackCommand, whoamiCommand, playlistsCommand, daylistCommand, authCommand, setupCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.loadConfig {
		config, err := shared.Load(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	level := r.config.Logging.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	if level != "" && !shared.SetLogLevel(r.logger, level) {
		r.logger.Warn("unknown log level, keeping default", "level", level)
	}
	return ctx, nil
}

func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close releases the cache backend if one was opened.
func (r *Runner) Close() error {
	if r.store == nil {
		return nil
	}
	err := r.store.Close()
	r.store = nil
	return err
}

func (r *Runner) cacheStore(ctx context.Context) (cache.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	store, err := cache.Open(ctx, r.config.Cache, shared.WithLogger(r.logger, "component", "cache"))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	r.store = store
	return store, nil
}

func (r *Runner) spotifyService(ctx context.Context) (services.Service, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	store, err := r.cacheStore(ctx)
	if err != nil {
		return nil, err
	}

	creds := r.config.Credentials.Spotify
	logger := shared.WithLogger(r.logger, "component", "spotify")
	svc, err := services.NewSpotifyService(services.SpotifyOpts{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RefreshToken: creds.RefreshToken,
		HTTPClient:   r.httpClient,
		Cache:        cache.NewLoader(store, logger),
		Logger:       logger,
		Now:          r.now,
	})
	if err != nil {
		return nil, err
	}

	r.spotify = svc
	return svc, nil
}

// phraseScraper returns nil when live scraping is disabled.
func (r *Runner) phraseScraper() daylist.PhraseScraper {
	if r.scraper != nil {
		return r.scraper
	}
	if !r.config.Scraper.Enabled {
		return nil
	}
	return r.newScraper(r.config.Scraper)
}

func (r *Runner) newScraper(sc shared.ScraperConfig) *scraper.Scraper {
	driver := r.driver
	if driver == nil {
		driver = scraper.PlaywrightDriver{}
	}
	jar := scraper.NewCookieJar(sc.CookieFile, r.config.Credentials.Web.Cookies)
	return scraper.New(scraper.ConfigFrom(sc, r.config.Credentials.Web), driver, jar, shared.WithLogger(r.logger, "component", "scraper"))
}

func (r *Runner) daylistResolver(ctx context.Context) (*daylist.Resolver, error) {
	store, err := r.cacheStore(ctx)
	if err != nil {
		return nil, err
	}

	loc, err := r.config.Daylist.Location()
	if err != nil {
		return nil, err
	}

	opts := daylist.ResolverOpts{
		Store:             store,
		Location:          loc,
		TTL:               r.config.Daylist.TTL(),
		MinScrapeInterval: r.config.Scraper.MinInterval(),
		ResolveTimeout:    r.config.Daylist.ArtifactTimeout() + r.config.Scraper.Timeout(),
		Logger:            r.logger,
		Now:               r.now,
	}
	if url := r.config.Daylist.ArtifactURL; url != "" {
		opts.Artifact = daylist.NewArtifactFetcher(url, r.config.Daylist.ArtifactTimeout(), r.logger)
	}
	if s := r.phraseScraper(); s != nil {
		opts.Scraper = s
	}
	return daylist.NewResolver(opts), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeLines(lines ...string) error {
	for _, line := range lines {
		if err := r.writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}
