// Package daylist resolves the account's current daylist phrase through a fallback chain:
// hour-bucket cache, then a prebuilt zip artifact, then a live browser scrape.
package daylist

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotbadge/internal/cache"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const keyPrefix = "daylist_"

// BucketKey names the cache slot for t: one per wall-clock hour in loc.
func BucketKey(t time.Time, loc *time.Location) string {
	return keyPrefix + t.In(loc).Format("2006-01-02_15")
}

// ArtifactSource fetches a phrase from a prebuilt artifact.
type ArtifactSource interface {
	Fetch(ctx context.Context) (string, error)
}

// PhraseScraper performs a live lookup. It never returns an error; failures are reported as ok=false.
type PhraseScraper interface {
	FindPhrase(ctx context.Context) (phrase string, ok bool)
}

// ResolverOpts configures a [Resolver]. Artifact and Scraper may be nil to skip that step.
type ResolverOpts struct {
	Store    cache.Store
	Artifact ArtifactSource
	Scraper  PhraseScraper
	Location *time.Location
	TTL      time.Duration
	// MinScrapeInterval throttles live scrapes; zero disables throttling.
	MinScrapeInterval time.Duration
	// ResolveTimeout bounds one shared resolution, which outlives the caller that started it.
	// Zero leaves each source to its own timeout.
	ResolveTimeout time.Duration
	Logger            *log.Logger
	Now               func() time.Time
}

// Resolver implements the daylist fallback chain.
type Resolver struct {
	store    cache.Store
	artifact ArtifactSource
	scraper  PhraseScraper
	loc      *time.Location
	ttl      time.Duration
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *log.Logger
	now      func() time.Time
	group    singleflight.Group
}

func NewResolver(opts ResolverOpts) *Resolver {
	if opts.Store == nil {
		opts.Store = cache.NewMemoryStore(opts.Now)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var limiter *rate.Limiter
	if opts.MinScrapeInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.MinScrapeInterval), 1)
	}

	return &Resolver{
		store:    opts.Store,
		artifact: opts.Artifact,
		scraper:  opts.Scraper,
		loc:      opts.Location,
		ttl:      opts.TTL,
		timeout:  opts.ResolveTimeout,
		limiter:  limiter,
		logger:   opts.Logger.With("component", "daylist"),
		now:      opts.Now,
	}
}

// Phrase returns the current daylist phrase, or ok=false when every source failed.
//
// Concurrent callers in the same hour bucket share one resolution. A caller whose ctx ends
// stops waiting with ok=false; the resolution keeps running for the others and fills the cache.
func (r *Resolver) Phrase(ctx context.Context) (string, bool) {
	key := BucketKey(r.now(), r.loc)
	if phrase, ok := r.cached(ctx, key); ok {
		return phrase, true
	}

	ch := r.group.DoChan(key, func() (any, error) {
		ctx, cancel := r.detach(ctx)
		defer cancel()

		if phrase, ok := r.cached(ctx, key); ok {
			return phrase, nil
		}

		phrase, source := r.resolve(ctx)
		if phrase == "" {
			r.logger.Warn("no daylist phrase available", "key", key)
			return "", nil
		}

		if err := r.store.Set(ctx, key, []byte(phrase), r.ttl); err != nil {
			r.logger.Warn("failed to cache daylist phrase", "key", key, "error", err)
		}
		r.logger.Info("resolved daylist phrase", "source", source, "key", key)
		return phrase, nil
	})

	select {
	case res := <-ch:
		phrase, _ := res.Val.(string)
		return phrase, phrase != ""
	case <-ctx.Done():
		r.logger.Debug("stopped waiting for daylist phrase", "key", key, "error", ctx.Err())
		return "", false
	}
}

func (r *Resolver) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if r.timeout > 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return context.WithCancel(ctx)
}

func (r *Resolver) cached(ctx context.Context, key string) (string, bool) {
	value, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("daylist cache read failed", "key", key, "error", err)
		return "", false
	}
	if !ok || len(value) == 0 {
		return "", false
	}
	return string(value), true
}

func (r *Resolver) resolve(ctx context.Context) (phrase, source string) {
	if r.artifact != nil {
		phrase, err := r.artifact.Fetch(ctx)
		if err == nil && phrase != "" {
			return phrase, "artifact"
		}
		r.logger.Info("artifact unavailable, falling back to scraper", "error", err)
	}

	if r.scraper == nil {
		return "", ""
	}
	if r.limiter != nil && !r.limiter.Allow() {
		r.logger.Info("live scrape throttled")
		return "", ""
	}

	if phrase, ok := r.scraper.FindPhrase(ctx); ok {
		return phrase, "scraper"
	}
	return "", ""
}
