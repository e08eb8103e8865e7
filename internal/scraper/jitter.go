package scraper

import (
	"context"
	"math/rand/v2"
	"time"
)

// Jitter is a randomized pause in [Min, Max). The zero value never sleeps.
type Jitter struct {
	Min time.Duration
	Max time.Duration
}

// Next draws a pause duration.
func (j Jitter) Next() time.Duration {
	if j.Max <= 0 {
		return 0
	}
	if j.Max <= j.Min {
		return j.Min
	}
	return j.Min + rand.N(j.Max-j.Min)
}

// Sleep pauses for [Jitter.Next] or until ctx is done.
func (j Jitter) Sleep(ctx context.Context) error {
	d := j.Next()
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
