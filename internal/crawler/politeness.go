package crawler

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// throttle enforces a fixed delay between consecutive fetches, shared by all
// workers of a crawl so concurrency never multiplies request pressure on the
// target site.
type throttle struct {
	limiter *rate.Limiter
}

func newThrottle(delay time.Duration) *throttle {
	if delay <= 0 {
		return &throttle{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &throttle{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next request slot opens or the context cancels.
func (t *throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
