package generation

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum interval between consecutive model calls across
// all requests in the process.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a pacer spacing calls by interval. A non-positive
// interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call may proceed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
