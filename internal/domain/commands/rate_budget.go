package commands

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseBackoff = 2 * time.Second
	defaultMaxBackoff  = time.Minute
)

// RateBudget is the request budget shared by every concurrent history fetch.
// A rate-limit answer from the source host pauses all callers, not only the
// one that received it.
type RateBudget struct {
	limiter     *rate.Limiter
	baseBackoff time.Duration
	maxBackoff  time.Duration

	mu          sync.Mutex
	pausedUntil time.Time
}

// RateBudgetOption configures a RateBudget.
type RateBudgetOption func(*RateBudget)

// WithBackoff sets the first retry delay and its upper bound.
func WithBackoff(base, maxDelay time.Duration) RateBudgetOption {
	return func(b *RateBudget) {
		b.baseBackoff = base
		b.maxBackoff = maxDelay
	}
}

// NewRateBudget allows requestsPerSecond requests per second with the given
// burst. A non-positive rate disables throttling.
func NewRateBudget(requestsPerSecond float64, burst int, opts ...RateBudgetOption) *RateBudget {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}

	budget := &RateBudget{
		limiter:     rate.NewLimiter(limit, burst),
		baseBackoff: defaultBaseBackoff,
		maxBackoff:  defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(budget)
	}
	return budget
}

// Wait blocks until a pause is over and a request token is available.
func (b *RateBudget) Wait(ctx context.Context) error {
	if delay := b.pauseRemaining(); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return b.limiter.Wait(ctx)
}

// Backoff pauses every caller after a rate-limit answer. The pause is the
// larger of retryAfter and an exponential delay for the attempt, capped at the
// maximum backoff. It returns the pause applied.
func (b *RateBudget) Backoff(retryAfter time.Duration, attempt int) time.Duration {
	delay := b.baseBackoff
	for range attempt {
		if delay >= b.maxBackoff {
			break
		}
		delay *= 2
	}
	if retryAfter > delay {
		delay = retryAfter
	}
	if delay > b.maxBackoff {
		delay = b.maxBackoff
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if until := time.Now().Add(delay); until.After(b.pausedUntil) {
		b.pausedUntil = until
	}
	return delay
}

func (b *RateBudget) pauseRemaining() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Until(b.pausedUntil)
}
