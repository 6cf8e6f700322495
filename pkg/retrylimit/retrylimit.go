// Package retrylimit paces outbound platform calls with an adaptive rate
// limiter and retries them with backoff.
//
//	r := retrylimit.New(retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5), retrylimit.DefaultConfig())
//	err := r.Do(ctx, func(ctx context.Context) error {
//	    return send(ctx)
//	})
package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// AdaptiveLimiter raises its rate after quiet successes and cuts it on
// throttling or server errors.
type AdaptiveLimiter struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	limiter   *rate.Limiter
	minLimit  rate.Limit
	maxLimit  rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	cooldown  time.Duration
	lastError time.Time
}

// NewAdaptiveLimiter starts at initial requests per second, moving within
// [min, max] by +stepUp on success and *stepDown on failure.
func NewAdaptiveLimiter(initial, min, max, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	initial = clampLimit(initial, min, max)
	return &AdaptiveLimiter{
		clock:    clockwork.NewRealClock(),
		limiter:  rate.NewLimiter(initial, burstFor(initial)),
		minLimit: min,
		maxLimit: max,
		stepUp:   stepUp,
		stepDown: stepDown,
		cooldown: 10 * time.Second,
	}
}

// WithClock replaces the clock used for the post-error cooldown.
func (a *AdaptiveLimiter) WithClock(c clockwork.Clock) *AdaptiveLimiter {
	a.mu.Lock()
	a.clock = c
	a.mu.Unlock()
	return a
}

// Wait blocks until a token is available or ctx ends.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success raises the rate unless an error was seen within the cooldown.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.clock.Since(a.lastError) > a.cooldown {
		a.setLimit(a.limiter.Limit() + a.stepUp)
	}
}

// Throttled cuts the rate.
func (a *AdaptiveLimiter) Throttled() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = a.clock.Now()
	a.setLimit(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// Limit is the current rate in requests per second.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.limiter.Limit()
}

func (a *AdaptiveLimiter) setLimit(l rate.Limit) {
	l = clampLimit(l, a.minLimit, a.maxLimit)
	if l != a.limiter.Limit() {
		a.limiter.SetLimit(l)
		a.limiter.SetBurst(burstFor(l))
	}
}

func clampLimit(l, min, max rate.Limit) rate.Limit {
	switch {
	case l < min:
		return min
	case l > max:
		return max
	}
	return l
}

func burstFor(l rate.Limit) int { return max(1, int(l)) }

// FatalError stops retrying immediately.
type FatalError struct {
	Err error
}

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Unwrap() error { return f.Err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// StatusFunc extracts an HTTP status code from an error.
type StatusFunc func(error) (int, bool)

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// DefaultStatus finds a StatusCoder anywhere in the error chain.
func DefaultStatus(err error) (int, bool) {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode(), true
	}
	return 0, false
}

type Config struct {
	// MaxAttempts includes the first call. Zero means 5.
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	RateLimitDelay time.Duration
	Multiplier     float64
	Jitter         bool
	// Status classifies errors; nil means DefaultStatus.
	Status StatusFunc
	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, err error)
	Clock   clockwork.Clock
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    5,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       10 * time.Second,
		RateLimitDelay: time.Second,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// ErrAttemptsExhausted wraps the last error once MaxAttempts is reached.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Retrier runs calls through a limiter with retries.
type Retrier struct {
	lim *AdaptiveLimiter
	cfg Config
}

// New returns a Retrier. lim may be nil to retry without pacing.
func New(lim *AdaptiveLimiter, cfg Config) *Retrier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	if cfg.Status == nil {
		cfg.Status = DefaultStatus
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Retrier{lim: lim, cfg: cfg}
}

// Do calls fn until it succeeds, returns a FatalError, a 4xx other than 429,
// ctx ends, or attempts run out.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	delay := r.cfg.InitialDelay
	var err error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if r.lim != nil {
			if werr := r.lim.Wait(ctx); werr != nil {
				return werr
			}
		}

		err = fn(ctx)
		if err == nil {
			if r.lim != nil {
				r.lim.Success()
			}
			if attempt > 1 {
				log.Printf("[INFO] Request succeeded after %d attempts", attempt)
			}
			return nil
		}

		var fatal *FatalError
		if errors.As(err, &fatal) {
			return fatal.Err
		}

		status, hasStatus := r.cfg.Status(err)
		if hasStatus && status >= 400 && status < 500 && status != http.StatusTooManyRequests {
			return err
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}
		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(attempt, err)
		}

		wait := delay
		switch {
		case hasStatus && status == http.StatusTooManyRequests:
			if r.lim != nil {
				r.lim.Throttled()
			}
			wait = r.cfg.RateLimitDelay
			log.Printf("[WARN] Rate limited (attempt %d), retrying in %s", attempt, wait)
		case hasStatus && status >= 500:
			if r.lim != nil {
				r.lim.Throttled()
			}
			log.Printf("[WARN] Server error (attempt %d): %v, retrying in %s", attempt, err, wait)
		default:
			log.Printf("[WARN] Request failed (attempt %d): %v, retrying in %s", attempt, err, wait)
		}
		if r.cfg.Jitter {
			wait = addJitter(wait)
		}

		if serr := r.sleep(ctx, wait); serr != nil {
			return serr
		}
		delay = min(time.Duration(float64(delay)*r.cfg.Multiplier), r.cfg.MaxDelay)
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, r.cfg.MaxAttempts, err)
}

func (r *Retrier) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := r.cfg.Clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Chan():
		return nil
	}
}

// addJitter adds up to 25% to d.
func addJitter(d time.Duration) time.Duration {
	if d < 4 {
		return d
	}
	return d + rand.N(d/4)
}
