package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialDelay = 0
	cfg.RateLimitDelay = 0
	cfg.Jitter = false
	return cfg
}

func failing(errs ...error) (func(context.Context) error, *int) {
	calls := 0
	return func(context.Context) error {
		calls++
		if calls <= len(errs) {
			return errs[calls-1]
		}
		return nil
	}, &calls
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	var retries []int
	cfg := fastConfig()
	cfg.OnRetry = func(attempt int, _ error) { retries = append(retries, attempt) }

	fn, calls := failing(errors.New("reset"), statusErr(502))
	require.NoError(t, New(nil, cfg).Do(context.Background(), fn))
	assert.Equal(t, 3, *calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDo_StopsOnClientErrorAndFatal(t *testing.T) {
	r := New(nil, fastConfig())

	fn, calls := failing(fmt.Errorf("wrapped: %w", statusErr(403)))
	err := r.Do(context.Background(), fn)
	assert.Equal(t, 1, *calls)
	var sc StatusCoder
	require.ErrorAs(t, err, &sc)
	assert.Equal(t, 403, sc.StatusCode())

	boom := errors.New("boom")
	fn, calls = failing(Permanent(boom))
	assert.Equal(t, boom, r.Do(context.Background(), fn))
	assert.Equal(t, 1, *calls)

	assert.Nil(t, Permanent(nil))
}

func TestDo_TooManyRequestsIsRetried(t *testing.T) {
	lim := NewAdaptiveLimiter(10, 1, 20, 1, 0.5)
	fn, calls := failing(statusErr(429))
	require.NoError(t, New(lim, fastConfig()).Do(context.Background(), fn))
	assert.Equal(t, 2, *calls)
	assert.Equal(t, rate.Limit(5), lim.Limit())
}

func TestDo_AttemptsExhausted(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 3
	last := errors.New("still down")
	fn, calls := failing(last, last, last, last)

	err := New(nil, cfg).Do(context.Background(), fn)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.ErrorIs(t, err, last)
	assert.Equal(t, 3, *calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cfg := fastConfig()
	cfg.InitialDelay = time.Minute
	cfg.Clock = clock

	ctx, cancel := context.WithCancel(context.Background())
	fn, _ := failing(errors.New("x"), errors.New("x"))

	done := make(chan error, 1)
	go func() { done <- New(nil, cfg).Do(ctx, fn) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return")
	}
}

func TestAdaptiveLimiter(t *testing.T) {
	clock := clockwork.NewFakeClock()
	lim := NewAdaptiveLimiter(4, 1, 6, 1, 0.5).WithClock(clock)

	lim.Throttled()
	assert.Equal(t, rate.Limit(2), lim.Limit())

	lim.Success()
	assert.Equal(t, rate.Limit(2), lim.Limit(), "no increase during cooldown")

	clock.Advance(11 * time.Second)
	lim.Success()
	lim.Success()
	lim.Success()
	lim.Success()
	lim.Success()
	assert.Equal(t, rate.Limit(6), lim.Limit())

	for i := 0; i < 5; i++ {
		lim.Throttled()
	}
	assert.Equal(t, rate.Limit(1), lim.Limit())
}
