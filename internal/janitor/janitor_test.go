package janitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/server-herald/internal/dispatch"
	"github.com/keshon/server-herald/internal/platform"
)

type countingJob struct {
	shifts atomic.Int32
	n      int
	err    error
}

func (j *countingJob) Name() string { return "counting" }
func (j *countingJob) Shift(context.Context) (int, error) {
	j.shifts.Add(1)
	return j.n, j.err
}

func TestJanitor_RunOnce(t *testing.T) {
	jn := New(time.Minute, clockwork.NewFakeClock())
	a := &countingJob{n: 2}
	b := &countingJob{err: errors.New("disk full")}
	c := &countingJob{n: 3}
	jn.Add(a)
	jn.Add(b)
	jn.Add(c)

	assert.Equal(t, 5, jn.RunOnce(context.Background()))
	assert.EqualValues(t, 1, b.shifts.Load())
	assert.EqualValues(t, 1, c.shifts.Load())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, 0, jn.RunOnce(ctx))
}

func TestJanitor_RunTicks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	jn := New(time.Minute, clock)
	job := &countingJob{}
	jn.Add(job)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- jn.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	assert.Eventually(t, func() bool { return job.shifts.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestContextJob_Sweep(t *testing.T) {
	clock := clockwork.NewFakeClock()
	now := clock.Now()
	store := dispatch.NewContextStore(nil)

	store.Acquire(&platform.Message{ID: "old", CreatedAt: now.Add(-2 * time.Hour)})
	store.Acquire(&platform.Message{ID: "fresh", CreatedAt: now.Add(-time.Minute)})
	store.Acquire(&platform.Message{ID: "edited", CreatedAt: now.Add(-2 * time.Hour), EditedAt: now.Add(-time.Minute)})

	job := NewContextJob(store, 30*time.Minute, clock)
	n, err := job.Shift(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok := store.Get("old")
	assert.False(t, ok)
	assert.Equal(t, 2, store.Len())

	clock.Advance(time.Hour)
	n, _ = job.Shift(context.Background())
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, store.Len())
}

func TestContextJob_Inert(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := dispatch.NewContextStore(nil)
	store.Acquire(&platform.Message{ID: "ancient", CreatedAt: clock.Now().Add(-24 * 365 * time.Hour)})

	for _, lifetime := range []time.Duration{0, -time.Second} {
		job := NewContextJob(store, lifetime, clock)
		assert.True(t, job.Inert())
		n, err := job.Shift(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	}
	assert.Equal(t, 1, store.Len())
}
