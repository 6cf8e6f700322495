// Package janitor runs periodic housekeeping jobs.
package janitor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Job is one housekeeping task. Shift does a single pass and reports how many
// items it reclaimed.
type Job interface {
	Name() string
	Shift(ctx context.Context) (int, error)
}

type Janitor struct {
	clock    clockwork.Clock
	interval time.Duration

	mu   sync.Mutex
	jobs []Job
}

// New returns a janitor running its jobs every interval.
func New(interval time.Duration, clock clockwork.Clock) *Janitor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{clock: clock, interval: interval}
}

func (j *Janitor) Add(job Job) {
	j.mu.Lock()
	j.jobs = append(j.jobs, job)
	j.mu.Unlock()
}

// RunOnce runs every job once and returns the total reclaimed. A failing job
// is logged and does not stop the others.
func (j *Janitor) RunOnce(ctx context.Context) int {
	j.mu.Lock()
	jobs := append([]Job(nil), j.jobs...)
	j.mu.Unlock()

	total := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		n, err := job.Shift(ctx)
		if err != nil {
			log.Printf("[ERR] Janitor job %s failed: %v", job.Name(), err)
			continue
		}
		total += n
	}
	return total
}

// Run ticks until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := j.clock.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			j.RunOnce(ctx)
		}
	}
}
