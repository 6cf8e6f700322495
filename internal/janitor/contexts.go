package janitor

import (
	"context"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/keshon/server-herald/internal/command"
	"github.com/keshon/server-herald/internal/logging"
)

// ContextStore is the part of the dispatcher's context store the sweep needs.
type ContextStore interface {
	Sweep(evict func(*command.Context) bool) int
}

// ContextJob evicts contexts whose message is older than lifetime, measured
// from the last edit or else creation. A non-positive lifetime makes it inert.
type ContextJob struct {
	store    ContextStore
	lifetime time.Duration
	clock    clockwork.Clock
}

func NewContextJob(store ContextStore, lifetime time.Duration, clock clockwork.Clock) *ContextJob {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	j := &ContextJob{store: store, lifetime: lifetime, clock: clock}
	if j.Inert() {
		log.Printf("[INFO] Context sweep disabled: lifetime %s is unlimited", lifetime)
	}
	return j
}

func (j *ContextJob) Name() string { return "contexts" }

func (j *ContextJob) Inert() bool { return j.lifetime <= 0 }

func (j *ContextJob) Shift(context.Context) (int, error) {
	if j.Inert() {
		return 0, nil
	}
	now := j.clock.Now()
	n := j.store.Sweep(func(c *command.Context) bool {
		return now.Sub(c.Message().Timestamp()) > j.lifetime
	})
	logging.Debugf("Swept %d contexts", n)
	return n, nil
}
