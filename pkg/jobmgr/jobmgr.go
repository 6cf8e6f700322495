// Package jobmgr supervises named background loops: it starts them under a
// shared parent context, reports their lifecycle and waits for them on
// shutdown.
//
//	jm := jobmgr.NewManager(ctx, func(s jobmgr.Status) {
//	    log.Printf("[INFO] job %s: %s", s.Job, s.State)
//	})
//	_ = jm.Start("janitor", janitor.Run)
//	...
//	jm.Shutdown()
package jobmgr

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// State is a job lifecycle step.
type State string

const (
	Running State = "running"
	Done    State = "done"
	Failed  State = "failed"
)

// Status is reported on every lifecycle step. Err is set for Failed.
type Status struct {
	Job   string
	State State
	Err   error
}

// Reporter receives lifecycle statuses. It may be called from any goroutine.
type Reporter func(Status)

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager is safe for concurrent use.
type Manager struct {
	parent   context.Context
	reporter Reporter

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// NewManager returns a manager whose jobs are cancelled with parent.
// reporter may be nil.
func NewManager(parent context.Context, reporter Reporter) *Manager {
	return &Manager{parent: parent, reporter: reporter, jobs: make(map[string]*job)}
}

// Start runs runner in its own goroutine. Names are unique among running jobs.
func (m *Manager) Start(name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.jobs[name]; exists {
		return fmt.Errorf("job %q is already running", name)
	}

	ctx, cancel := context.WithCancel(m.parent)
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer close(j.done)
		defer cancel()

		m.report(Status{Job: name, State: Running})
		if err := runner(ctx); err != nil {
			m.report(Status{Job: name, State: Failed, Err: err})
		} else {
			m.report(Status{Job: name, State: Done})
		}

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()
	return nil
}

// Stop cancels a running job and waits for it to return.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	j, ok := m.jobs[name]
	if ok {
		delete(m.jobs, name)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %q not running", name)
	}
	j.cancel()
	<-j.done
	return nil
}

// Shutdown cancels every job and waits for all of them.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for name, j := range m.jobs {
		j.cancel()
		delete(m.jobs, name)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// List returns running job names, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Summary is a one-line description of running jobs.
func (m *Manager) Summary() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return "Running jobs: " + strings.Join(active, ", ")
}

func (m *Manager) report(s Status) {
	if m.reporter != nil {
		m.reporter(s)
	}
}
