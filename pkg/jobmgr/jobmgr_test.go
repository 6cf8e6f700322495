package jobmgr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusLog struct {
	mu   sync.Mutex
	list []Status
}

func (l *statusLog) add(s Status) {
	l.mu.Lock()
	l.list = append(l.list, s)
	l.mu.Unlock()
}

func (l *statusLog) states(job string) []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []State
	for _, s := range l.list {
		if s.Job == job {
			out = append(out, s.State)
		}
	}
	return out
}

func blockUntilCancelled(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func TestManager_StartStop(t *testing.T) {
	log := &statusLog{}
	m := NewManager(context.Background(), log.add)

	require.NoError(t, m.Start("janitor", blockUntilCancelled))
	assert.Error(t, m.Start("janitor", blockUntilCancelled))
	assert.Equal(t, []string{"janitor"}, m.List())
	assert.Equal(t, "Running jobs: janitor", m.Summary())

	require.NoError(t, m.Stop("janitor"))
	assert.Error(t, m.Stop("janitor"))
	assert.Empty(t, m.List())
	assert.Equal(t, "No jobs are running.", m.Summary())
	assert.Equal(t, []State{Running, Done}, log.states("janitor"))
}

func TestManager_FailedJobIsRemoved(t *testing.T) {
	log := &statusLog{}
	m := NewManager(context.Background(), log.add)
	boom := errors.New("boom")

	require.NoError(t, m.Start("bad", func(context.Context) error { return boom }))
	assert.Eventually(t, func() bool { return len(m.List()) == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []State{Running, Failed}, log.states("bad"))

	require.NoError(t, m.Start("bad", func(context.Context) error { return nil }))
	m.Shutdown()
}

func TestManager_ShutdownFollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	m := NewManager(parent, nil)
	require.NoError(t, m.Start("a", blockUntilCancelled))
	require.NoError(t, m.Start("b", blockUntilCancelled))

	cancel()
	done := make(chan struct{})
	go func() {
		m.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown did not finish")
	}
	assert.Empty(t, m.List())
}
