package ratelimit

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Result reports the outcome of an attempt. ResetAt is the window end for
// both outcomes; Remaining is meaningful only when Allowed. Exceeded is set
// once the window's bucket has been used up.
type Result struct {
	Allowed   bool
	ResetAt   time.Time
	Remaining int
	Exceeded  bool
}

type key struct {
	target  string
	command string
}

type entry struct {
	remaining int
	exceeded  bool
	resetAt   time.Time
	timer     clockwork.Timer
	gen       uint64
}

// Engine holds one bucket per (target, command). Entries drop themselves
// when their window elapses.
type Engine struct {
	clock   clockwork.Clock
	mu      sync.Mutex
	entries map[key]*entry
	gen     uint64
}

// NewEngine returns an engine driven by clock; nil means the real clock.
func NewEngine(clock clockwork.Clock) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{clock: clock, entries: make(map[key]*entry)}
}

// Attempt consumes one unit of the bucket for (targetID, commandID).
func (e *Engine) Attempt(targetID, commandID string, p Policy) Result {
	p = p.normalized()
	if p.Bucket < 1 {
		return Result{ResetAt: e.clock.Now().Add(p.Reset)}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	k := key{targetID, commandID}
	ent, ok := e.entries[k]
	if ok && !ent.resetAt.After(now) {
		ent.timer.Stop()
		delete(e.entries, k)
		ok = false
	}
	if !ok {
		ent = &entry{remaining: p.Bucket, resetAt: now.Add(p.Reset)}
		e.entries[k] = ent
		e.schedule(k, ent)
	}

	if ent.remaining > 0 {
		ent.remaining--
		ent.exceeded = ent.remaining == 0
		return Result{Allowed: true, ResetAt: ent.resetAt, Remaining: ent.remaining, Exceeded: ent.exceeded}
	}

	if p.Stack {
		ent.resetAt = ent.resetAt.Add(p.Reset)
		ent.timer.Stop()
		e.schedule(k, ent)
	}
	ent.exceeded = true
	return Result{ResetAt: ent.resetAt, Exceeded: true}
}

// Peek returns the current entry without consuming from it.
func (e *Engine) Peek(targetID, commandID string) (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.entries[key{targetID, commandID}]
	if !ok || !ent.resetAt.After(e.clock.Now()) {
		return Result{}, false
	}
	return Result{Allowed: ent.remaining > 0, ResetAt: ent.resetAt, Remaining: ent.remaining, Exceeded: ent.exceeded}, true
}

// Len is the number of live entries.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// Close stops every pending expiry and clears the table.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, ent := range e.entries {
		ent.timer.Stop()
		delete(e.entries, k)
	}
}

// schedule arms the expiry for ent. Caller holds e.mu.
func (e *Engine) schedule(k key, ent *entry) {
	e.gen++
	gen := e.gen
	ent.gen = gen
	ent.timer = e.clock.AfterFunc(ent.resetAt.Sub(e.clock.Now()), func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if cur, ok := e.entries[k]; ok && cur.gen == gen {
			delete(e.entries, k)
		}
	})
}
