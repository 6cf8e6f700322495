package command

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	ErrNilCommand = errors.New("command is nil")
	ErrNoID       = errors.New("command has no id")
	ErrNoExec     = errors.New("command has no exec function")
)

// Notifier is told about registry changes.
type Notifier interface {
	Registered(c *Command)
	Removed(c *Command)
}

// LoadNotifier is implemented by notifiers that also want to hear about
// definitions Load rejected.
type LoadNotifier interface {
	LoadFailed(id string, err error)
}

type entry struct {
	cmd     *Command
	enabled bool
}

// Registry stores commands by ID in registration order. Trigger lookup
// returns the earliest registered enabled command carrying the trigger.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	entries  map[string]*entry
	notifier Notifier
}

// NewRegistry returns an empty registry. n may be nil.
func NewRegistry(n Notifier) *Registry {
	return &Registry{entries: make(map[string]*entry), notifier: n}
}

// Register inserts c or replaces the command with the same ID. A replaced
// command moves to the end of the lookup order.
func (r *Registry) Register(c *Command) error {
	switch {
	case c == nil:
		return ErrNilCommand
	case c.ID == "":
		return ErrNoID
	case c.Exec == nil:
		return fmt.Errorf("%s: %w", c.ID, ErrNoExec)
	}

	r.mu.Lock()
	if _, ok := r.entries[c.ID]; ok {
		r.order = slices.DeleteFunc(r.order, func(id string) bool { return id == c.ID })
	}
	r.entries[c.ID] = &entry{cmd: c, enabled: !c.Disabled}
	r.order = append(r.order, c.ID)
	r.mu.Unlock()

	if r.notifier != nil {
		r.notifier.Registered(c)
	}
	return nil
}

// LookupByTrigger returns the first enabled command with trigger t, or nil.
// Matching is case-sensitive.
func (r *Registry) LookupByTrigger(t string) *Command {
	if t == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		e := r.entries[id]
		if e.enabled && e.cmd.HasTrigger(t) {
			return e.cmd
		}
	}
	return nil
}

// Get returns the command with the given ID, or nil.
func (r *Registry) Get(id string) *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[id]; ok {
		return e.cmd
	}
	return nil
}

// Remove deletes the command. Rate-limit entries for it are left to expire.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
		r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	}
	r.mu.Unlock()

	if ok && r.notifier != nil {
		r.notifier.Removed(e.cmd)
	}
	return ok
}

// SetEnabled toggles whether the command can be matched.
func (r *Registry) SetEnabled(id string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if ok {
		e.enabled = enabled
	}
	return ok
}

// Enabled reports whether the command exists and is enabled.
func (r *Registry) Enabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return ok && e.enabled
}

// All returns every command in lookup order.
func (r *Registry) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*Command, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.entries[id].cmd)
	}
	return list
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Load registers everything l yields. The definition takes the declared id.
// A rejected definition is reported to the notifier and skipped; the rest
// still load. The returned error joins every rejection.
func (r *Registry) Load(l Loader) (int, error) {
	n := 0
	var errs []error
	err := l.Load(func(id string, def *Command) error {
		var err error
		if def == nil {
			err = fmt.Errorf("%s: %w", id, ErrNilCommand)
		} else {
			def.ID = id
			err = r.Register(def)
		}
		if err != nil {
			if ln, ok := r.notifier.(LoadNotifier); ok {
				ln.LoadFailed(id, err)
			}
			errs = append(errs, err)
			return nil
		}
		n++
		return nil
	})
	if err != nil {
		errs = append(errs, err)
	}
	return n, errors.Join(errs...)
}
