package events

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"sync/atomic"
)

var (
	ErrNilListener    = errors.New("listener is nil")
	ErrNoListenerID   = errors.New("listener has no id")
	ErrNoListenerExec = errors.New("listener has no exec function")
)

// Listener reacts to bus signals. Names empty means every signal. A Once
// listener removes itself after its first delivery. An error or panic from
// Exec is reported as a listenerError signal.
type Listener struct {
	ID       string
	Names    []Name
	Once     bool
	Disabled bool
	Exec     func(s Signal) error
}

// ListenerLoader yields listener definitions, one call per definition.
type ListenerLoader interface {
	Load(register func(id string, def *Listener) error) error
}

// ListenerLoaderFunc adapts a function to ListenerLoader.
type ListenerLoaderFunc func(register func(id string, def *Listener) error) error

func (f ListenerLoaderFunc) Load(register func(id string, def *Listener) error) error {
	return f(register)
}

// StaticListeners yields a fixed list of listeners under their own IDs.
type StaticListeners []*Listener

func (s StaticListeners) Load(register func(id string, def *Listener) error) error {
	for _, l := range s {
		if l == nil {
			continue
		}
		if err := register(l.ID, l); err != nil {
			return fmt.Errorf("load listener %q: %w", l.ID, err)
		}
	}
	return nil
}

type listenerEntry struct {
	l       *Listener
	enabled atomic.Bool
	fired   atomic.Bool
	unsub   func()
}

// Listeners keeps listeners subscribed on a bus by ID.
type Listeners struct {
	bus     *Bus
	mu      sync.Mutex
	order   []string
	entries map[string]*listenerEntry
}

func NewListeners(bus *Bus) *Listeners {
	return &Listeners{bus: bus, entries: make(map[string]*listenerEntry)}
}

// Register subscribes l, replacing any listener with the same ID.
func (ls *Listeners) Register(l *Listener) error {
	switch {
	case l == nil:
		return ErrNilListener
	case l.ID == "":
		return ErrNoListenerID
	case l.Exec == nil:
		return fmt.Errorf("%s: %w", l.ID, ErrNoListenerExec)
	}

	ent := &listenerEntry{l: l}
	ent.enabled.Store(!l.Disabled)
	ent.unsub = ls.bus.Subscribe(func(s Signal) { ls.run(ent, s) }, l.Names...)

	ls.mu.Lock()
	old, ok := ls.entries[l.ID]
	if ok {
		ls.order = slices.DeleteFunc(ls.order, func(id string) bool { return id == l.ID })
	}
	ls.entries[l.ID] = ent
	ls.order = append(ls.order, l.ID)
	ls.mu.Unlock()

	if ok {
		old.unsub()
	}
	return nil
}

func (ls *Listeners) run(ent *listenerEntry, s Signal) {
	if !ent.enabled.Load() {
		return
	}
	if ent.l.Once {
		if ent.fired.Swap(true) {
			return
		}
		defer ls.drop(ent)
	}

	err := invoke(ent.l, s)
	if err == nil {
		return
	}
	if s.Name() == ListenerError {
		log.Printf("[ERR] Listener %s failed on %s: %v", ent.l.ID, s.Name(), err)
		return
	}
	ls.bus.Emit(s.Context, ListenerErrorEvent{Listener: ent.l, Signal: s.Name(), Err: err})
}

func invoke(l *Listener, s Signal) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener %s panicked: %v", l.ID, r)
		}
	}()
	return l.Exec(s)
}

// drop removes ent if it is still the registered entry for its ID.
func (ls *Listeners) drop(ent *listenerEntry) {
	ls.mu.Lock()
	if cur, ok := ls.entries[ent.l.ID]; ok && cur == ent {
		delete(ls.entries, ent.l.ID)
		ls.order = slices.DeleteFunc(ls.order, func(id string) bool { return id == ent.l.ID })
	}
	ls.mu.Unlock()
	ent.unsub()
}

// Remove unsubscribes the listener.
func (ls *Listeners) Remove(id string) bool {
	ls.mu.Lock()
	ent, ok := ls.entries[id]
	if ok {
		delete(ls.entries, id)
		ls.order = slices.DeleteFunc(ls.order, func(s string) bool { return s == id })
	}
	ls.mu.Unlock()

	if ok {
		ent.unsub()
	}
	return ok
}

// SetEnabled toggles delivery without unsubscribing.
func (ls *Listeners) SetEnabled(id string, enabled bool) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ent, ok := ls.entries[id]
	if ok {
		ent.enabled.Store(enabled)
	}
	return ok
}

func (ls *Listeners) Enabled(id string) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ent, ok := ls.entries[id]
	return ok && ent.enabled.Load()
}

// All returns the listeners in registration order.
func (ls *Listeners) All() []*Listener {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	list := make([]*Listener, 0, len(ls.order))
	for _, id := range ls.order {
		list = append(list, ls.entries[id].l)
	}
	return list
}

func (ls *Listeners) Len() int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return len(ls.order)
}

// Load registers everything l yields under the declared ids. Rejected
// definitions are emitted as loadError and skipped.
func (ls *Listeners) Load(l ListenerLoader) (int, error) {
	n := 0
	var errs []error
	err := l.Load(func(id string, def *Listener) error {
		var err error
		if def == nil {
			err = fmt.Errorf("%s: %w", id, ErrNilListener)
		} else {
			def.ID = id
			err = ls.Register(def)
		}
		if err != nil {
			ls.bus.LoadFailed(id, err)
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

// Close unsubscribes every listener.
func (ls *Listeners) Close() {
	ls.mu.Lock()
	entries := ls.entries
	ls.entries = make(map[string]*listenerEntry)
	ls.order = nil
	ls.mu.Unlock()

	for _, ent := range entries {
		ent.unsub()
	}
}
