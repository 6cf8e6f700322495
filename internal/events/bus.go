package events

import (
	"log"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/keshon/server-herald/internal/command"
)

// Handler receives signals synchronously on the emitting goroutine.
type Handler func(Signal)

type subscription struct {
	names   []Name
	handler Handler
}

func (s subscription) wants(n Name) bool {
	return len(s.names) == 0 || slices.Contains(s.names, n)
}

// Bus fans signals out to subscribers. Safe for concurrent use.
type Bus struct {
	clock clockwork.Clock
	mu    sync.RWMutex
	subs  map[uint64]subscription
	next  uint64
}

// NewBus returns a bus stamping signals with clock; nil means the real clock.
func NewBus(clock clockwork.Clock) *Bus {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Bus{clock: clock, subs: make(map[uint64]subscription)}
}

// Subscribe registers h for the given names, or for every signal when none are given.
func (b *Bus) Subscribe(h Handler, names ...Name) (unsubscribe func()) {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs[id] = subscription{names: names, handler: h}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Channel delivers matching signals on a buffered channel. Signals are dropped
// when the buffer is full so a slow consumer never stalls dispatching.
func (b *Bus) Channel(size int, names ...Name) (<-chan Signal, func()) {
	ch := make(chan Signal, size)
	var mu sync.Mutex
	closed := false

	unsub := b.Subscribe(func(s Signal) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- s:
		default:
			log.Printf("[WARN] Signal %s dropped: subscriber buffer full", s.Name())
		}
	}, names...)

	return ch, func() {
		unsub()
		mu.Lock()
		if !closed {
			closed = true
			close(ch)
		}
		mu.Unlock()
	}
}

// Emit delivers p to every interested subscriber. A panicking subscriber is
// logged and skipped.
func (b *Bus) Emit(c *command.Context, p Payload) {
	s := Signal{
		ID:      uuid.NewString(),
		At:      b.clock.Now(),
		Context: c,
		Payload: p,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.wants(s.Name()) {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		deliver(h, s)
	}
}

func deliver(h Handler, s Signal) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERR] Signal subscriber for %s panicked: %v", s.Name(), r)
		}
	}()
	h(s)
}

// Registered implements command.Notifier.
func (b *Bus) Registered(c *command.Command) { b.Emit(nil, RegisteredEvent{Command: c}) }

// Removed implements command.Notifier.
func (b *Bus) Removed(c *command.Command) { b.Emit(nil, RemovedEvent{Command: c}) }

// LoadFailed implements command.LoadNotifier.
func (b *Bus) LoadFailed(id string, err error) { b.Emit(nil, LoadErrorEvent{ID: id, Err: err}) }
