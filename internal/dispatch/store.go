package dispatch

import (
	"sync"

	"github.com/keshon/server-herald/internal/command"
	"github.com/keshon/server-herald/internal/platform"
)

// ContextStore holds one Context per message ID.
type ContextStore struct {
	client platform.Client
	mu     sync.Mutex
	items  map[string]*command.Context
}

func NewContextStore(client platform.Client) *ContextStore {
	return &ContextStore{client: client, items: make(map[string]*command.Context)}
}

// Acquire returns the context for m.ID, creating it on first use. An existing
// context is updated to carry m.
func (s *ContextStore) Acquire(m *platform.Message) *command.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.items[m.ID]; ok {
		c.SetMessage(m)
		return c
	}
	c := command.NewContext(s.client, m)
	s.items[m.ID] = c
	return c
}

func (s *ContextStore) Get(messageID string) (*command.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[messageID]
	return c, ok
}

func (s *ContextStore) Delete(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[messageID]
	delete(s.items, messageID)
	return ok
}

func (s *ContextStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep deletes every context for which evict returns true and reports how
// many were removed.
func (s *ContextStore) Sweep(evict func(*command.Context) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, c := range s.items {
		if evict(c) {
			delete(s.items, id)
			n++
		}
	}
	return n
}
