package command

import (
	"context"
	"sync"

	"github.com/keshon/server-herald/internal/platform"
)

// Invocation is what matching produced for a message.
type Invocation struct {
	Prefix  string
	Invoke  string
	Tokens  []string
	Command *Command
}

// Context is the per-message state shared by every pipeline pass over that
// message, edits included.
type Context struct {
	Client platform.Client

	mu      sync.RWMutex
	message *platform.Message
	current *Invocation
}

func NewContext(client platform.Client, m *platform.Message) *Context {
	return &Context{Client: client, message: m}
}

// Message is the latest known version of the originating message.
func (c *Context) Message() *platform.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.message
}

// SetMessage replaces the message after an edit.
func (c *Context) SetMessage(m *platform.Message) {
	c.mu.Lock()
	c.message = m
	c.mu.Unlock()
}

// Current is the last successful match, or nil.
func (c *Context) Current() *Invocation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Context) SetCurrent(inv *Invocation) {
	c.mu.Lock()
	c.current = inv
	c.mu.Unlock()
}

// Reply sends content to the channel the message came from.
func (c *Context) Reply(ctx context.Context, content string) error {
	return c.Client.Reply(ctx, c.Message().ChannelID, content)
}
