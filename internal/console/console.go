// Package console is a line-oriented platform client for local runs: each
// input line becomes a message from a single configured user and replies are
// written to the output.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/keshon/server-herald/internal/platform"
)

const SelfID = "console-bot"

type Options struct {
	UserID   string
	UserName string
	// GuildID empty means every line arrives as a direct message.
	GuildID      string
	GuildOwnerID string
	ChannelID    string
	// Permissions zero means administrator.
	Permissions platform.Permissions
	Clock       clockwork.Clock
}

func DefaultOptions() Options {
	return Options{
		UserID:      "console-user",
		UserName:    "console",
		ChannelID:   "console",
		Permissions: platform.PermAdministrator,
	}
}

type Console struct {
	opts Options
	out  io.Writer

	mu       sync.Mutex // guards out and seq
	seq      int
	hmu      sync.RWMutex
	handlers map[int]platform.EventHandler
	nextID   int
}

var (
	_ platform.Client      = (*Console)(nil)
	_ platform.EventSource = (*Console)(nil)
)

func New(out io.Writer, opts Options) *Console {
	def := DefaultOptions()
	if opts.UserID == "" {
		opts.UserID = def.UserID
	}
	if opts.UserName == "" {
		opts.UserName = def.UserName
	}
	if opts.ChannelID == "" {
		opts.ChannelID = def.ChannelID
	}
	if opts.Permissions == 0 {
		opts.Permissions = def.Permissions
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Console{opts: opts, out: out, handlers: make(map[int]platform.EventHandler)}
}

func (c *Console) SelfID() string { return SelfID }

func (c *Console) MemberPermissions(_ context.Context, _, _, userID string) (platform.Permissions, error) {
	if userID == SelfID {
		return platform.PermAdministrator, nil
	}
	return c.opts.Permissions, nil
}

func (c *Console) StartTyping(context.Context, string) (func(), error) {
	return func() {}, nil
}

func (c *Console) Reply(_ context.Context, _ string, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, content)
	return err
}

func (c *Console) Subscribe(h platform.EventHandler) func() {
	c.hmu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = h
	c.hmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.hmu.Lock()
			delete(c.handlers, id)
			c.hmu.Unlock()
		})
	}
}

// Send delivers one line as a new message and returns it.
func (c *Console) Send(ctx context.Context, content string) *platform.Message {
	m := c.message(content)
	for _, h := range c.snapshot() {
		h.MessageCreated(ctx, m)
	}
	return m
}

// Edit delivers an edit of a previously sent message.
func (c *Console) Edit(ctx context.Context, old *platform.Message, content string) *platform.Message {
	updated := *old
	updated.Content = content
	updated.EditedAt = c.opts.Clock.Now()
	for _, h := range c.snapshot() {
		h.MessageUpdated(ctx, old, &updated)
	}
	return &updated
}

// Feed sends each non-blank line of r until EOF or ctx ends.
func (c *Console) Feed(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		c.Send(ctx, line)
	}
	return sc.Err()
}

func (c *Console) message(content string) *platform.Message {
	c.mu.Lock()
	c.seq++
	id := strconv.Itoa(c.seq)
	c.mu.Unlock()

	ct := platform.ChannelDM
	if c.opts.GuildID != "" {
		ct = platform.ChannelGuild
	}
	return &platform.Message{
		ID:           id,
		Content:      content,
		AuthorID:     c.opts.UserID,
		AuthorName:   c.opts.UserName,
		ChannelID:    c.opts.ChannelID,
		ChannelType:  ct,
		GuildID:      c.opts.GuildID,
		GuildOwnerID: c.opts.GuildOwnerID,
		CreatedAt:    c.opts.Clock.Now(),
	}
}

func (c *Console) snapshot() []platform.EventHandler {
	c.hmu.RLock()
	defer c.hmu.RUnlock()
	hs := make([]platform.EventHandler, 0, len(c.handlers))
	for _, h := range c.handlers {
		hs = append(hs, h)
	}
	return hs
}
