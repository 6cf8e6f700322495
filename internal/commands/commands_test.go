package commands

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/server-herald/internal/command"
	"github.com/keshon/server-herald/internal/datastore"
	"github.com/keshon/server-herald/internal/dispatch"
	"github.com/keshon/server-herald/internal/events"
	"github.com/keshon/server-herald/internal/platform"
	"github.com/keshon/server-herald/internal/ratelimit"
	"github.com/keshon/server-herald/internal/storage"
)

type chatClient struct {
	perms   map[string]platform.Permissions
	replies []string
}

func (c *chatClient) SelfID() string { return "bot" }
func (c *chatClient) MemberPermissions(_ context.Context, _, _, userID string) (platform.Permissions, error) {
	return c.perms[userID], nil
}
func (c *chatClient) StartTyping(context.Context, string) (func(), error) { return func() {}, nil }
func (c *chatClient) Reply(_ context.Context, _, content string) error {
	c.replies = append(c.replies, content)
	return nil
}

func (c *chatClient) last(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, c.replies)
	return c.replies[len(c.replies)-1]
}

type bot struct {
	clock  *clockwork.FakeClock
	client *chatClient
	store  *storage.Storage
	d      *dispatch.Dispatcher
	seq    int
}

func newBot(t *testing.T) *bot {
	clock := clockwork.NewFakeClock()
	client := &chatClient{perms: map[string]platform.Permissions{"admin": platform.PermManageGuild}}

	ds, err := datastore.Open(datastore.DefaultConfig(filepath.Join(t.TempDir(), "store.json")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })
	st := storage.New(ds)

	bus := events.NewBus(clock)
	require.NoError(t, events.NewListeners(bus).Register(storage.HistoryListener(st)))
	reg := command.NewRegistry(bus)

	prefixes := Prefixes(st, []string{"!"})
	opts := dispatch.DefaultOptions()
	opts.Passive = true
	opts.Clock = clock
	opts.PrefixFunc = prefixes
	opts.DefaultPolicy = ratelimit.MustPolicy("user:100/1s")
	d, err := dispatch.New(reg, bus, client, opts)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	n, err := reg.Load(Loader(Deps{Registry: reg, Storage: st, Prefixes: prefixes, Clock: clock}))
	require.NoError(t, err)
	require.Equal(t, 4, n)

	return &bot{clock: clock, client: client, store: st, d: d}
}

func (b *bot) say(author, content string) dispatch.Outcome {
	b.seq++
	return b.d.Handle(context.Background(), &platform.Message{
		ID:          "m" + strconv.Itoa(b.seq),
		Content:     content,
		AuthorID:    author,
		AuthorName:  author,
		ChannelID:   "general",
		ChannelType: platform.ChannelGuild,
		GuildID:     "g1",
		CreatedAt:   b.clock.Now().Add(-42 * time.Millisecond),
	})
}

func TestPing(t *testing.T) {
	b := newBot(t)
	assert.Equal(t, dispatch.OutcomeFinished, b.say("u", "!ping"))
	assert.Equal(t, "Pong! (42ms)", b.client.last(t))
}

func TestHelp(t *testing.T) {
	b := newBot(t)

	assert.Equal(t, dispatch.OutcomeFinished, b.say("u", "!help"))
	out := b.client.last(t)
	assert.Contains(t, out, "**General**")
	assert.Contains(t, out, "`!ping` Check that the bot is alive")
	assert.Contains(t, out, "`!history`")

	b.say("u", "!h prefix")
	out = b.client.last(t)
	assert.Contains(t, out, "**!prefix**: Show or change the command prefix")
	assert.Contains(t, out, "Usage: `!prefix [set <prefix> | reset]`")
	assert.Contains(t, out, "Channels: guild-only")

	b.say("u", "!help nope")
	assert.Equal(t, "No command called `nope`.", b.client.last(t))
}

func TestHistory(t *testing.T) {
	b := newBot(t)

	assert.Equal(t, dispatch.OutcomeMissingPermissions, b.say("u", "!history"))

	assert.Equal(t, dispatch.OutcomeFinished, b.say("admin", "!history"))
	assert.Equal(t, "No commands recorded yet.", b.client.last(t))

	b.say("u", "!ping")
	// history allows two uses per guild every ten seconds.
	b.clock.Advance(10 * time.Second)
	assert.Equal(t, dispatch.OutcomeFinished, b.say("admin", "!history"))
	out := b.client.last(t)
	assert.Contains(t, out, "Recent commands:")
	assert.Contains(t, out, "history by admin in <#general>")
	assert.Contains(t, out, "ping by u")
}

func TestPrefix(t *testing.T) {
	b := newBot(t)

	b.say("u", "!prefix")
	assert.Equal(t, "Current prefix: `!`", b.client.last(t))

	assert.Equal(t, dispatch.OutcomeMissingPermissions, b.say("u", "!prefix set ?"))

	assert.Equal(t, dispatch.OutcomeFinished, b.say("admin", "!prefix set ?"))
	assert.Equal(t, "Prefix set to `?`.", b.client.last(t))

	assert.Equal(t, dispatch.OutcomeNoPrefix, b.say("u", "!ping"))
	assert.Equal(t, dispatch.OutcomeFinished, b.say("u", "?ping"))

	b.say("admin", "?prefix set")
	assert.Equal(t, "Usage: `prefix set <prefix>`", b.client.last(t))

	assert.Equal(t, dispatch.OutcomeFinished, b.say("admin", "?prefix reset"))
	assert.Equal(t, "Prefix reset. Current prefix: `!`", b.client.last(t))
	assert.Equal(t, dispatch.OutcomeFinished, b.say("u", "!ping"))
}

func TestLoader_WithoutStorage(t *testing.T) {
	reg := command.NewRegistry(nil)
	n, err := reg.Load(Loader(Deps{Registry: reg}))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Nil(t, reg.Get("history"))
}
