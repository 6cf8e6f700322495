package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/server-herald/internal/command"
	"github.com/keshon/server-herald/internal/events"
	"github.com/keshon/server-herald/internal/platform"
)

type replyClient struct {
	replies []string
	err     error
}

func (c *replyClient) SelfID() string { return "bot" }
func (c *replyClient) MemberPermissions(context.Context, string, string, string) (platform.Permissions, error) {
	return 0, nil
}
func (c *replyClient) StartTyping(context.Context, string) (func(), error) { return func() {}, nil }
func (c *replyClient) Reply(_ context.Context, _, content string) error {
	c.replies = append(c.replies, content)
	return c.err
}

var ping = &command.Command{ID: "ping-cmd", Triggers: []string{"ping"}}

func sig(p events.Payload) events.Signal {
	return events.Signal{Context: command.NewContext(nil, &platform.Message{}), Payload: p}
}

func TestRender(t *testing.T) {
	bang := func(*command.Context) []string { return []string{"!"} }

	tests := []struct {
		name string
		p    events.Payload
		want string
	}{
		{"alone", events.AloneMentionEvent{}, "My prefix here is `!`. Try `!help`."},
		{"ratelimited", events.RatelimitedEvent{Command: ping, Wait: 4200 * time.Millisecond}, "Slow down! You can use `ping` again in 5s."},
		{"ratelimited long", events.RatelimitedEvent{Command: ping, Wait: 90*time.Minute + time.Second}, "Slow down! You can use `ping` again in 1h31m."},
		{"guild only", events.CommandBlockedEvent{Command: ping, Reason: events.BlockChannel, Channel: command.ChannelGuildOnly}, "`ping` only works in a server."},
		{"dm only", events.CommandBlockedEvent{Command: ping, Reason: events.BlockChannel, Channel: command.ChannelDMOnly}, "`ping` only works in direct messages."},
		{"owner", events.CommandBlockedEvent{Command: ping, Reason: events.BlockBotOwner}, "`ping` is reserved for the bot owners."},
		{"guild owner", events.CommandBlockedEvent{Command: ping, Reason: events.BlockGuildOwner}, "`ping` is reserved for the server owner."},
		{"invoker", events.MissingPermissionsEvent{Command: ping, Side: events.SideInvoker, Missing: platform.PermManageMessages}, "You need these permissions to run `ping`: Manage Messages."},
		{"client", events.MissingPermissionsEvent{Command: ping, Side: events.SideClient, Missing: "a DJ role"}, "I need these permissions to run `ping`: a DJ role."},
		{"error", events.CommandErrorEvent{Command: ping, Err: errors.New("boom")}, "Something went wrong while running `ping`."},
		{"not found", events.CommandNotFoundEvent{Invoke: "x"}, ""},
		{"finish", events.CommandFinishEvent{Command: ping}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(sig(tt.p), bang))
		})
	}

	assert.Equal(t, "", Render(sig(events.AloneMentionEvent{}), nil))
	assert.Contains(t, Render(sig(events.AloneMentionEvent{}), func(*command.Context) []string { return nil }), "Mention me")
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "a moment", humanize(300*time.Millisecond))
	assert.Equal(t, "1s", humanize(time.Second))
	assert.Equal(t, "59s", humanize(58*time.Second+time.Millisecond))
	assert.Equal(t, "1m", humanize(time.Minute))
	assert.Equal(t, "2h", humanize(2*time.Hour))
}

func TestListener(t *testing.T) {
	client := &replyClient{}
	bus := events.NewBus(nil)
	ls := events.NewListeners(bus)
	require.NoError(t, ls.Register(Listener(nil)))

	var failures []error
	bus.Subscribe(func(s events.Signal) {
		failures = append(failures, s.Payload.(events.ListenerErrorEvent).Err)
	}, events.ListenerError)

	c := command.NewContext(client, &platform.Message{ChannelID: "c1"})
	bus.Emit(c, events.RatelimitedEvent{Command: ping, Wait: 2 * time.Second})
	bus.Emit(c, events.CommandFinishEvent{Command: ping})
	bus.Emit(c, events.AloneMentionEvent{})
	assert.Equal(t, []string{"Slow down! You can use `ping` again in 2s."}, client.replies)

	offline := errors.New("offline")
	client.err = offline
	assert.NotPanics(t, func() { bus.Emit(c, events.CommandErrorEvent{Command: ping, Err: errors.New("x")}) })
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], offline)

	ls.Close()
	bus.Emit(c, events.CommandErrorEvent{Command: ping, Err: errors.New("x")})
	assert.Len(t, client.replies, 2)
}
