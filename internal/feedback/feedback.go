// Package feedback replies to users when the dispatcher turns them away.
package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/keshon/server-herald/internal/command"
	"github.com/keshon/server-herald/internal/events"
	"github.com/keshon/server-herald/internal/logging"
)

const replyTimeout = 10 * time.Second

// Prefixes reports the prefixes accepted for a context, for help hints.
type Prefixes func(c *command.Context) []string

// Listener replies in the originating channel to denial and failure signals.
func Listener(prefixes Prefixes) *events.Listener {
	return &events.Listener{
		ID: "feedback",
		Names: []events.Name{
			events.AloneMention,
			events.Ratelimited,
			events.CommandBlocked,
			events.MissingPermissions,
			events.CommandError,
		},
		Exec: func(s events.Signal) error {
			if s.Context == nil {
				return nil
			}
			text := Render(s, prefixes)
			if text == "" {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
			defer cancel()
			if err := s.Context.Reply(ctx, text); err != nil {
				return fmt.Errorf("send %s feedback: %w", s.Name(), err)
			}
			return nil
		},
	}
}

// Render returns the reply for s, or "" when none is due.
func Render(s events.Signal, prefixes Prefixes) string {
	switch p := s.Payload.(type) {
	case events.AloneMentionEvent:
		if prefixes == nil {
			return ""
		}
		ps := prefixes(s.Context)
		if len(ps) == 0 {
			return "Mention me followed by a command, e.g. `@me help`."
		}
		return fmt.Sprintf("My prefix here is `%s`. Try `%shelp`.", ps[0], ps[0])
	case events.RatelimitedEvent:
		return fmt.Sprintf("Slow down! You can use `%s` again in %s.", trigger(p.Command), humanize(p.Wait))
	case events.CommandBlockedEvent:
		switch p.Reason {
		case events.BlockChannel:
			if p.Channel == command.ChannelDMOnly {
				return fmt.Sprintf("`%s` only works in direct messages.", trigger(p.Command))
			}
			return fmt.Sprintf("`%s` only works in a server.", trigger(p.Command))
		case events.BlockBotOwner:
			return fmt.Sprintf("`%s` is reserved for the bot owners.", trigger(p.Command))
		case events.BlockGuildOwner:
			return fmt.Sprintf("`%s` is reserved for the server owner.", trigger(p.Command))
		}
	case events.MissingPermissionsEvent:
		missing := logging.DescribeMissing(p)
		if p.Side == events.SideClient {
			return fmt.Sprintf("I need these permissions to run `%s`: %s.", trigger(p.Command), missing)
		}
		return fmt.Sprintf("You need these permissions to run `%s`: %s.", trigger(p.Command), missing)
	case events.CommandErrorEvent:
		return fmt.Sprintf("Something went wrong while running `%s`.", trigger(p.Command))
	}
	return ""
}

func trigger(c *command.Command) string {
	if c == nil {
		return "this command"
	}
	if len(c.Triggers) > 0 {
		return c.Triggers[0]
	}
	return c.ID
}

// humanize rounds up to whole seconds below a minute and to whole minutes above.
func humanize(d time.Duration) string {
	if d < time.Second {
		return "a moment"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int((d+time.Second-1)/time.Second))
	}
	d = (d + time.Minute - 1).Truncate(time.Minute)
	h, m := int(d/time.Hour), int((d%time.Hour)/time.Minute)
	var b strings.Builder
	if h > 0 {
		fmt.Fprintf(&b, "%dh", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dm", m)
	}
	return b.String()
}
