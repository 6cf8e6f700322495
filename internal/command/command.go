// Package command holds command definitions, the per-message invocation
// context and the registry commands are looked up in.
package command

import (
	"context"
	"slices"

	"github.com/keshon/server-herald/internal/platform"
	"github.com/keshon/server-herald/internal/ratelimit"
)

// ChannelClass restricts where a command may be invoked.
type ChannelClass int

const (
	ChannelAny ChannelClass = iota
	ChannelGuildOnly
	ChannelDMOnly
)

func (c ChannelClass) String() string {
	switch c {
	case ChannelGuildOnly:
		return "guild-only"
	case ChannelDMOnly:
		return "dm-only"
	default:
		return "any"
	}
}

// Allows reports whether m was sent in a channel of this class.
func (c ChannelClass) Allows(m *platform.Message) bool {
	switch c {
	case ChannelGuildOnly:
		return !m.IsDM() && m.InGuild()
	case ChannelDMOnly:
		return m.IsDM()
	default:
		return true
	}
}

// Args are bound command arguments. Binding is not implemented; the raw tokens
// are on the context's Invocation.
type Args map[string]any

// ExecFunc runs a command. The returned value is carried by the commandFinish signal.
type ExecFunc func(ctx context.Context, c *Context, args Args) (any, error)

// Permissions gates who may run a command. Invoker and Client may be left zero.
type Permissions struct {
	BotOwner   bool
	GuildOwner bool
	Invoker    Requirement
	Client     Requirement
}

// Command is a named, triggerable unit of behavior.
type Command struct {
	ID          string
	Triggers    []string
	Description string
	Usage       string
	Category    string
	Channel     ChannelClass
	Permissions Permissions
	// Ratelimit overrides the dispatcher's default policy when set.
	Ratelimit *ratelimit.Policy
	// Quiet suppresses the typing indicator while Exec runs.
	Quiet bool
	// Disabled is the initial state at registration; see Registry.SetEnabled.
	Disabled bool
	Exec     ExecFunc
}

// HasTrigger reports whether t is one of the command's triggers.
func (c *Command) HasTrigger(t string) bool {
	return slices.Contains(c.Triggers, t)
}

// PolicyOr returns the command's policy, or def when it declares none.
func (c *Command) PolicyOr(def ratelimit.Policy) ratelimit.Policy {
	if c.Ratelimit != nil {
		return *c.Ratelimit
	}
	return def
}

// Policy is a helper for declaring Ratelimit from a policy string.
func Policy(s string) *ratelimit.Policy {
	p := ratelimit.MustPolicy(s)
	return &p
}
