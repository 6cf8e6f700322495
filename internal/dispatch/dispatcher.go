// Package dispatch turns inbound messages into command executions: prefix
// matching, trigger lookup, rate limiting, channel and permission gates, then
// execution, reporting every decision on the signal bus.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/keshon/server-herald/internal/command"
	"github.com/keshon/server-herald/internal/events"
	"github.com/keshon/server-herald/internal/platform"
	"github.com/keshon/server-herald/internal/ratelimit"
)

// ErrGuildOwnerUnknown fails guild-owner-only commands when the platform did
// not report who owns the guild.
var ErrGuildOwnerUnknown = errors.New("guild owner unknown")

type Dispatcher struct {
	registry   *command.Registry
	bus        *events.Bus
	client     platform.Client
	opts       Options
	clock      clockwork.Clock
	contexts   *ContextStore
	ratelimits *ratelimit.Engine

	closeOnce   sync.Once
	unsubscribe func()
}

// New builds a dispatcher. When client is also a platform.EventSource the
// dispatcher subscribes to it, unless opts.Passive is set.
func New(reg *command.Registry, bus *events.Bus, client platform.Client, opts Options) (*Dispatcher, error) {
	if reg == nil {
		return nil, errors.New("dispatch: registry is nil")
	}
	if bus == nil {
		return nil, errors.New("dispatch: signal bus is nil")
	}
	if client == nil {
		return nil, errors.New("dispatch: client is nil")
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.DefaultPolicy.Bucket == 0 && opts.DefaultPolicy.Reset == 0 {
		opts.DefaultPolicy = DefaultOptions().DefaultPolicy
	}

	d := &Dispatcher{
		registry:   reg,
		bus:        bus,
		client:     client,
		opts:       opts,
		clock:      opts.Clock,
		contexts:   NewContextStore(client),
		ratelimits: ratelimit.NewEngine(opts.Clock),
	}

	if !opts.Passive {
		if src, ok := client.(platform.EventSource); ok {
			d.unsubscribe = src.Subscribe(d)
		}
	}
	return d, nil
}

func (d *Dispatcher) Contexts() *ContextStore { return d.contexts }

func (d *Dispatcher) Ratelimits() *ratelimit.Engine { return d.ratelimits }

func (d *Dispatcher) Registry() *command.Registry { return d.registry }

// Prefixes returns the prefixes accepted for c.
func (d *Dispatcher) Prefixes(c *command.Context) []string {
	if d.opts.PrefixFunc != nil {
		return d.opts.PrefixFunc(c)
	}
	return d.opts.Prefixes
}

// IsOwner reports whether userID is a configured bot owner.
func (d *Dispatcher) IsOwner(userID string) bool {
	return slices.Contains(d.opts.Owners, userID)
}

// Close stops listening and drops every rate-limit entry.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		if d.unsubscribe != nil {
			d.unsubscribe()
		}
		d.ratelimits.Close()
	})
}

// MessageCreated implements platform.EventHandler.
func (d *Dispatcher) MessageCreated(ctx context.Context, m *platform.Message) {
	d.Handle(ctx, m)
}

// MessageUpdated implements platform.EventHandler.
func (d *Dispatcher) MessageUpdated(ctx context.Context, old, updated *platform.Message) {
	d.HandleUpdate(ctx, old, updated)
}

// HandleUpdate re-runs the pipeline for an edit whose body changed. old may
// be nil when no cached copy exists.
func (d *Dispatcher) HandleUpdate(ctx context.Context, old, updated *platform.Message) Outcome {
	if old != nil && old.Content == updated.Content {
		return OutcomeUnchanged
	}
	return d.Handle(ctx, updated)
}

// Handle runs one message through the pipeline.
func (d *Dispatcher) Handle(ctx context.Context, m *platform.Message) Outcome {
	self := d.client.SelfID()
	if (self != "" && m.AuthorID == self) || (d.opts.IgnoreBots && m.AuthorBot) {
		return OutcomeIgnored
	}

	c := d.contexts.Acquire(m)

	if isAloneMention(m.Content, self) {
		d.bus.Emit(c, events.AloneMentionEvent{})
		return OutcomeAloneMention
	}

	prefix, ok := d.resolvePrefix(c, m.Content, self)
	if !ok {
		return OutcomeNoPrefix
	}

	invoke, tokens := tokenize(m.Content[len(prefix):])
	cmd := d.registry.LookupByTrigger(invoke)
	if cmd == nil {
		d.bus.Emit(c, events.CommandNotFoundEvent{Invoke: invoke})
		return OutcomeNotFound
	}

	c.SetCurrent(&command.Invocation{Prefix: prefix, Invoke: invoke, Tokens: tokens, Command: cmd})

	owner := d.IsOwner(m.AuthorID)
	if !owner {
		if out, ok := d.checkConditions(c, cmd); !ok {
			return out
		}
	}
	if out, ok := d.checkPermissions(ctx, c, cmd, owner); !ok {
		return out
	}

	return d.execute(ctx, c, cmd)
}

func (d *Dispatcher) resolvePrefix(c *command.Context, content, self string) (string, bool) {
	if p := mentionPrefix(content, self); p != "" {
		return p, d.opts.MentionPrefix
	}
	return matchPrefix(content, d.Prefixes(c))
}

func (d *Dispatcher) checkConditions(c *command.Context, cmd *command.Command) (Outcome, bool) {
	m := c.Message()
	policy := cmd.PolicyOr(d.opts.DefaultPolicy)
	target := ratelimit.Target(policy.Scope, m)

	res := d.ratelimits.Attempt(target, cmd.ID, policy)
	if !res.Allowed {
		d.bus.Emit(c, events.RatelimitedEvent{
			Command: cmd,
			ResetAt: res.ResetAt,
			Wait:    res.ResetAt.Sub(d.clock.Now()),
			Scope:   policy.Scope,
			Target:  target,
		})
		return OutcomeRatelimited, false
	}

	if !cmd.Channel.Allows(m) {
		d.bus.Emit(c, events.CommandBlockedEvent{Command: cmd, Reason: events.BlockChannel, Channel: cmd.Channel})
		return OutcomeBlocked, false
	}
	return 0, true
}

func (d *Dispatcher) checkPermissions(ctx context.Context, c *command.Context, cmd *command.Command, owner bool) (Outcome, bool) {
	m := c.Message()
	perms := cmd.Permissions

	if !owner {
		if perms.BotOwner {
			d.bus.Emit(c, events.CommandBlockedEvent{Command: cmd, Reason: events.BlockBotOwner})
			return OutcomeBlocked, false
		}
		if perms.GuildOwner && m.InGuild() {
			if m.GuildOwnerID == "" {
				d.bus.Emit(c, events.CommandErrorEvent{Command: cmd, Err: ErrGuildOwnerUnknown})
				return OutcomeFailed, false
			}
			if m.AuthorID != m.GuildOwnerID {
				d.bus.Emit(c, events.CommandBlockedEvent{Command: cmd, Reason: events.BlockGuildOwner})
				return OutcomeBlocked, false
			}
		}
		if out, ok := d.checkRequirement(ctx, c, cmd, perms.Invoker, events.SideInvoker, m.AuthorID); !ok {
			return out, false
		}
	}

	return d.checkRequirement(ctx, c, cmd, perms.Client, events.SideClient, d.client.SelfID())
}

func (d *Dispatcher) checkRequirement(ctx context.Context, c *command.Context, cmd *command.Command, req command.Requirement, side events.Side, userID string) (Outcome, bool) {
	if req.IsZero() {
		return 0, true
	}
	missing, err := req.Check(ctx, c, userID)
	if err != nil {
		d.bus.Emit(c, events.CommandErrorEvent{Command: cmd, Err: fmt.Errorf("%s permissions: %w", side, err)})
		return OutcomeFailed, false
	}
	if missing != nil {
		d.bus.Emit(c, events.MissingPermissionsEvent{Command: cmd, Side: side, Missing: missing})
		return OutcomeMissingPermissions, false
	}
	return 0, true
}

func (d *Dispatcher) execute(ctx context.Context, c *command.Context, cmd *command.Command) Outcome {
	d.bus.Emit(c, events.CommandStartEvent{Command: cmd})

	if !cmd.Quiet {
		stop, err := d.client.StartTyping(ctx, c.Message().ChannelID)
		if err != nil {
			log.Printf("[WARN] Typing indicator for %s failed: %v", cmd.ID, err)
		} else {
			defer stop()
		}
	}

	res, err := d.run(ctx, c, cmd)
	if err != nil {
		d.bus.Emit(c, events.CommandErrorEvent{Command: cmd, Err: err})
		return OutcomeFailed
	}
	d.bus.Emit(c, events.CommandFinishEvent{Command: cmd, Result: res})
	return OutcomeFinished
}

func (d *Dispatcher) run(ctx context.Context, c *command.Context, cmd *command.Command) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Command: cmd.ID, Value: r, Stack: debug.Stack()}
		}
	}()
	exec := command.Chain(cmd.Exec, d.opts.Middleware...)
	return exec(ctx, c, command.Args{})
}
