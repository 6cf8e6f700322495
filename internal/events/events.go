// Package events is the dispatcher's signal bus: a closed vocabulary of
// lifecycle signals with typed payloads, delivered to subscribers.
package events

import (
	"time"

	"github.com/keshon/server-herald/internal/command"
	"github.com/keshon/server-herald/internal/platform"
	"github.com/keshon/server-herald/internal/ratelimit"
)

// Name identifies a signal.
type Name string

const (
	AloneMention       Name = "aloneMention"
	CommandNotFound    Name = "commandNotFound"
	Ratelimited        Name = "ratelimited"
	CommandBlocked     Name = "commandBlocked"
	MissingPermissions Name = "missingPermissions"
	CommandStart       Name = "commandStart"
	CommandFinish      Name = "commandFinish"
	CommandError       Name = "commandError"
	Registered         Name = "registered"
	Removed            Name = "removed"
	LoadError          Name = "loadError"
	ListenerError      Name = "listenerError"
)

// Names is the full vocabulary, in pipeline order.
var Names = []Name{
	AloneMention, CommandNotFound, Ratelimited, CommandBlocked, MissingPermissions,
	CommandStart, CommandFinish, CommandError, Registered, Removed,
	LoadError, ListenerError,
}

// BlockReason says why a command was blocked.
type BlockReason string

const (
	BlockChannel    BlockReason = "channel"
	BlockBotOwner   BlockReason = "botOwner"
	BlockGuildOwner BlockReason = "guildOwner"
)

// Side says whose permissions are missing.
type Side string

const (
	SideInvoker Side = "invoker"
	SideClient  Side = "client"
)

// Payload is one of the *Event types below. The set is closed.
type Payload interface {
	Name() Name
	payload()
}

// Signal is a single emission. Context is nil for registry and load signals.
type Signal struct {
	ID      string
	At      time.Time
	Context *command.Context
	Payload Payload
}

// Name is the payload's signal name.
func (s Signal) Name() Name { return s.Payload.Name() }

type AloneMentionEvent struct{}

type CommandNotFoundEvent struct {
	Invoke string
}

type RatelimitedEvent struct {
	Command *command.Command
	ResetAt time.Time
	Wait    time.Duration
	Scope   ratelimit.Scope
	Target  string
}

type CommandBlockedEvent struct {
	Command *command.Command
	Reason  BlockReason
	// Channel is set for BlockChannel: the class the command requires.
	Channel command.ChannelClass
}

type MissingPermissionsEvent struct {
	Command *command.Command
	Side    Side
	// Missing is platform.Permissions for static requirements, or whatever
	// a computed requirement returned.
	Missing any
}

// Permissions returns the missing capability set when the requirement was static.
func (e MissingPermissionsEvent) Permissions() (platform.Permissions, bool) {
	p, ok := e.Missing.(platform.Permissions)
	return p, ok
}

type CommandStartEvent struct {
	Command *command.Command
}

type CommandFinishEvent struct {
	Command *command.Command
	Result  any
}

type CommandErrorEvent struct {
	Command *command.Command
	Err     error
}

type RegisteredEvent struct {
	Command *command.Command
}

type RemovedEvent struct {
	Command *command.Command
}

// LoadErrorEvent reports a definition the loader could not register.
type LoadErrorEvent struct {
	ID  string
	Err error
}

// ListenerErrorEvent reports a listener that failed or panicked while
// handling Signal. The emitted signal carries the same context.
type ListenerErrorEvent struct {
	Listener *Listener
	Signal   Name
	Err      error
}

func (AloneMentionEvent) Name() Name       { return AloneMention }
func (CommandNotFoundEvent) Name() Name    { return CommandNotFound }
func (RatelimitedEvent) Name() Name        { return Ratelimited }
func (CommandBlockedEvent) Name() Name     { return CommandBlocked }
func (MissingPermissionsEvent) Name() Name { return MissingPermissions }
func (CommandStartEvent) Name() Name       { return CommandStart }
func (CommandFinishEvent) Name() Name      { return CommandFinish }
func (CommandErrorEvent) Name() Name       { return CommandError }
func (RegisteredEvent) Name() Name         { return Registered }
func (RemovedEvent) Name() Name            { return Removed }
func (LoadErrorEvent) Name() Name          { return LoadError }
func (ListenerErrorEvent) Name() Name      { return ListenerError }

func (AloneMentionEvent) payload()       {}
func (CommandNotFoundEvent) payload()    {}
func (RatelimitedEvent) payload()        {}
func (CommandBlockedEvent) payload()     {}
func (MissingPermissionsEvent) payload() {}
func (CommandStartEvent) payload()       {}
func (CommandFinishEvent) payload()      {}
func (CommandErrorEvent) payload()       {}
func (RegisteredEvent) payload()         {}
func (RemovedEvent) payload()            {}
func (LoadErrorEvent) payload()          {}
func (ListenerErrorEvent) payload()      {}
