package logging

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/keshon/server-herald/internal/command"
	"github.com/keshon/server-herald/internal/dispatch"
	"github.com/keshon/server-herald/internal/events"
)

// SignalListener writes one line per signal.
func SignalListener() *events.Listener {
	return &events.Listener{
		ID: "log",
		Exec: func(s events.Signal) error {
			logSignal(s)
			return nil
		},
	}
}

func logSignal(s events.Signal) {
	where := origin(s.Context)

	switch p := s.Payload.(type) {
	case events.AloneMentionEvent:
		Debugf("Alone mention %s", where)
	case events.CommandNotFoundEvent:
		Debugf("Unknown command %q %s", p.Invoke, where)
	case events.RatelimitedEvent:
		log.Printf("[INFO] Ratelimited %s %s: %s target %s, retry in %s",
			p.Command.ID, where, p.Scope, p.Target, p.Wait.Round(time.Millisecond))
	case events.CommandBlockedEvent:
		if p.Reason == events.BlockChannel {
			log.Printf("[INFO] Blocked %s %s: %s (requires %s)", p.Command.ID, where, p.Reason, p.Channel)
			return
		}
		log.Printf("[INFO] Blocked %s %s: %s", p.Command.ID, where, p.Reason)
	case events.MissingPermissionsEvent:
		log.Printf("[INFO] Missing %s permissions for %s %s: %s", p.Side, p.Command.ID, where, DescribeMissing(p))
	case events.CommandStartEvent:
		Debugf("Running %s %s [%s]", p.Command.ID, where, s.ID)
	case events.CommandFinishEvent:
		log.Printf("[DONE] %s %s", p.Command.ID, where)
	case events.CommandErrorEvent:
		var perr *dispatch.PanicError
		if errors.As(p.Err, &perr) {
			log.Printf("[ERR] %s %s: %v\n%s", commandID(p.Command), where, perr, perr.Stack)
			return
		}
		log.Printf("[ERR] %s %s: %v", commandID(p.Command), where, p.Err)
	case events.RegisteredEvent:
		log.Printf("[INFO] Registered command %s (%s)", p.Command.ID, strings.Join(p.Command.Triggers, ", "))
	case events.RemovedEvent:
		log.Printf("[INFO] Removed command %s", p.Command.ID)
	case events.LoadErrorEvent:
		log.Printf("[WARN] Skipped definition %s: %v", p.ID, p.Err)
	case events.ListenerErrorEvent:
		log.Printf("[ERR] Listener %s failed on %s %s: %v", p.Listener.ID, p.Signal, where, p.Err)
	}
}

// DescribeMissing renders a missing-permissions payload for humans.
func DescribeMissing(e events.MissingPermissionsEvent) string {
	if perms, ok := e.Permissions(); ok {
		return strings.Join(perms.Names(), ", ")
	}
	switch v := e.Missing.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case error:
		return v.Error()
	}
	return "unspecified"
}

func origin(c *command.Context) string {
	if c == nil {
		return ""
	}
	m := c.Message()
	if m.InGuild() {
		return "by " + m.AuthorID + " in " + m.GuildID + "/" + m.ChannelID
	}
	return "by " + m.AuthorID + " in DM"
}

func commandID(c *command.Command) string {
	if c == nil {
		return "command"
	}
	return c.ID
}
