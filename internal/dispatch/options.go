package dispatch

import (
	"github.com/jonboulle/clockwork"

	"github.com/keshon/server-herald/internal/command"
	"github.com/keshon/server-herald/internal/ratelimit"
)

// PrefixFunc computes the prefixes accepted for a message.
type PrefixFunc func(c *command.Context) []string

// Options configures a Dispatcher.
type Options struct {
	// Prefixes are tried in order, case-insensitively. An empty prefix matches
	// every message.
	Prefixes []string
	// PrefixFunc replaces Prefixes when set.
	PrefixFunc PrefixFunc
	// MentionPrefix accepts "<@bot> " as a prefix.
	MentionPrefix bool
	// Passive keeps the dispatcher from subscribing to the client's events;
	// messages are then fed through Handle and HandleUpdate.
	Passive bool
	// IgnoreBots drops messages authored by any bot account.
	IgnoreBots bool
	// DefaultPolicy applies to commands that declare no rate limit.
	DefaultPolicy ratelimit.Policy
	// Owners bypass rate limits, channel restrictions and invoker permissions.
	Owners []string
	// Middleware wraps every command execution.
	Middleware []command.Middleware
	Clock      clockwork.Clock
}

// DefaultOptions returns prefix "!", mention prefix on and a default rate
// limit of one attempt per user per five seconds.
func DefaultOptions() Options {
	return Options{
		Prefixes:      []string{"!"},
		MentionPrefix: true,
		IgnoreBots:    true,
		DefaultPolicy: ratelimit.MustPolicy("user:1/5s"),
	}
}
