// Package commands holds the built-in commands.
package commands

import (
	"github.com/jonboulle/clockwork"

	"github.com/keshon/server-herald/internal/command"
	"github.com/keshon/server-herald/internal/storage"
)

// Deps are the collaborators built-ins need. Storage may be nil, in which
// case history and prefix overrides are unavailable.
type Deps struct {
	Registry *command.Registry
	Storage  *storage.Storage
	Prefixes func(c *command.Context) []string
	Clock    clockwork.Clock
}

// Loader yields every built-in command.
func Loader(d Deps) command.Loader {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	list := command.StaticLoader{
		ping(d),
		help(d),
		prefix(d),
	}
	if d.Storage != nil {
		list = append(list, history(d))
	}
	return list
}
