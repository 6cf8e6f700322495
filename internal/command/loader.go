package command

import "fmt"

// Loader yields command definitions to register, one call per definition.
type Loader interface {
	Load(register func(id string, def *Command) error) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(register func(id string, def *Command) error) error

func (f LoaderFunc) Load(register func(id string, def *Command) error) error { return f(register) }

// StaticLoader yields a fixed list of commands under their own IDs.
type StaticLoader []*Command

func (s StaticLoader) Load(register func(id string, def *Command) error) error {
	for _, c := range s {
		if c == nil {
			continue
		}
		if err := register(c.ID, c); err != nil {
			return fmt.Errorf("load %q: %w", c.ID, err)
		}
	}
	return nil
}
