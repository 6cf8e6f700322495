package logging

import (
	"context"
	"time"

	"github.com/keshon/server-herald/internal/command"
)

// Timing logs how long each command execution took, at debug level.
func Timing() command.Middleware {
	return func(next command.ExecFunc) command.ExecFunc {
		return func(ctx context.Context, c *command.Context, args command.Args) (any, error) {
			start := time.Now()
			res, err := next(ctx, c, args)
			if inv := c.Current(); inv != nil {
				Debugf("%s took %s", inv.Command.ID, time.Since(start).Round(time.Microsecond))
			}
			return res, err
		}
	}
}
