package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/keshon/server-herald/internal/command"
)

func ping(d Deps) *command.Command {
	return &command.Command{
		ID:          "ping",
		Triggers:    []string{"ping"},
		Description: "Check that the bot is alive",
		Category:    "General",
		Quiet:       true,
		Exec: func(ctx context.Context, c *command.Context, _ command.Args) (any, error) {
			reply := "Pong!"
			if created := c.Message().CreatedAt; !created.IsZero() {
				reply = fmt.Sprintf("Pong! (%s)", d.Clock.Since(created).Round(time.Millisecond))
			}
			return reply, c.Reply(ctx, reply)
		},
	}
}
