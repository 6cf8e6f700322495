package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/server-herald/internal/command"
	"github.com/keshon/server-herald/internal/platform"
	"github.com/keshon/server-herald/internal/storage"
	"github.com/keshon/server-herald/pkg/util"
)

const historyShown = 10

func history(d Deps) *command.Command {
	return &command.Command{
		ID:          "history",
		Triggers:    []string{"history"},
		Description: "Show recent command usage in this server",
		Category:    "Moderation",
		Channel:     command.ChannelGuildOnly,
		Ratelimit:   command.Policy("guild:2/10s"),
		Permissions: command.Permissions{
			Invoker: command.Static(platform.PermManageGuild),
		},
		Exec: func(ctx context.Context, c *command.Context, _ command.Args) (any, error) {
			list, err := d.Storage.FetchCommandHistory(storage.ScopeKey(c.Message()))
			if err != nil {
				return nil, fmt.Errorf("fetch history: %w", err)
			}
			if len(list) == 0 {
				return 0, c.Reply(ctx, "No commands recorded yet.")
			}
			if len(list) > historyShown {
				list = list[len(list)-historyShown:]
			}

			var b strings.Builder
			b.WriteString("Recent commands:\n")
			for i := len(list) - 1; i >= 0; i-- {
				r := list[i]
				status := ""
				if r.Failed {
					status = " (failed)"
				}
				fmt.Fprintf(&b, "`%s` %s by %s in <#%s>%s\n",
					util.FormatDateTpl(r.Datetime, "YYYY-MM-DD hh:mm"), r.Command, name(r), r.ChannelID, status)
			}
			return len(list), c.Reply(ctx, strings.TrimRight(b.String(), "\n"))
		},
	}
}

func name(r storage.CommandHistoryRecord) string {
	if r.Username != "" {
		return r.Username
	}
	return "<@" + r.UserID + ">"
}
