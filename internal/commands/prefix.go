package commands

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/keshon/server-herald/internal/command"
	"github.com/keshon/server-herald/internal/platform"
	"github.com/keshon/server-herald/internal/storage"
)

// Prefixes resolves a guild's stored prefix override, falling back to defaults.
func Prefixes(st *storage.Storage, defaults []string) func(c *command.Context) []string {
	return func(c *command.Context) []string {
		m := c.Message()
		if st == nil || !m.InGuild() {
			return defaults
		}
		p, ok, err := st.Prefix(m.GuildID)
		if err != nil {
			log.Printf("[WARN] Failed to load prefix for guild %s: %v", m.GuildID, err)
			return defaults
		}
		if !ok {
			return defaults
		}
		return []string{p}
	}
}

// changing reports whether the invocation modifies the prefix.
func changing(c *command.Context) bool {
	inv := c.Current()
	return inv != nil && len(inv.Tokens) > 0 && (inv.Tokens[0] == "set" || inv.Tokens[0] == "reset")
}

// manageGuild requires Manage Server only for set and reset.
func manageGuild(ctx context.Context, c *command.Context) (any, error) {
	if !changing(c) {
		return nil, nil
	}
	m := c.Message()
	have, err := c.Client.MemberPermissions(ctx, m.GuildID, m.ChannelID, m.AuthorID)
	if err != nil {
		return nil, err
	}
	if missing := have.Missing(platform.PermManageGuild); missing != 0 {
		return missing, nil
	}
	return nil, nil
}

func prefix(d Deps) *command.Command {
	return &command.Command{
		ID:          "prefix",
		Triggers:    []string{"prefix"},
		Description: "Show or change the command prefix",
		Usage:       "prefix [set <prefix> | reset]",
		Category:    "Settings",
		Channel:     command.ChannelGuildOnly,
		Permissions: command.Permissions{
			Invoker: command.Computed(manageGuild),
		},
		Exec: func(ctx context.Context, c *command.Context, _ command.Args) (any, error) {
			if !changing(c) {
				return nil, c.Reply(ctx, current(d, c))
			}
			if d.Storage == nil {
				return nil, c.Reply(ctx, "Prefix overrides are not available without storage.")
			}

			inv := c.Current()
			guildID := c.Message().GuildID
			if inv.Tokens[0] == "reset" {
				if err := d.Storage.SetPrefix(guildID, ""); err != nil {
					return nil, fmt.Errorf("reset prefix: %w", err)
				}
				return "", c.Reply(ctx, "Prefix reset. "+current(d, c))
			}

			if len(inv.Tokens) < 2 {
				return nil, c.Reply(ctx, "Usage: `prefix set <prefix>`")
			}
			p := inv.Tokens[1]
			if err := d.Storage.SetPrefix(guildID, p); err != nil {
				return nil, fmt.Errorf("set prefix: %w", err)
			}
			return p, c.Reply(ctx, fmt.Sprintf("Prefix set to `%s`.", p))
		},
	}
}

func current(d Deps, c *command.Context) string {
	var ps []string
	if d.Prefixes != nil {
		ps = d.Prefixes(c)
	}
	quoted := make([]string, 0, len(ps))
	for _, p := range ps {
		quoted = append(quoted, "`"+p+"`")
	}
	if len(quoted) == 0 {
		return "No prefix is set; mention me instead."
	}
	return "Current prefix: " + strings.Join(quoted, ", ")
}
