package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/server-herald/internal/command"
	"github.com/keshon/server-herald/internal/config"
)

func help(d Deps) *command.Command {
	return &command.Command{
		ID:          "help",
		Triggers:    []string{"help", "h"},
		Description: "List commands, or describe one",
		Usage:       "help [command]",
		Category:    "General",
		Exec: func(ctx context.Context, c *command.Context, _ command.Args) (any, error) {
			prefix := firstPrefix(d, c)
			if inv := c.Current(); inv != nil && len(inv.Tokens) > 0 {
				return nil, c.Reply(ctx, describe(d.Registry, prefix, inv.Tokens[0]))
			}
			return nil, c.Reply(ctx, listing(d.Registry, prefix))
		},
	}
}

func describe(reg *command.Registry, prefix, name string) string {
	cmd := reg.LookupByTrigger(name)
	if cmd == nil {
		return fmt.Sprintf("No command called `%s`.", name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s%s**", prefix, cmd.Triggers[0])
	if cmd.Description != "" {
		fmt.Fprintf(&b, ": %s", cmd.Description)
	}
	if cmd.Usage != "" {
		fmt.Fprintf(&b, "\nUsage: `%s%s`", prefix, cmd.Usage)
	}
	if len(cmd.Triggers) > 1 {
		fmt.Fprintf(&b, "\nAliases: %s", strings.Join(cmd.Triggers[1:], ", "))
	}
	if cmd.Channel != command.ChannelAny {
		fmt.Fprintf(&b, "\nChannels: %s", cmd.Channel)
	}
	return b.String()
}

func listing(reg *command.Registry, prefix string) string {
	byCategory := map[string][]string{}
	for _, cmd := range reg.All() {
		if !reg.Enabled(cmd.ID) || len(cmd.Triggers) == 0 {
			continue
		}
		cat := cmd.Category
		if cat == "" {
			cat = "Other"
		}
		line := fmt.Sprintf("`%s%s`", prefix, cmd.Triggers[0])
		if cmd.Description != "" {
			line += " " + cmd.Description
		}
		byCategory[cat] = append(byCategory[cat], line)
	}
	if len(byCategory) == 0 {
		return "No commands available."
	}

	cats := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	config.SortCategories(cats)

	var b strings.Builder
	for i, cat := range cats {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "**%s**\n%s\n", cat, strings.Join(byCategory[cat], "\n"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func firstPrefix(d Deps, c *command.Context) string {
	if d.Prefixes == nil {
		return ""
	}
	if ps := d.Prefixes(c); len(ps) > 0 {
		return ps[0]
	}
	return ""
}
