package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keshon/server-herald/internal/app"
	"github.com/keshon/server-herald/internal/config"
	"github.com/keshon/server-herald/internal/console"
	"github.com/keshon/server-herald/internal/logging"
)

type flags struct {
	envFiles []string
	guildID  string
	userID   string
	debug    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:          "herald-cli",
		Short:        "Run " + app.AppName + " commands from the terminal",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringSliceVar(&f.envFiles, "env", nil, "dotenv files to load (default .env)")
	cmd.PersistentFlags().StringVar(&f.guildID, "guild", "local", "guild ID for messages, empty for direct messages")
	cmd.PersistentFlags().StringVar(&f.userID, "user", "", "author user ID")
	cmd.PersistentFlags().BoolVarP(&f.debug, "debug", "d", false, "Enable debug logging")

	cmd.AddCommand(
		newRunCommand(f),
		newExecCommand(f),
		newListCommand(f),
	)
	return cmd
}

func newRunCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Read messages from stdin, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, con, done, err := start(f, cmd)
			if err != nil {
				return err
			}
			defer done()

			ctx, cancel := context.WithCancel(ctx)
			ran := make(chan error, 1)
			go func() { ran <- a.Run(ctx, nil) }()

			err = con.Feed(ctx, cmd.InOrStdin())
			cancel()
			if rerr := <-ran; err == nil {
				err = rerr
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newExecCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <message...>",
		Short: "Dispatch a single message and print the replies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, con, done, err := start(f, cmd)
			if err != nil {
				return err
			}
			defer done()
			con.Send(cmd.Context(), strings.Join(args, " "))
			return nil
		},
	}
}

func newListCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:     "commands",
		Aliases: []string{"ls"},
		Short:   "List registered commands",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, done, err := start(f, cmd)
			if err != nil {
				return err
			}
			defer done()
			out := cmd.OutOrStdout()
			for _, c := range a.Registry.All() {
				state := ""
				if !a.Registry.Enabled(c.ID) {
					state = " (disabled)"
				}
				fmt.Fprintf(out, "%-10s %-24s %s%s\n", c.ID, strings.Join(c.Triggers, ","), c.Description, state)
			}
			return nil
		},
	}
}

// start builds the app around a console; done closes both the app and the log file.
func start(f *flags, cmd *cobra.Command) (*app.App, *console.Console, func(), error) {
	cfg, err := config.Load(f.envFiles...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Passive = false
	level := cfg.LogLevel
	if f.debug {
		level = "debug"
	}
	closer := logging.Setup(level, cfg.LogFileOptions())

	opts := console.DefaultOptions()
	opts.GuildID = f.guildID
	if f.userID != "" {
		opts.UserID = f.userID
	}
	if opts.GuildID != "" {
		opts.GuildOwnerID = opts.UserID
	}
	con := console.New(cmd.OutOrStdout(), opts)

	a, err := app.New(cfg, con, nil)
	if err != nil {
		closer.Close()
		return nil, nil, nil, err
	}
	return a, con, func() {
		if err := a.Close(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "shutdown:", err)
		}
		closer.Close()
	}, nil
}
