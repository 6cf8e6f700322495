// cmd/discord/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/server-herald/internal/app"
	"github.com/keshon/server-herald/internal/config"
	"github.com/keshon/server-herald/internal/discord"
	"github.com/keshon/server-herald/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("[ERR] ", err)
	}
	closer := logging.Setup(cfg.LogLevel, cfg.LogFileOptions())
	defer closer.Close()

	log.Printf("[INFO] Starting %v bot...", app.AppName)

	if err := cfg.RequireToken(); err != nil {
		log.Fatal("[ERR] ", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bot, err := discord.NewBot(discord.Options{Token: cfg.DiscordToken})
	if err != nil {
		log.Fatal("[ERR] ", err)
	}

	a, err := app.New(cfg, bot, nil)
	if err != nil {
		log.Fatal("[ERR] ", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Println("[ERR] Shutdown:", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx, map[string]func(context.Context) error{"gateway": bot.Run})
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	}

	log.Println("[INFO] Discord bot exited cleanly")
}
