// Package config reads settings from .env and the process environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/keshon/server-herald/internal/dispatch"
	"github.com/keshon/server-herald/internal/logging"
	"github.com/keshon/server-herald/internal/ratelimit"
)

type Config struct {
	DiscordToken     string        `env:"DISCORD_TOKEN"`
	Prefixes         []string      `env:"COMMAND_PREFIX" envDefault:"!" envSeparator:","`
	MentionPrefix    bool          `env:"MENTION_PREFIX" envDefault:"true"`
	Passive          bool          `env:"PASSIVE" envDefault:"false"`
	IgnoreBots       bool          `env:"IGNORE_BOTS" envDefault:"true"`
	DefaultRatelimit string        `env:"DEFAULT_RATELIMIT" envDefault:"user:1/5s"`
	Owners           []string      `env:"BOT_OWNERS" envSeparator:","`
	ContextLifetime  time.Duration `env:"CONTEXT_LIFETIME" envDefault:"30m"`
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	StoragePath      string        `env:"STORAGE_PATH" envDefault:"datastore.json"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
}

// Load reads .env files (missing ones are skipped) and then the environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("[INFO] No .env file found, falling back to system environment variables")
	}
	return parse(env.Options{})
}

// FromMap parses settings from vars only, ignoring the process environment.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Prefixes = trimAll(cfg.Prefixes)
	cfg.Owners = trimAll(cfg.Owners)
	return &cfg, nil
}

// RequireToken fails when DISCORD_TOKEN is missing.
func (c *Config) RequireToken() error {
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is not set")
	}
	return nil
}

// Policy is the default rate limit. A malformed value falls back to the
// built-in default and is logged.
func (c *Config) Policy() ratelimit.Policy {
	p, err := ratelimit.ParsePolicy(c.DefaultRatelimit)
	if err != nil {
		log.Printf("[WARN] DEFAULT_RATELIMIT: %v, using %s", err, p)
	}
	return p
}

// DispatchOptions converts the settings into dispatcher options.
func (c *Config) DispatchOptions() dispatch.Options {
	opts := dispatch.DefaultOptions()
	opts.Prefixes = c.Prefixes
	opts.MentionPrefix = c.MentionPrefix
	opts.Passive = c.Passive
	opts.IgnoreBots = c.IgnoreBots
	opts.DefaultPolicy = c.Policy()
	opts.Owners = c.Owners
	return opts
}

func (c *Config) LogFileOptions() logging.FileOptions {
	return logging.FileOptions{
		Path:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAgeDays: c.LogMaxAgeDays,
	}
}

// trimAll trims each entry and drops the ones left empty.
func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
