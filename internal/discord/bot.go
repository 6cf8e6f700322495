// Package discord connects the dispatcher to a Discord gateway session.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"

	"github.com/keshon/server-herald/internal/platform"
	"github.com/keshon/server-herald/pkg/retrylimit"
)

type Options struct {
	Token string
	// MessageCache is how many messages per channel the state keeps so edits
	// arrive with their previous version. Zero means 100.
	MessageCache   int
	TypingInterval time.Duration
	Clock          clockwork.Clock
}

// Bot is a Discord session exposed as a platform client and event source.
type Bot struct {
	dg          *discordgo.Session
	retry       *retrylimit.Retrier
	clock       clockwork.Clock
	typingEvery time.Duration

	mu       sync.RWMutex
	ctx      context.Context
	handlers map[int]platform.EventHandler
	nextID   int
}

var (
	_ platform.Client      = (*Bot)(nil)
	_ platform.EventSource = (*Bot)(nil)
)

// NewBot creates the session without connecting. Call Run to open it.
func NewBot(opts Options) (*Bot, error) {
	if opts.Token == "" {
		return nil, errors.New("discord token is empty")
	}
	dg, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.MessageCache <= 0 {
		opts.MessageCache = 100
	}
	if opts.TypingInterval <= 0 {
		opts.TypingInterval = defaultTypingInterval
	}

	b := &Bot{
		dg:          dg,
		retry:       newRetrier(opts.Clock),
		clock:       opts.Clock,
		typingEvery: opts.TypingInterval,
		ctx:         context.Background(),
		handlers:    make(map[int]platform.EventHandler),
	}

	dg.State.MaxMessageCount = opts.MessageCache
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onMessageCreate)
	dg.AddHandler(b.onMessageUpdate)
	return b, nil
}

// Run opens the gateway and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Closing Discord session...")
	return nil
}

// Session exposes the underlying discordgo session.
func (b *Bot) Session() *discordgo.Session { return b.dg }

func (b *Bot) SelfID() string {
	if b.dg.State == nil || b.dg.State.User == nil {
		return ""
	}
	return b.dg.State.User.ID
}

func (b *Bot) MemberPermissions(ctx context.Context, guildID, channelID, userID string) (platform.Permissions, error) {
	var perms int64
	err := b.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		perms, err = b.dg.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("permissions of %s in %s/%s: %w", userID, guildID, channelID, err)
	}
	return platform.Permissions(perms), nil
}

func (b *Bot) StartTyping(ctx context.Context, channelID string) (func(), error) {
	return startTyping(ctx, b.clock, b.typingEvery, func(ctx context.Context) error {
		return b.dg.ChannelTyping(channelID, discordgo.WithContext(ctx))
	})
}

// Reply sends content as a plain message. Content over the platform limit is split.
func (b *Bot) Reply(ctx context.Context, channelID, content string) error {
	for _, part := range splitContent(content, maxMessageLength) {
		err := b.retry.Do(ctx, func(ctx context.Context) error {
			_, err := b.dg.ChannelMessageSend(channelID, part, discordgo.WithContext(ctx))
			return err
		})
		if err != nil {
			return fmt.Errorf("send to %s: %w", channelID, err)
		}
	}
	return nil
}

// Subscribe registers h for message events until the returned func is called.
func (b *Bot) Subscribe(h platform.EventHandler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

func (b *Bot) snapshot() (context.Context, []platform.EventHandler) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]platform.EventHandler, 0, len(b.handlers))
	for _, h := range b.handlers {
		hs = append(hs, h)
	}
	return b.ctx, hs
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	name := ""
	if r.User != nil {
		name = r.User.Username
	}
	log.Printf("[INFO] ✅ Discord bot %v is running in %d guilds.", name, len(r.Guilds))
}

func (b *Bot) onMessageCreate(s *discordgo.Session, e *discordgo.MessageCreate) {
	m := toMessage(s.State, e.Message)
	if m == nil {
		return
	}
	ctx, hs := b.snapshot()
	for _, h := range hs {
		h.MessageCreated(ctx, m)
	}
}

func (b *Bot) onMessageUpdate(s *discordgo.Session, e *discordgo.MessageUpdate) {
	updated := toMessage(s.State, e.Message)
	if updated == nil {
		return
	}
	old := toMessage(s.State, e.BeforeUpdate)
	ctx, hs := b.snapshot()
	for _, h := range hs {
		h.MessageUpdated(ctx, old, updated)
	}
}
