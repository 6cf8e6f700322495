// Package platform describes the capability surface the dispatcher consumes from
// a chat-platform client: messages, channel classes, permission resolution and
// the typing indicator side-channel.
package platform

import (
	"context"
	"time"
)

// ChannelType is the class of channel a message was sent in.
type ChannelType int

const (
	ChannelGuild ChannelType = iota
	ChannelDM
)

func (t ChannelType) String() string {
	switch t {
	case ChannelDM:
		return "dm"
	default:
		return "guild"
	}
}

// Message is a platform message reduced to what dispatching needs.
type Message struct {
	ID           string
	Content      string
	AuthorID     string
	AuthorName   string
	AuthorBot    bool
	ChannelID    string
	ChannelType  ChannelType
	GuildID      string
	GuildOwnerID string
	CreatedAt    time.Time
	EditedAt     time.Time // zero when the message was never edited
}

// InGuild reports whether the message was sent inside a guild.
func (m *Message) InGuild() bool { return m.GuildID != "" }

// IsDM reports whether the message was sent in a direct-message channel.
func (m *Message) IsDM() bool { return m.ChannelType == ChannelDM }

// Timestamp is the last-edit instant if present, else the creation instant.
func (m *Message) Timestamp() time.Time {
	if !m.EditedAt.IsZero() {
		return m.EditedAt
	}
	return m.CreatedAt
}

// Client is what the dispatcher and commands need from the platform connection.
type Client interface {
	// SelfID is the bot account's user ID. May be empty before the connection is ready.
	SelfID() string
	// MemberPermissions resolves the effective permissions of userID in channelID.
	MemberPermissions(ctx context.Context, guildID, channelID, userID string) (Permissions, error)
	// StartTyping begins a typing indicator; stop ends it and is safe to call more than once.
	StartTyping(ctx context.Context, channelID string) (stop func(), err error)
	// Reply sends a plain text message to channelID.
	Reply(ctx context.Context, channelID, content string) error
}

// EventHandler receives message events from an EventSource.
type EventHandler interface {
	MessageCreated(ctx context.Context, m *Message)
	// MessageUpdated is called on edits; old is nil when the platform has no cached copy.
	MessageUpdated(ctx context.Context, old, updated *Message)
}

// EventSource is a stream of message-created and message-updated events.
type EventSource interface {
	Subscribe(h EventHandler) (unsubscribe func())
}
