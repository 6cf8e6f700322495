package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/server-herald/internal/platform"
)

// toMessage reduces a discordgo message to a platform message. The state is
// consulted for the channel class and the guild owner; st may be nil.
// Returns nil for messages without an author (partial updates, embeds resolving).
func toMessage(st *discordgo.State, m *discordgo.Message) *platform.Message {
	if m == nil || m.Author == nil {
		return nil
	}

	out := &platform.Message{
		ID:          m.ID,
		Content:     m.Content,
		AuthorID:    m.Author.ID,
		AuthorName:  m.Author.Username,
		AuthorBot:   m.Author.Bot,
		ChannelID:   m.ChannelID,
		ChannelType: channelType(st, m),
		GuildID:     m.GuildID,
		CreatedAt:   m.Timestamp,
	}
	if m.EditedTimestamp != nil {
		out.EditedAt = *m.EditedTimestamp
	}
	if out.GuildID != "" && st != nil {
		if g, err := st.Guild(out.GuildID); err == nil && g != nil {
			out.GuildOwnerID = g.OwnerID
		}
	}
	return out
}

func channelType(st *discordgo.State, m *discordgo.Message) platform.ChannelType {
	if st != nil {
		if ch, err := st.Channel(m.ChannelID); err == nil && ch != nil {
			switch ch.Type {
			case discordgo.ChannelTypeDM, discordgo.ChannelTypeGroupDM:
				return platform.ChannelDM
			default:
				return platform.ChannelGuild
			}
		}
	}
	// Gateway messages only omit guild_id in private channels.
	if m.GuildID == "" {
		return platform.ChannelDM
	}
	return platform.ChannelGuild
}
