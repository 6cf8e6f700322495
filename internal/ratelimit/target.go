package ratelimit

import "github.com/keshon/server-herald/internal/platform"

// Target resolves the key an attempt is counted against.
// Channel scope counts DMs per author; guild scope falls back to the author
// outside guilds.
func Target(scope Scope, m *platform.Message) string {
	switch scope {
	case ScopeChannel:
		if m.IsDM() {
			return m.AuthorID
		}
		return m.ChannelID
	case ScopeGuild:
		if m.GuildID != "" {
			return m.GuildID
		}
		return m.AuthorID
	default:
		return m.AuthorID
	}
}
