package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keshon/server-herald/internal/platform"
)

func TestTarget(t *testing.T) {
	guild := &platform.Message{AuthorID: "u1", ChannelID: "c1", GuildID: "g1", ChannelType: platform.ChannelGuild}
	dm := &platform.Message{AuthorID: "u1", ChannelID: "d1", ChannelType: platform.ChannelDM}

	assert.Equal(t, "u1", Target(ScopeUser, guild))
	assert.Equal(t, "c1", Target(ScopeChannel, guild))
	assert.Equal(t, "g1", Target(ScopeGuild, guild))

	assert.Equal(t, "u1", Target(ScopeUser, dm))
	assert.Equal(t, "u1", Target(ScopeChannel, dm))
	assert.Equal(t, "u1", Target(ScopeGuild, dm))
}
