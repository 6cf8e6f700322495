package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/server-herald/internal/platform"
)

type permClient struct {
	perms platform.Permissions
	err   error
	calls int
}

func (c *permClient) SelfID() string { return "bot" }
func (c *permClient) MemberPermissions(context.Context, string, string, string) (platform.Permissions, error) {
	c.calls++
	return c.perms, c.err
}
func (c *permClient) StartTyping(context.Context, string) (func(), error) { return func() {}, nil }
func (c *permClient) Reply(context.Context, string, string) error         { return nil }

var guildMsg = &platform.Message{ID: "m", AuthorID: "u", ChannelID: "c", GuildID: "g"}

func TestRequirement_Zero(t *testing.T) {
	assert.True(t, Requirement{}.IsZero())
	assert.True(t, Static(0).IsZero())
	assert.True(t, Computed(nil).IsZero())

	missing, err := Requirement{}.Check(context.Background(), NewContext(&permClient{}, guildMsg), "u")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRequirement_Static(t *testing.T) {
	client := &permClient{perms: platform.PermSendMessages}
	c := NewContext(client, guildMsg)
	req := Static(platform.PermSendMessages | platform.PermManageMessages)

	missing, err := req.Check(context.Background(), c, "u")
	require.NoError(t, err)
	assert.Equal(t, platform.PermManageMessages, missing)

	client.perms = platform.PermAdministrator
	missing, err = req.Check(context.Background(), c, "u")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRequirement_StaticOutsideGuild(t *testing.T) {
	client := &permClient{}
	dm := &platform.Message{ID: "m", AuthorID: "u", ChannelID: "d", ChannelType: platform.ChannelDM}
	missing, err := Static(platform.PermManageMessages).Check(context.Background(), NewContext(client, dm), "u")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Equal(t, 0, client.calls)
}

func TestRequirement_StaticResolveError(t *testing.T) {
	boom := errors.New("boom")
	c := NewContext(&permClient{err: boom}, guildMsg)
	_, err := Static(platform.PermSendMessages).Check(context.Background(), c, "u")
	assert.ErrorIs(t, err, boom)
}

func TestRequirement_Computed(t *testing.T) {
	c := NewContext(&permClient{}, guildMsg)

	missing, err := Computed(func(context.Context, *Context) (any, error) {
		return []string{"DJ role"}, nil
	}).Check(context.Background(), c, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"DJ role"}, missing)

	missing, err = Computed(func(context.Context, *Context) (any, error) {
		var none []string
		return none, nil
	}).Check(context.Background(), c, "u")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestChannelClass_Allows(t *testing.T) {
	dm := &platform.Message{ChannelType: platform.ChannelDM}
	assert.True(t, ChannelAny.Allows(dm))
	assert.True(t, ChannelAny.Allows(guildMsg))
	assert.True(t, ChannelGuildOnly.Allows(guildMsg))
	assert.False(t, ChannelGuildOnly.Allows(dm))
	assert.True(t, ChannelDMOnly.Allows(dm))
	assert.False(t, ChannelDMOnly.Allows(guildMsg))
}
