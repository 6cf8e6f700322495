package platform

import (
	"fmt"
	"math/bits"

	"github.com/bwmarrin/discordgo"
)

// Permissions is a capability bitset using the platform's permission bits.
type Permissions int64

// Commonly required permissions.
const (
	PermAdministrator      Permissions = discordgo.PermissionAdministrator
	PermManageGuild        Permissions = discordgo.PermissionManageGuild
	PermManageMessages     Permissions = discordgo.PermissionManageMessages
	PermSendMessages       Permissions = discordgo.PermissionSendMessages
	PermEmbedLinks         Permissions = discordgo.PermissionEmbedLinks
	PermReadMessageHistory Permissions = discordgo.PermissionReadMessageHistory
)

var permissionNames = map[int64]string{
	discordgo.PermissionCreateInstantInvite:    "Create Instant Invite",
	discordgo.PermissionKickMembers:            "Kick Members",
	discordgo.PermissionBanMembers:             "Ban Members",
	discordgo.PermissionAdministrator:          "Administrator",
	discordgo.PermissionManageChannels:         "Manage Channels",
	discordgo.PermissionManageGuild:            "Manage Server",
	discordgo.PermissionAddReactions:           "Add Reactions",
	discordgo.PermissionViewAuditLogs:          "View Audit Logs",
	discordgo.PermissionViewChannel:            "View Channel",
	discordgo.PermissionSendMessages:           "Send Messages",
	discordgo.PermissionSendTTSMessages:        "Send TTS Messages",
	discordgo.PermissionManageMessages:         "Manage Messages",
	discordgo.PermissionEmbedLinks:             "Embed Links",
	discordgo.PermissionAttachFiles:            "Attach Files",
	discordgo.PermissionReadMessageHistory:     "Read Message History",
	discordgo.PermissionMentionEveryone:        "Mention Everyone",
	discordgo.PermissionUseExternalEmojis:      "Use External Emojis",
	discordgo.PermissionViewGuildInsights:      "View Guild Insights",
	discordgo.PermissionUseApplicationCommands: "Use Application Commands",
	discordgo.PermissionManageThreads:          "Manage Threads",
	discordgo.PermissionCreatePublicThreads:    "Create Public Threads",
	discordgo.PermissionCreatePrivateThreads:   "Create Private Threads",
	discordgo.PermissionUseExternalStickers:    "Use External Stickers",
	discordgo.PermissionSendMessagesInThreads:  "Send Messages in Threads",
	discordgo.PermissionVoicePrioritySpeaker:   "Priority Speaker",
	discordgo.PermissionVoiceStreamVideo:       "Stream Video",
	discordgo.PermissionVoiceConnect:           "Connect to Voice Channel",
	discordgo.PermissionVoiceSpeak:             "Speak",
	discordgo.PermissionVoiceMuteMembers:       "Mute Members",
	discordgo.PermissionVoiceDeafenMembers:     "Deafen Members",
	discordgo.PermissionVoiceMoveMembers:       "Move Members",
	discordgo.PermissionVoiceUseVAD:            "Use Voice Activity Detection",
	discordgo.PermissionVoiceRequestToSpeak:    "Request to Speak",
	discordgo.PermissionChangeNickname:         "Change Nickname",
	discordgo.PermissionManageNicknames:        "Manage Nicknames",
	discordgo.PermissionManageRoles:            "Manage Roles",
	discordgo.PermissionManageWebhooks:         "Manage Webhooks",
	discordgo.PermissionManageEvents:           "Manage Events",
	discordgo.PermissionModerateMembers:        "Moderate Members",
}

// Has reports whether every bit of q is set in p.
func (p Permissions) Has(q Permissions) bool { return p&q == q }

// Missing returns the bits of required that p lacks. Administrator satisfies everything.
func (p Permissions) Missing(required Permissions) Permissions {
	if p&PermAdministrator != 0 {
		return 0
	}
	return required &^ p
}

// Names lists a human-readable name for each set bit, lowest bit first.
func (p Permissions) Names() []string {
	var out []string
	rest := uint64(p)
	for rest != 0 {
		bit := int64(1) << bits.TrailingZeros64(rest)
		rest &^= uint64(bit)
		name, ok := permissionNames[bit]
		if !ok {
			name = fmt.Sprintf("0x%x", bit)
		}
		out = append(out, name)
	}
	return out
}
