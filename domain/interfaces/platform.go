package interfaces

import "context"

// VoiceState is a member's current voice connection as seen by the platform
type VoiceState struct {
	ChannelID int64
	Mute      bool
	Deaf      bool
	SelfMute  bool
	SelfDeaf  bool
}

// Occupant is a member currently connected to a voice channel
type Occupant struct {
	DiscordID int64
	Bot       bool
	// Game is the name of the game the member is playing, empty when none
	Game string
}

// GuildMember is a guild member with the attributes the core engines consult
type GuildMember struct {
	DiscordID int64
	Bot       bool
	RoleIDs   []int64
}

// MemberPlatform exposes member voice state and role operations
type MemberPlatform interface {
	// VoiceState returns nil when the member is not connected to voice
	VoiceState(ctx context.Context, guildID, memberID int64) (*VoiceState, error)
	SetServerMute(ctx context.Context, guildID, memberID int64, mute bool) error
	SetServerDeaf(ctx context.Context, guildID, memberID int64, deaf bool) error
	AddRole(ctx context.Context, guildID, memberID, roleID int64) error
	RemoveRole(ctx context.Context, guildID, memberID, roleID int64) error
	Members(ctx context.Context, guildID int64) ([]GuildMember, error)
}

// ChannelPlatform exposes voice channel management
type ChannelPlatform interface {
	CreateVoiceChannel(ctx context.Context, guildID int64, name string, parentID int64) (int64, error)
	DeleteChannel(ctx context.Context, channelID int64) error
	RenameChannel(ctx context.Context, channelID int64, name string) error
	// SetChannelPositions assigns increasing positions in the given order
	SetChannelPositions(ctx context.Context, guildID int64, channelIDs []int64) error
	ChannelOccupants(ctx context.Context, guildID, channelID int64) ([]Occupant, error)
	ChannelExists(ctx context.Context, guildID, channelID int64) bool
	// SetChannelPermissions hides a private channel from everyone except the
	// allowed members; denied members lose connect on public channels too
	SetChannelPermissions(ctx context.Context, guildID, channelID int64, private bool, allowed, denied []int64) error
}

// GroupPlatform exposes the role and invite operations pick-up groups need
type GroupPlatform interface {
	CreateRole(ctx context.Context, guildID int64, name string) (int64, error)
	DeleteRole(ctx context.Context, guildID, roleID int64) error
	RoleMembers(ctx context.Context, guildID, roleID int64) ([]int64, error)
	CreateInvite(ctx context.Context, channelID int64) (string, error)
	DeleteInvite(ctx context.Context, code string) error
}

// Notifier delivers messages to members and channels
type Notifier interface {
	SendDirectMessage(ctx context.Context, discordID int64, content string) error
	SendChannelMessage(ctx context.Context, channelID int64, content string) error
}

// VoiceConnector joins and leaves voice on behalf of the bot
type VoiceConnector interface {
	JoinVoice(ctx context.Context, guildID, channelID int64) error
	LeaveVoice(ctx context.Context, guildID int64) error
}
