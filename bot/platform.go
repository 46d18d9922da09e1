package bot

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"helios/domain/interfaces"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// Discord allows two name edits per channel every ten minutes; the
	// limiter keeps the whole bot well below the shared route budget
	renameInterval = 5 * time.Second
	renameBurst    = 2

	connectPermissions = discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect
)

// Platform adapts a discordgo session to the platform interfaces the core
// engines depend on
type Platform struct {
	session       *discordgo.Session
	renameLimiter *rate.Limiter
}

var (
	_ interfaces.MemberPlatform  = (*Platform)(nil)
	_ interfaces.ChannelPlatform = (*Platform)(nil)
	_ interfaces.GroupPlatform   = (*Platform)(nil)
	_ interfaces.Notifier        = (*Platform)(nil)
	_ interfaces.VoiceConnector  = (*Platform)(nil)
)

// NewPlatform creates a platform adapter over session
func NewPlatform(session *discordgo.Session) *Platform {
	return &Platform{
		session:       session,
		renameLimiter: rate.NewLimiter(rate.Every(renameInterval), renameBurst),
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(id string) int64 {
	v, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// VoiceState returns the member's cached voice state, nil when not connected
func (p *Platform) VoiceState(ctx context.Context, guildID, memberID int64) (*interfaces.VoiceState, error) {
	vs, err := p.session.State.VoiceState(formatID(guildID), formatID(memberID))
	if err != nil {
		if err == discordgo.ErrStateNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read voice state of %d: %w", memberID, err)
	}
	if vs.ChannelID == "" {
		return nil, nil
	}
	return &interfaces.VoiceState{
		ChannelID: parseID(vs.ChannelID),
		Mute:      vs.Mute,
		Deaf:      vs.Deaf,
		SelfMute:  vs.SelfMute,
		SelfDeaf:  vs.SelfDeaf,
	}, nil
}

// SetServerMute server-mutes or unmutes a member
func (p *Platform) SetServerMute(ctx context.Context, guildID, memberID int64, mute bool) error {
	if err := p.session.GuildMemberMute(formatID(guildID), formatID(memberID), mute); err != nil {
		return fmt.Errorf("failed to set mute=%t on %d: %w", mute, memberID, err)
	}
	return nil
}

// SetServerDeaf server-deafens or undeafens a member
func (p *Platform) SetServerDeaf(ctx context.Context, guildID, memberID int64, deaf bool) error {
	if err := p.session.GuildMemberDeafen(formatID(guildID), formatID(memberID), deaf); err != nil {
		return fmt.Errorf("failed to set deaf=%t on %d: %w", deaf, memberID, err)
	}
	return nil
}

// AddRole gives a member a role
func (p *Platform) AddRole(ctx context.Context, guildID, memberID, roleID int64) error {
	if err := p.session.GuildMemberRoleAdd(formatID(guildID), formatID(memberID), formatID(roleID)); err != nil {
		return fmt.Errorf("failed to add role %d to %d: %w", roleID, memberID, err)
	}
	return nil
}

// RemoveRole takes a role from a member
func (p *Platform) RemoveRole(ctx context.Context, guildID, memberID, roleID int64) error {
	if err := p.session.GuildMemberRoleRemove(formatID(guildID), formatID(memberID), formatID(roleID)); err != nil {
		return fmt.Errorf("failed to remove role %d from %d: %w", roleID, memberID, err)
	}
	return nil
}

// Members pages through every guild member
func (p *Platform) Members(ctx context.Context, guildID int64) ([]interfaces.GuildMember, error) {
	var (
		result []interfaces.GuildMember
		after  string
	)
	for {
		page, err := p.session.GuildMembers(formatID(guildID), after, 1000)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of guild %d: %w", guildID, err)
		}
		for _, m := range page {
			result = append(result, toGuildMember(m))
		}
		if len(page) < 1000 {
			return result, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func toGuildMember(m *discordgo.Member) interfaces.GuildMember {
	gm := interfaces.GuildMember{
		DiscordID: parseID(m.User.ID),
		Bot:       m.User.Bot,
	}
	for _, r := range m.Roles {
		gm.RoleIDs = append(gm.RoleIDs, parseID(r))
	}
	return gm
}

// CreateVoiceChannel creates a voice channel under parentID
func (p *Platform) CreateVoiceChannel(ctx context.Context, guildID int64, name string, parentID int64) (int64, error) {
	data := discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildVoice,
	}
	if parentID != 0 {
		data.ParentID = formatID(parentID)
	}
	ch, err := p.session.GuildChannelCreateComplex(formatID(guildID), data)
	if err != nil {
		return 0, fmt.Errorf("failed to create voice channel %q: %w", name, err)
	}
	return parseID(ch.ID), nil
}

// DeleteChannel deletes a channel
func (p *Platform) DeleteChannel(ctx context.Context, channelID int64) error {
	if _, err := p.session.ChannelDelete(formatID(channelID)); err != nil {
		return fmt.Errorf("failed to delete channel %d: %w", channelID, err)
	}
	return nil
}

// RenameChannel renames a channel, waiting for the rename budget
func (p *Platform) RenameChannel(ctx context.Context, channelID int64, name string) error {
	if err := p.renameLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rename of channel %d not attempted: %w", channelID, err)
	}
	if _, err := p.session.ChannelEdit(formatID(channelID), &discordgo.ChannelEdit{Name: name}); err != nil {
		return fmt.Errorf("failed to rename channel %d: %w", channelID, err)
	}
	return nil
}

// SetChannelPositions assigns increasing positions in the given order
func (p *Platform) SetChannelPositions(ctx context.Context, guildID int64, channelIDs []int64) error {
	channels := make([]*discordgo.Channel, 0, len(channelIDs))
	for i, id := range channelIDs {
		channels = append(channels, &discordgo.Channel{ID: formatID(id), Position: i})
	}
	if err := p.session.GuildChannelsReorder(formatID(guildID), channels); err != nil {
		return fmt.Errorf("failed to reorder %d channels: %w", len(channels), err)
	}
	return nil
}

// ChannelOccupants lists the members connected to a voice channel
func (p *Platform) ChannelOccupants(ctx context.Context, guildID, channelID int64) ([]interfaces.Occupant, error) {
	occupancy, err := p.VoiceOccupancy(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return occupancy[channelID], nil
}

// ChannelExists reports whether the channel is still known to the platform
func (p *Platform) ChannelExists(ctx context.Context, guildID, channelID int64) bool {
	if _, err := p.session.State.Channel(formatID(channelID)); err == nil {
		return true
	}
	ch, err := p.session.Channel(formatID(channelID))
	return err == nil && ch.GuildID == formatID(guildID)
}

// SetChannelPermissions rewrites the member overwrites of a channel. A
// private channel hides from @everyone and admits the allowed members;
// denied members lose connect either way.
func (p *Platform) SetChannelPermissions(ctx context.Context, guildID, channelID int64, private bool, allowed, denied []int64) error {
	ch, err := p.session.Channel(formatID(channelID))
	if err != nil {
		return fmt.Errorf("failed to read channel %d: %w", channelID, err)
	}

	desired := desiredOverwrites(guildID, private, allowed, denied)
	for _, ow := range staleOverwrites(ch.PermissionOverwrites, desired) {
		if err := p.session.ChannelPermissionDelete(ch.ID, ow); err != nil {
			log.WithField("channelID", channelID).Warnf("Failed to drop overwrite for %s: %v", ow, err)
		}
	}

	for _, ow := range desired {
		if err := p.session.ChannelPermissionSet(ch.ID, ow.ID, ow.Type, ow.Allow, ow.Deny); err != nil {
			return fmt.Errorf("failed to set overwrite for %s on channel %d: %w", ow.ID, channelID, err)
		}
	}
	return nil
}

// desiredOverwrites computes the overwrites a channel should carry. The
// @everyone role shares the guild's id.
func desiredOverwrites(guildID int64, private bool, allowed, denied []int64) []*discordgo.PermissionOverwrite {
	everyone := &discordgo.PermissionOverwrite{
		ID:   formatID(guildID),
		Type: discordgo.PermissionOverwriteTypeRole,
	}
	if private {
		everyone.Deny = connectPermissions
	}
	overwrites := []*discordgo.PermissionOverwrite{everyone}

	if private {
		for _, id := range allowed {
			if slices.Contains(denied, id) {
				continue
			}
			overwrites = append(overwrites, &discordgo.PermissionOverwrite{
				ID:    formatID(id),
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: connectPermissions,
			})
		}
	}
	for _, id := range denied {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:   formatID(id),
			Type: discordgo.PermissionOverwriteTypeMember,
			Deny: discordgo.PermissionVoiceConnect,
		})
	}
	return overwrites
}

// staleOverwrites returns member overwrites that no longer belong on the channel
func staleOverwrites(current, desired []*discordgo.PermissionOverwrite) []string {
	keep := make(map[string]bool, len(desired))
	for _, ow := range desired {
		keep[ow.ID] = true
	}
	var stale []string
	for _, ow := range current {
		if ow.Type == discordgo.PermissionOverwriteTypeMember && !keep[ow.ID] {
			stale = append(stale, ow.ID)
		}
	}
	return stale
}

// CreateRole creates a mentionable role
func (p *Platform) CreateRole(ctx context.Context, guildID int64, name string) (int64, error) {
	mentionable := true
	role, err := p.session.GuildRoleCreate(formatID(guildID), &discordgo.RoleParams{
		Name:        name,
		Mentionable: &mentionable,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create role %q: %w", name, err)
	}
	return parseID(role.ID), nil
}

// DeleteRole deletes a role
func (p *Platform) DeleteRole(ctx context.Context, guildID, roleID int64) error {
	if err := p.session.GuildRoleDelete(formatID(guildID), formatID(roleID)); err != nil {
		return fmt.Errorf("failed to delete role %d: %w", roleID, err)
	}
	return nil
}

// RoleMembers lists cached members holding a role
func (p *Platform) RoleMembers(ctx context.Context, guildID, roleID int64) ([]int64, error) {
	guild, err := p.session.State.Guild(formatID(guildID))
	if err != nil {
		return nil, fmt.Errorf("guild %d not in state: %w", guildID, err)
	}

	p.session.State.RLock()
	defer p.session.State.RUnlock()

	role := formatID(roleID)
	var ids []int64
	for _, m := range guild.Members {
		if slices.Contains(m.Roles, role) {
			ids = append(ids, parseID(m.User.ID))
		}
	}
	return ids, nil
}

// CreateInvite creates a permanent, reusable invite to a channel
func (p *Platform) CreateInvite(ctx context.Context, channelID int64) (string, error) {
	invite, err := p.session.ChannelInviteCreate(formatID(channelID), discordgo.Invite{
		MaxAge:  0,
		MaxUses: 0,
		Unique:  true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create invite for channel %d: %w", channelID, err)
	}
	return invite.Code, nil
}

// DeleteInvite revokes an invite
func (p *Platform) DeleteInvite(ctx context.Context, code string) error {
	if _, err := p.session.InviteDelete(code); err != nil {
		return fmt.Errorf("failed to delete invite %s: %w", code, err)
	}
	return nil
}

// SendDirectMessage sends a DM to a member
func (p *Platform) SendDirectMessage(ctx context.Context, discordID int64, content string) error {
	ch, err := p.session.UserChannelCreate(formatID(discordID))
	if err != nil {
		return fmt.Errorf("failed to open DM with %d: %w", discordID, err)
	}
	if _, err := p.session.ChannelMessageSend(ch.ID, content); err != nil {
		return fmt.Errorf("failed to DM %d: %w", discordID, err)
	}
	return nil
}

// SendChannelMessage posts a message to a channel
func (p *Platform) SendChannelMessage(ctx context.Context, channelID int64, content string) error {
	if _, err := p.session.ChannelMessageSend(formatID(channelID), content); err != nil {
		return fmt.Errorf("failed to post to channel %d: %w", channelID, err)
	}
	return nil
}

// JoinVoice connects the bot to a voice channel
func (p *Platform) JoinVoice(ctx context.Context, guildID, channelID int64) error {
	if _, err := p.session.ChannelVoiceJoin(formatID(guildID), formatID(channelID), false, true); err != nil {
		return fmt.Errorf("failed to join voice channel %d: %w", channelID, err)
	}
	return nil
}

// LeaveVoice disconnects the bot from voice in a guild
func (p *Platform) LeaveVoice(ctx context.Context, guildID int64) error {
	p.session.RLock()
	vc, ok := p.session.VoiceConnections[formatID(guildID)]
	p.session.RUnlock()
	if !ok {
		return nil
	}
	if err := vc.Disconnect(); err != nil {
		return fmt.Errorf("failed to leave voice in guild %d: %w", guildID, err)
	}
	return nil
}

// VoiceOccupancy groups the cached voice states of a guild by channel
func (p *Platform) VoiceOccupancy(ctx context.Context, guildID int64) (map[int64][]interfaces.Occupant, error) {
	guild, err := p.session.State.Guild(formatID(guildID))
	if err != nil {
		return nil, fmt.Errorf("guild %d not in state: %w", guildID, err)
	}

	p.session.State.RLock()
	defer p.session.State.RUnlock()
	return occupancyFromGuild(guild), nil
}

func occupancyFromGuild(guild *discordgo.Guild) map[int64][]interfaces.Occupant {
	members := make(map[string]*discordgo.Member, len(guild.Members))
	for _, m := range guild.Members {
		if m.User != nil {
			members[m.User.ID] = m
		}
	}
	presences := make(map[string]*discordgo.Presence, len(guild.Presences))
	for _, pr := range guild.Presences {
		if pr.User != nil {
			presences[pr.User.ID] = pr
		}
	}

	occupancy := make(map[int64][]interfaces.Occupant)
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == "" {
			continue
		}
		occ := interfaces.Occupant{DiscordID: parseID(vs.UserID)}
		if m, ok := members[vs.UserID]; ok {
			occ.Bot = m.User.Bot
		} else if vs.Member != nil && vs.Member.User != nil {
			occ.Bot = vs.Member.User.Bot
		}
		occ.Game = gameOf(presences[vs.UserID])
		channelID := parseID(vs.ChannelID)
		occupancy[channelID] = append(occupancy[channelID], occ)
	}
	return occupancy
}

// gameOf returns the name of the game a presence is playing
func gameOf(presence *discordgo.Presence) string {
	if presence == nil {
		return ""
	}
	for _, a := range presence.Activities {
		if a != nil && a.Type == discordgo.ActivityTypeGame {
			return a.Name
		}
	}
	return ""
}

// GuildIDs lists the guilds in the session state
func (p *Platform) GuildIDs(ctx context.Context) ([]int64, error) {
	p.session.State.RLock()
	defer p.session.State.RUnlock()

	ids := make([]int64, 0, len(p.session.State.Guilds))
	for _, g := range p.session.State.Guilds {
		if id := parseID(g.ID); id != 0 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
