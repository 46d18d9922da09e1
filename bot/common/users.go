package common

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// ParseUserID converts a Discord user ID string to int64
func ParseUserID(userID string) (int64, error) {
	return strconv.ParseInt(userID, 10, 64)
}

// FormatUserID converts an int64 user ID to string
func FormatUserID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// GetUserMention returns a Discord mention string for a user
func GetUserMention(userID int64) string {
	return "<@" + FormatUserID(userID) + ">"
}

// GetChannelMention returns a Discord mention string for a channel
func GetChannelMention(channelID int64) string {
	return "<#" + FormatUserID(channelID) + ">"
}

// InteractionIDs extracts the guild and invoking member ids of an interaction
func InteractionIDs(i *discordgo.InteractionCreate) (guildID, userID int64, err error) {
	if i.Member == nil || i.Member.User == nil {
		return 0, 0, NewUserError("This command only works inside a server.", "interaction without member")
	}
	guildID, err = strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		return 0, 0, NewSystemError(err, fmt.Sprintf("invalid guild id %q", i.GuildID))
	}
	userID, err = ParseUserID(i.Member.User.ID)
	if err != nil {
		return 0, 0, NewSystemError(err, fmt.Sprintf("invalid user id %q", i.Member.User.ID))
	}
	return guildID, userID, nil
}

// IsUserAdmin checks if a user has administrator permissions in a guild
func IsUserAdmin(s *discordgo.Session, guildID, userID string) bool {
	member, err := s.State.Member(guildID, userID)
	if err != nil {
		member, err = s.GuildMember(guildID, userID)
		if err != nil {
			log.Errorf("Failed to get guild member: %v", err)
			return false
		}
	}

	guild, err := s.State.Guild(guildID)
	if err == nil && guild.OwnerID == userID {
		return true
	}

	// Check each role for admin permissions
	for _, roleID := range member.Roles {
		role, err := s.State.Role(guildID, roleID)
		if err != nil {
			continue
		}
		if role.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}

	return false
}
