package voice

import (
	"context"

	"helios/application"
	"helios/bot/common"
	"helios/bot/guilds"
	"helios/domain/interfaces"

	"github.com/bwmarrin/discordgo"
)

// Platform reports where members sit in voice
type Platform interface {
	VoiceState(ctx context.Context, guildID, memberID int64) (*interfaces.VoiceState, error)
	ChannelOccupants(ctx context.Context, guildID, channelID int64) ([]interfaces.Occupant, error)
}

// Feature handles dynamic voice channels, templates and pick-up groups
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	registry   *guilds.Registry
	platform   Platform
}

// NewFeature creates a new voice feature instance
func NewFeature(
	session *discordgo.Session,
	uowFactory application.UnitOfWorkFactory,
	registry *guilds.Registry,
	platform Platform,
) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		registry:   registry,
		platform:   platform,
	}
}

// HandleCommand routes voice, pug and group commands to their handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub, opts := common.Subcommand(i)
	switch i.ApplicationCommandData().Name {
	case "voice":
		f.handleVoice(s, i, sub, opts)
	case "pug":
		f.handlePUG(s, i, sub, opts)
	case "groups":
		f.handleGroups(s, i, sub, opts)
	}
}
