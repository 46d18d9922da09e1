package settings

import (
	"helios/application"
	"helios/bot/guilds"

	"github.com/bwmarrin/discordgo"
)

// Feature handles guild settings and rank themes
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	deps       application.ServiceDeps
	registry   *guilds.Registry
}

// NewFeature creates a new settings feature instance
func NewFeature(
	session *discordgo.Session,
	uowFactory application.UnitOfWorkFactory,
	deps application.ServiceDeps,
	registry *guilds.Registry,
) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		deps:       deps,
		registry:   registry,
	}
}

// HandleCommand routes settings and theme commands to appropriate handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "settings":
		f.handleSettings(s, i)
	case "theme":
		f.handleTheme(s, i)
	}
}
