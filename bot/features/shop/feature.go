package shop

import (
	"helios/application"
	"helios/bot/common"

	"github.com/bwmarrin/discordgo"
)

// Feature handles the guild store, effect purchases and item use
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	deps       application.ServiceDeps
	effects    *application.EffectShop
}

// NewFeature creates a new shop feature instance
func NewFeature(
	session *discordgo.Session,
	uowFactory application.UnitOfWorkFactory,
	deps application.ServiceDeps,
	effects *application.EffectShop,
) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		deps:       deps,
		effects:    effects,
	}
}

// HandleCommand routes shop commands to their handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "store":
		sub, opts := common.Subcommand(i)
		switch sub {
		case "show":
			f.handleShow(s, i)
		case "buy":
			f.handleBuy(s, i, opts)
		}
	case "effect":
		f.handleEffect(s, i)
	case "use":
		f.handleUse(s, i)
	}
}
