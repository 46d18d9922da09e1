package violations

import (
	"helios/application"
	"helios/bot/common"

	"github.com/bwmarrin/discordgo"
)

// Feature lists and settles violations
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	deps       application.ServiceDeps
}

// NewFeature creates a new violations feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory, deps application.ServiceDeps) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		deps:       deps,
	}
}

// HandleCommand routes violation commands to their handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub, opts := common.Subcommand(i)
	switch sub {
	case "list":
		f.handleList(s, i, opts)
	case "pay":
		f.handlePay(s, i, opts)
	}
}
