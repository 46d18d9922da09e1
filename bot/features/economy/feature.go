package economy

import (
	"helios/application"

	"github.com/bwmarrin/discordgo"
)

// Feature handles points, daily rewards, transfers and statistics
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	deps       application.ServiceDeps
}

// NewFeature creates a new economy feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory, deps application.ServiceDeps) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		deps:       deps,
	}
}

// HandleCommand routes economy commands to their handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "points":
		f.handlePoints(s, i)
	case "leaderboard":
		f.handleLeaderboard(s, i)
	case "daily":
		f.handleDaily(s, i)
	case "transfer":
		f.handleTransfer(s, i)
	case "stats":
		f.handleStats(s, i)
	}
}
