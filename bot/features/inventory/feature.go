package inventory

import (
	"helios/application"

	"github.com/bwmarrin/discordgo"
)

// Feature shows member inventories and opens loot crates
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	deps       application.ServiceDeps
}

// NewFeature creates a new inventory feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory, deps application.ServiceDeps) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		deps:       deps,
	}
}

// HandleCommand routes inventory commands to their handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "inventory":
		f.handleInventory(s, i)
	case "lootcrate":
		f.handleLootCrate(s, i)
	}
}
