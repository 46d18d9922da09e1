package application

import (
	"context"

	"helios/domain/interfaces"
	"helios/events"
)

// GuildDiscovery lists the guilds the bot currently serves
type GuildDiscovery interface {
	GuildIDs(ctx context.Context) ([]int64, error)
}

// VoiceRoster reports who sits in which voice channel of a guild
type VoiceRoster interface {
	// VoiceOccupancy returns the occupants of every voice channel that has any
	VoiceOccupancy(ctx context.Context, guildID int64) (map[int64][]interfaces.Occupant, error)
}

// EventSubscriber registers handlers for domain events
type EventSubscriber interface {
	Subscribe(eventType events.EventType, handler events.Handler)
}
