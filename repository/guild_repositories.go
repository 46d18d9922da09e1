package repository

import (
	"helios/database"
	"helios/domain/interfaces"
)

// GuildRepositories hands out pool-backed repositories for the long-lived
// engines that keep their own state outside a unit of work
type GuildRepositories struct {
	db *database.DB
}

// NewGuildRepositories creates a repository source over db
func NewGuildRepositories(db *database.DB) *GuildRepositories {
	return &GuildRepositories{db: db}
}

// DynamicVoiceRepository returns the dynamic voice repository of a guild
func (r *GuildRepositories) DynamicVoiceRepository(guildID int64) interfaces.DynamicVoiceRepository {
	return NewDynamicVoiceRepository(r.db, guildID)
}

// PugRepository returns the pick-up group repository of a guild
func (r *GuildRepositories) PugRepository(guildID int64) interfaces.PugRepository {
	return NewPugRepository(r.db, guildID)
}

// BlackjackRepository returns the blackjack record repository of a guild
func (r *GuildRepositories) BlackjackRepository(guildID int64) interfaces.BlackjackRepository {
	return NewBlackjackRepository(r.db, guildID)
}

// EffectRepository returns the effect repository shared by every guild
func (r *GuildRepositories) EffectRepository() interfaces.EffectRepository {
	return NewEffectRepository(r.db)
}
