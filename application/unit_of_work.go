package application

import (
	"context"

	"helios/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and publishes the buffered events
	Commit() error

	// Rollback rolls back the transaction and drops the buffered events
	Rollback() error

	// Repository getters
	MemberRepository() interfaces.MemberRepository
	TransactionRepository() interfaces.TransactionRepository
	StatisticRepository() interfaces.StatisticRepository
	ViolationRepository() interfaces.ViolationRepository
	StoreRepository() interfaces.StoreRepository
	InventoryRepository() interfaces.InventoryRepository
	ThemeRepository() interfaces.ThemeRepository
	BlackjackRepository() interfaces.BlackjackRepository
	GuildSettingsRepository() interfaces.GuildSettingsRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// CreateForGuild creates a new UnitOfWork instance scoped to a specific guild
	CreateForGuild(guildID int64) UnitOfWork
}
