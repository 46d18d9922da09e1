package interfaces

import (
	"context"
	"time"

	"helios/domain/entities"

	"github.com/google/uuid"
)

// MemberRepository defines the interface for member data access
type MemberRepository interface {
	// GetByDiscordID retrieves a member, returning nil when they have not been seen yet
	GetByDiscordID(ctx context.Context, discordID int64) (*entities.Member, error)

	// GetByDiscordIDForUpdate is GetByDiscordID with the row locked until the
	// unit of work ends. Read-modify-write paths use it.
	GetByDiscordIDForUpdate(ctx context.Context, discordID int64) (*entities.Member, error)

	// Create creates a new member with the initial points
	Create(ctx context.Context, discordID int64, initialPoints int64) (*entities.Member, error)

	// Update persists every mutable member attribute
	Update(ctx context.Context, member *entities.Member) error

	// GetAll returns all members of the guild
	GetAll(ctx context.Context) ([]*entities.Member, error)

	// GetWithUnpaidActivity returns members whose activity points exceed what
	// was paid out, locking their rows
	GetWithUnpaidActivity(ctx context.Context) ([]*entities.Member, error)

	// GetTopByPoints returns the richest members
	GetTopByPoints(ctx context.Context, limit int) ([]*entities.Member, error)
}

// TransactionRepository defines the interface for the points ledger
type TransactionRepository interface {
	// Record appends a ledger entry
	Record(ctx context.Context, tx *entities.Transaction) error

	// GetByMember returns the most recent entries for a member
	GetByMember(ctx context.Context, discordID int64, limit int) ([]*entities.Transaction, error)

	// GetByGame returns all entries tagged with a game id
	GetByGame(ctx context.Context, gameID uuid.UUID) ([]*entities.Transaction, error)
}

// StatisticRepository defines the interface for per-member counters
type StatisticRepository interface {
	// Get returns the current value, zero when the statistic does not exist
	Get(ctx context.Context, discordID int64, name string) (int64, error)

	// Increment adds delta and returns the new value
	Increment(ctx context.Context, discordID int64, name string, delta int64) (int64, error)

	// Set overwrites the value
	Set(ctx context.Context, discordID int64, name string, value int64) error

	// RecordHistory snapshots one statistic
	RecordHistory(ctx context.Context, discordID int64, name string, at time.Time) error

	// RecordAllHistory snapshots every statistic of the guild and returns the count
	RecordAllHistory(ctx context.Context, at time.Time) (int64, error)

	// ValueAt returns the latest snapshot recorded at or before at
	ValueAt(ctx context.Context, discordID int64, name string, at time.Time) (int64, bool, error)

	// GetAllByName returns the statistic for every member that has it
	GetAllByName(ctx context.Context, name string) ([]*entities.Statistic, error)
}

// ViolationRepository defines the interface for violation data access
type ViolationRepository interface {
	// Create persists a new violation and assigns its ID
	Create(ctx context.Context, violation *entities.Violation) error

	// GetByID retrieves a violation, returning nil when it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Violation, error)

	// GetOpen returns every violation that is not paid
	GetOpen(ctx context.Context) ([]*entities.Violation, error)

	// GetByUser returns the violations recorded against a member
	GetByUser(ctx context.Context, userID int64) ([]*entities.Violation, error)

	// UpdateState moves a violation from one state to another. It fails with
	// ErrInvalidState when the stored row is no longer in from.
	UpdateState(ctx context.Context, id int64, from, to entities.ViolationState) error
}

// StoreRepository defines the interface for the guild store
type StoreRepository interface {
	// Get returns the guild store, or nil when none has been created
	Get(ctx context.Context) (*entities.Store, error)

	// Save upserts the store
	Save(ctx context.Context, store *entities.Store) error
}

// InventoryRepository defines the interface for member inventories
type InventoryRepository interface {
	// Get returns the inventory, empty when the member holds nothing
	Get(ctx context.Context, discordID int64) (*entities.Inventory, error)

	// Save upserts the inventory
	Save(ctx context.Context, inventory *entities.Inventory) error
}

// EffectRepository defines the interface for effect persistence across all guilds
type EffectRepository interface {
	// Create persists an effect and assigns its ID
	Create(ctx context.Context, effect *entities.Effect) error

	// Delete removes an effect
	Delete(ctx context.Context, id int64) error

	// GetAll returns every persisted effect
	GetAll(ctx context.Context) ([]*entities.Effect, error)

	// SavePending records an expired effect whose lift waits for the target
	// to rejoin voice. Saving the same effect twice is not an error.
	SavePending(ctx context.Context, effect *entities.Effect) error

	// DeletePending forgets a recorded lift
	DeletePending(ctx context.Context, effectID int64) error

	// GetPending returns every recorded lift
	GetPending(ctx context.Context) ([]*entities.Effect, error)
}

// DynamicVoiceRepository defines the interface for dynamic voice groups and channels
type DynamicVoiceRepository interface {
	GetGroups(ctx context.Context) ([]*entities.DynamicVoiceGroup, error)
	CreateGroup(ctx context.Context, group *entities.DynamicVoiceGroup) error
	UpdateGroup(ctx context.Context, group *entities.DynamicVoiceGroup) error
	DeleteGroup(ctx context.Context, groupID int64) error

	GetChannels(ctx context.Context) ([]*entities.DynamicVoiceChannel, error)
	CreateChannel(ctx context.Context, channel *entities.DynamicVoiceChannel) error
	UpdateChannel(ctx context.Context, channel *entities.DynamicVoiceChannel) error
	DeleteChannel(ctx context.Context, channelID int64) error
	DeleteAllChannels(ctx context.Context) error
}

// ThemeRepository defines the interface for rank themes
type ThemeRepository interface {
	// GetCurrent returns the active theme, or nil
	GetCurrent(ctx context.Context) (*entities.Theme, error)

	// GetAll returns every theme of the guild
	GetAll(ctx context.Context) ([]*entities.Theme, error)

	// Create persists a theme and assigns its ID
	Create(ctx context.Context, theme *entities.Theme) error

	// SetCurrent marks one theme as active and clears the others
	SetCurrent(ctx context.Context, themeID int64) error
}

// PugRepository defines the interface for pick-up groups
type PugRepository interface {
	GetByChannel(ctx context.Context, channelID int64) (*entities.PUG, error)
	GetAll(ctx context.Context) ([]*entities.PUG, error)
	Create(ctx context.Context, pug *entities.PUG) error
	Update(ctx context.Context, pug *entities.PUG) error
	Delete(ctx context.Context, id int64) error
}

// BlackjackRepository defines the interface for blackjack game records
type BlackjackRepository interface {
	Create(ctx context.Context, record *entities.BlackjackRecord) error
	Update(ctx context.Context, record *entities.BlackjackRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.BlackjackRecord, error)
}

// GuildSettingsRepository defines the interface for server settings
type GuildSettingsRepository interface {
	// GetOrCreate returns the settings, inserting defaults on first access
	GetOrCreate(ctx context.Context) (*entities.GuildSettings, error)

	// Update persists the settings
	Update(ctx context.Context, settings *entities.GuildSettings) error
}
