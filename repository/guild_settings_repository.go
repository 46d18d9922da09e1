package repository

import (
	"context"
	"errors"
	"fmt"

	"helios/database"
	"helios/domain/entities"

	"github.com/jackc/pgx/v5"
)

// GuildSettingsRepository implements the GuildSettingsRepository interface
type GuildSettingsRepository struct {
	q       Queryable
	guildID int64
}

// NewGuildSettingsRepository creates a new guild settings repository
func NewGuildSettingsRepository(db *database.DB, guildID int64) *GuildSettingsRepository {
	return &GuildSettingsRepository{q: db.Pool, guildID: guildID}
}

// NewGuildSettingsRepositoryScoped creates a new guild settings repository with a transaction and guild scope
func NewGuildSettingsRepositoryScoped(tx Queryable, guildID int64) *GuildSettingsRepository {
	return &GuildSettingsRepository{q: tx, guildID: guildID}
}

// GetOrCreate retrieves guild settings or creates default ones if not found
func (r *GuildSettingsRepository) GetOrCreate(ctx context.Context) (*entities.GuildSettings, error) {
	query := `
		SELECT guild_id, announcement_channel_id, court_channel_id, afk_channel_id, settings, flags
		FROM servers
		WHERE guild_id = $1`

	settings, err := scanGuildSettings(r.q.QueryRow(ctx, query, r.guildID))
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get guild settings for guild %d: %w", r.guildID, err)
	}

	insertQuery := `
		INSERT INTO servers (guild_id)
		VALUES ($1)
		ON CONFLICT (guild_id) DO UPDATE SET guild_id = EXCLUDED.guild_id
		RETURNING guild_id, announcement_channel_id, court_channel_id, afk_channel_id, settings, flags`

	settings, err = scanGuildSettings(r.q.QueryRow(ctx, insertQuery, r.guildID))
	if err != nil {
		return nil, fmt.Errorf("failed to create guild settings for guild %d: %w", r.guildID, err)
	}
	return settings, nil
}

// Update persists the settings
func (r *GuildSettingsRepository) Update(ctx context.Context, settings *entities.GuildSettings) error {
	query := `
		UPDATE servers
		SET announcement_channel_id = $2,
		    court_channel_id = $3,
		    afk_channel_id = $4,
		    settings = $5,
		    flags = $6,
		    updated_at = NOW()
		WHERE guild_id = $1`

	values := settings.Settings
	if values == nil {
		values = map[string]any{}
	}
	flags := settings.Flags
	if flags == nil {
		flags = []string{}
	}

	tag, err := r.q.Exec(ctx, query,
		r.guildID,
		settings.AnnouncementChannelID,
		settings.CourtChannelID,
		settings.AFKChannelID,
		values,
		flags,
	)
	if err != nil {
		return fmt.Errorf("failed to update guild settings for guild %d: %w", r.guildID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("guild settings for guild %d: %w", r.guildID, entities.ErrNotFound)
	}
	return nil
}

func scanGuildSettings(row pgx.Row) (*entities.GuildSettings, error) {
	var s entities.GuildSettings
	err := row.Scan(
		&s.GuildID,
		&s.AnnouncementChannelID,
		&s.CourtChannelID,
		&s.AFKChannelID,
		&s.Settings,
		&s.Flags,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
