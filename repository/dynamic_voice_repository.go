package repository

import (
	"context"
	"fmt"

	"helios/database"
	"helios/domain/entities"
)

// DynamicVoiceRepository implements the DynamicVoiceRepository interface
type DynamicVoiceRepository struct {
	q       Queryable
	guildID int64
}

// NewDynamicVoiceRepository creates a new dynamic voice repository
func NewDynamicVoiceRepository(db *database.DB, guildID int64) *DynamicVoiceRepository {
	return &DynamicVoiceRepository{q: db.Pool, guildID: guildID}
}

// NewDynamicVoiceRepositoryScoped creates a new dynamic voice repository with a transaction and guild scope
func NewDynamicVoiceRepositoryScoped(tx Queryable, guildID int64) *DynamicVoiceRepository {
	return &DynamicVoiceRepository{q: tx, guildID: guildID}
}

// GetGroups returns the guild's groups in display order
func (r *DynamicVoiceRepository) GetGroups(ctx context.Context) ([]*entities.DynamicVoiceGroup, error) {
	query := `
		SELECT id, guild_id, name, position, min_channels, min_empty, max_channels, template, game_template
		FROM dynamic_voice_groups
		WHERE guild_id = $1
		ORDER BY position, id`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get dynamic voice groups: %w", err)
	}
	defer rows.Close()

	var groups []*entities.DynamicVoiceGroup
	for rows.Next() {
		var g entities.DynamicVoiceGroup
		err := rows.Scan(&g.ID, &g.GuildID, &g.Name, &g.Position, &g.Min, &g.MinEmpty, &g.Max, &g.Template, &g.GameTemplate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dynamic voice group: %w", err)
		}
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dynamic voice groups: %w", err)
	}
	return groups, nil
}

// CreateGroup persists a group and assigns its ID
func (r *DynamicVoiceRepository) CreateGroup(ctx context.Context, group *entities.DynamicVoiceGroup) error {
	query := `
		INSERT INTO dynamic_voice_groups (guild_id, name, position, min_channels, min_empty, max_channels, template, game_template)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		group.Name,
		group.Position,
		group.Min,
		group.MinEmpty,
		group.Max,
		group.Template,
		group.GameTemplate,
	).Scan(&group.ID)
	if err != nil {
		return fmt.Errorf("failed to create dynamic voice group %q: %w", group.Name, err)
	}
	group.GuildID = r.guildID
	return nil
}

// UpdateGroup persists a group's settings
func (r *DynamicVoiceRepository) UpdateGroup(ctx context.Context, group *entities.DynamicVoiceGroup) error {
	query := `
		UPDATE dynamic_voice_groups
		SET name = $3, position = $4, min_channels = $5, min_empty = $6,
		    max_channels = $7, template = $8, game_template = $9
		WHERE guild_id = $1 AND id = $2`

	tag, err := r.q.Exec(ctx, query,
		r.guildID,
		group.ID,
		group.Name,
		group.Position,
		group.Min,
		group.MinEmpty,
		group.Max,
		group.Template,
		group.GameTemplate,
	)
	if err != nil {
		return fmt.Errorf("failed to update dynamic voice group %d: %w", group.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dynamic voice group %d: %w", group.ID, entities.ErrNotFound)
	}
	return nil
}

// DeleteGroup removes a group and, through the foreign key, its channels
func (r *DynamicVoiceRepository) DeleteGroup(ctx context.Context, groupID int64) error {
	query := `DELETE FROM dynamic_voice_groups WHERE guild_id = $1 AND id = $2`
	if _, err := r.q.Exec(ctx, query, r.guildID, groupID); err != nil {
		return fmt.Errorf("failed to delete dynamic voice group %d: %w", groupID, err)
	}
	return nil
}

// GetChannels returns every managed channel of the guild
func (r *DynamicVoiceRepository) GetChannels(ctx context.Context) ([]*entities.DynamicVoiceChannel, error) {
	query := `
		SELECT channel_id, guild_id, group_id, number, owner_id, private, custom_name
		FROM dynamic_voice_channels
		WHERE guild_id = $1
		ORDER BY group_id, number`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get dynamic voice channels: %w", err)
	}
	defer rows.Close()

	var channels []*entities.DynamicVoiceChannel
	for rows.Next() {
		var c entities.DynamicVoiceChannel
		if err := rows.Scan(&c.ChannelID, &c.GuildID, &c.GroupID, &c.Number, &c.OwnerID, &c.Private, &c.CustomName); err != nil {
			return nil, fmt.Errorf("failed to scan dynamic voice channel: %w", err)
		}
		channels = append(channels, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dynamic voice channels: %w", err)
	}
	return channels, nil
}

// CreateChannel records a newly created platform channel
func (r *DynamicVoiceRepository) CreateChannel(ctx context.Context, channel *entities.DynamicVoiceChannel) error {
	query := `
		INSERT INTO dynamic_voice_channels (channel_id, guild_id, group_id, number, owner_id, private, custom_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.q.Exec(ctx, query,
		channel.ChannelID,
		r.guildID,
		channel.GroupID,
		channel.Number,
		channel.OwnerID,
		channel.Private,
		channel.CustomName,
	)
	if err != nil {
		return fmt.Errorf("failed to create dynamic voice channel %d: %w", channel.ChannelID, err)
	}
	channel.GuildID = r.guildID
	return nil
}

// UpdateChannel persists ownership and naming of a channel
func (r *DynamicVoiceRepository) UpdateChannel(ctx context.Context, channel *entities.DynamicVoiceChannel) error {
	query := `
		UPDATE dynamic_voice_channels
		SET owner_id = $3, private = $4, custom_name = $5
		WHERE guild_id = $1 AND channel_id = $2`

	tag, err := r.q.Exec(ctx, query, r.guildID, channel.ChannelID, channel.OwnerID, channel.Private, channel.CustomName)
	if err != nil {
		return fmt.Errorf("failed to update dynamic voice channel %d: %w", channel.ChannelID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dynamic voice channel %d: %w", channel.ChannelID, entities.ErrNotFound)
	}
	return nil
}

// DeleteChannel forgets a channel
func (r *DynamicVoiceRepository) DeleteChannel(ctx context.Context, channelID int64) error {
	query := `DELETE FROM dynamic_voice_channels WHERE guild_id = $1 AND channel_id = $2`
	if _, err := r.q.Exec(ctx, query, r.guildID, channelID); err != nil {
		return fmt.Errorf("failed to delete dynamic voice channel %d: %w", channelID, err)
	}
	return nil
}

// DeleteAllChannels forgets every channel of the guild
func (r *DynamicVoiceRepository) DeleteAllChannels(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM dynamic_voice_channels WHERE guild_id = $1`, r.guildID); err != nil {
		return fmt.Errorf("failed to delete dynamic voice channels: %w", err)
	}
	return nil
}
