package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"helios/database"
	"helios/domain/entities"

	"github.com/jackc/pgx/v5"
)

// StatisticRepository implements the StatisticRepository interface
type StatisticRepository struct {
	q       Queryable
	guildID int64
}

// NewStatisticRepository creates a new statistic repository
func NewStatisticRepository(db *database.DB, guildID int64) *StatisticRepository {
	return &StatisticRepository{q: db.Pool, guildID: guildID}
}

// NewStatisticRepositoryScoped creates a new statistic repository with a transaction and guild scope
func NewStatisticRepositoryScoped(tx Queryable, guildID int64) *StatisticRepository {
	return &StatisticRepository{q: tx, guildID: guildID}
}

// Get returns the current value, zero when the statistic does not exist
func (r *StatisticRepository) Get(ctx context.Context, discordID int64, name string) (int64, error) {
	query := `
		SELECT value FROM statistics
		WHERE guild_id = $1 AND discord_id = $2 AND name = $3`

	var value int64
	err := r.q.QueryRow(ctx, query, r.guildID, discordID, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get statistic %s for %d: %w", name, discordID, err)
	}
	return value, nil
}

// Increment adds delta, creating the statistic at zero first, and returns the new value
func (r *StatisticRepository) Increment(ctx context.Context, discordID int64, name string, delta int64) (int64, error) {
	query := `
		INSERT INTO statistics (guild_id, discord_id, name, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, discord_id, name)
		DO UPDATE SET value = statistics.value + EXCLUDED.value
		RETURNING value`

	var value int64
	if err := r.q.QueryRow(ctx, query, r.guildID, discordID, name, delta).Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to increment statistic %s for %d: %w", name, discordID, err)
	}
	return value, nil
}

// Set overwrites the value
func (r *StatisticRepository) Set(ctx context.Context, discordID int64, name string, value int64) error {
	query := `
		INSERT INTO statistics (guild_id, discord_id, name, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, discord_id, name)
		DO UPDATE SET value = EXCLUDED.value`

	if _, err := r.q.Exec(ctx, query, r.guildID, discordID, name, value); err != nil {
		return fmt.Errorf("failed to set statistic %s for %d: %w", name, discordID, err)
	}
	return nil
}

// RecordHistory snapshots one statistic. A statistic that does not exist yet
// is created at zero so the snapshot has something to point at.
func (r *StatisticRepository) RecordHistory(ctx context.Context, discordID int64, name string, at time.Time) error {
	query := `
		WITH stat AS (
			INSERT INTO statistics (guild_id, discord_id, name, value)
			VALUES ($1, $2, $3, 0)
			ON CONFLICT (guild_id, discord_id, name)
			DO UPDATE SET value = statistics.value
			RETURNING id, value
		)
		INSERT INTO statistic_history (statistic_id, value, recorded_at)
		SELECT id, value, $4 FROM stat`

	if _, err := r.q.Exec(ctx, query, r.guildID, discordID, name, at); err != nil {
		return fmt.Errorf("failed to record history of %s for %d: %w", name, discordID, err)
	}
	return nil
}

// RecordAllHistory snapshots every statistic of the guild and returns the count
func (r *StatisticRepository) RecordAllHistory(ctx context.Context, at time.Time) (int64, error) {
	query := `
		INSERT INTO statistic_history (statistic_id, value, recorded_at)
		SELECT id, value, $2 FROM statistics
		WHERE guild_id = $1`

	tag, err := r.q.Exec(ctx, query, r.guildID, at)
	if err != nil {
		return 0, fmt.Errorf("failed to snapshot statistics for guild %d: %w", r.guildID, err)
	}
	return tag.RowsAffected(), nil
}

// ValueAt returns the latest snapshot recorded at or before at
func (r *StatisticRepository) ValueAt(ctx context.Context, discordID int64, name string, at time.Time) (int64, bool, error) {
	query := `
		SELECT h.value
		FROM statistic_history h
		JOIN statistics s ON s.id = h.statistic_id
		WHERE s.guild_id = $1 AND s.discord_id = $2 AND s.name = $3 AND h.recorded_at <= $4
		ORDER BY h.recorded_at DESC, h.id DESC
		LIMIT 1`

	var value int64
	err := r.q.QueryRow(ctx, query, r.guildID, discordID, name, at).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get %s at %s for %d: %w", name, at, discordID, err)
	}
	return value, true, nil
}

// GetAllByName returns the statistic for every member that has it, highest first
func (r *StatisticRepository) GetAllByName(ctx context.Context, name string) ([]*entities.Statistic, error) {
	query := `
		SELECT id, guild_id, discord_id, name, value
		FROM statistics
		WHERE guild_id = $1 AND name = $2
		ORDER BY value DESC, discord_id`

	rows, err := r.q.Query(ctx, query, r.guildID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get statistic %s: %w", name, err)
	}
	defer rows.Close()

	var stats []*entities.Statistic
	for rows.Next() {
		var s entities.Statistic
		if err := rows.Scan(&s.ID, &s.GuildID, &s.DiscordID, &s.Name, &s.Value); err != nil {
			return nil, fmt.Errorf("failed to scan statistic: %w", err)
		}
		stats = append(stats, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statistics: %w", err)
	}
	return stats, nil
}
