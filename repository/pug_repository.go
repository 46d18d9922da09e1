package repository

import (
	"context"
	"errors"
	"fmt"

	"helios/database"
	"helios/domain/entities"

	"github.com/jackc/pgx/v5"
)

const pugColumns = `id, guild_id, channel_id, role_id, invite_code, server_members, temporary_members, effect_id, created_at`

// PugRepository implements the PugRepository interface
type PugRepository struct {
	q       Queryable
	guildID int64
}

// NewPugRepository creates a new PUG repository
func NewPugRepository(db *database.DB, guildID int64) *PugRepository {
	return &PugRepository{q: db.Pool, guildID: guildID}
}

// NewPugRepositoryScoped creates a new PUG repository with a transaction and guild scope
func NewPugRepositoryScoped(tx Queryable, guildID int64) *PugRepository {
	return &PugRepository{q: tx, guildID: guildID}
}

// GetByChannel returns the PUG bound to a voice channel, or nil
func (r *PugRepository) GetByChannel(ctx context.Context, channelID int64) (*entities.PUG, error) {
	query := `SELECT ` + pugColumns + ` FROM pugs WHERE guild_id = $1 AND channel_id = $2`

	pug, err := scanPUG(r.q.QueryRow(ctx, query, r.guildID, channelID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get PUG for channel %d: %w", channelID, err)
	}
	return pug, nil
}

// GetAll returns every PUG of the guild
func (r *PugRepository) GetAll(ctx context.Context) ([]*entities.PUG, error) {
	query := `SELECT ` + pugColumns + ` FROM pugs WHERE guild_id = $1 ORDER BY id`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get PUGs for guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	var pugs []*entities.PUG
	for rows.Next() {
		pug, err := scanPUG(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan PUG: %w", err)
		}
		pugs = append(pugs, pug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating PUGs: %w", err)
	}
	return pugs, nil
}

// Create persists a PUG and assigns its ID
func (r *PugRepository) Create(ctx context.Context, pug *entities.PUG) error {
	query := `
		INSERT INTO pugs (guild_id, channel_id, role_id, invite_code, server_members, temporary_members, effect_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		pug.ChannelID,
		pug.RoleID,
		pug.InviteCode,
		nonNilIDs(pug.ServerMembers),
		nonNilIDs(pug.TemporaryMembers),
		pug.EffectID,
	).Scan(&pug.ID, &pug.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create PUG for channel %d: %w", pug.ChannelID, err)
	}
	pug.GuildID = r.guildID
	return nil
}

// Update persists the roster and invite of a PUG
func (r *PugRepository) Update(ctx context.Context, pug *entities.PUG) error {
	query := `
		UPDATE pugs
		SET role_id = $3, invite_code = $4, server_members = $5, temporary_members = $6, effect_id = $7
		WHERE guild_id = $1 AND id = $2`

	tag, err := r.q.Exec(ctx, query,
		r.guildID,
		pug.ID,
		pug.RoleID,
		pug.InviteCode,
		nonNilIDs(pug.ServerMembers),
		nonNilIDs(pug.TemporaryMembers),
		pug.EffectID,
	)
	if err != nil {
		return fmt.Errorf("failed to update PUG %d: %w", pug.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("PUG %d: %w", pug.ID, entities.ErrNotFound)
	}
	return nil
}

// Delete removes a PUG
func (r *PugRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM pugs WHERE guild_id = $1 AND id = $2`, r.guildID, id); err != nil {
		return fmt.Errorf("failed to delete PUG %d: %w", id, err)
	}
	return nil
}

func scanPUG(row pgx.Row) (*entities.PUG, error) {
	var p entities.PUG
	err := row.Scan(
		&p.ID,
		&p.GuildID,
		&p.ChannelID,
		&p.RoleID,
		&p.InviteCode,
		&p.ServerMembers,
		&p.TemporaryMembers,
		&p.EffectID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// nonNilIDs keeps NOT NULL array columns from receiving a SQL NULL
func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
