package repository

import (
	"context"
	"errors"
	"fmt"

	"helios/database"
	"helios/domain/entities"

	"github.com/jackc/pgx/v5"
)

const memberColumns = `
	id, guild_id, discord_id, points, activity_points, ap_paid,
	templates, flags, day_claimed, day_liked, created_at, updated_at`

// MemberRepository implements the MemberRepository interface
type MemberRepository struct {
	q       Queryable
	guildID int64
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *database.DB, guildID int64) *MemberRepository {
	return &MemberRepository{q: db.Pool, guildID: guildID}
}

// NewMemberRepositoryScoped creates a new member repository with a transaction and guild scope
func NewMemberRepositoryScoped(tx Queryable, guildID int64) *MemberRepository {
	return &MemberRepository{q: tx, guildID: guildID}
}

// GetByDiscordID retrieves a member by their Discord ID in the current guild
func (r *MemberRepository) GetByDiscordID(ctx context.Context, discordID int64) (*entities.Member, error) {
	return r.get(ctx, discordID, "")
}

// GetByDiscordIDForUpdate retrieves a member and locks the row for the rest
// of the transaction
func (r *MemberRepository) GetByDiscordIDForUpdate(ctx context.Context, discordID int64) (*entities.Member, error) {
	return r.get(ctx, discordID, " FOR UPDATE")
}

func (r *MemberRepository) get(ctx context.Context, discordID int64, lock string) (*entities.Member, error) {
	query := `SELECT ` + memberColumns + `
		FROM members
		WHERE guild_id = $1 AND discord_id = $2` + lock

	member, err := scanMember(r.q.QueryRow(ctx, query, r.guildID, discordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member %d in guild %d: %w", discordID, r.guildID, err)
	}
	return member, nil
}

// Create creates a new member with the initial points in the current guild
func (r *MemberRepository) Create(ctx context.Context, discordID int64, initialPoints int64) (*entities.Member, error) {
	query := `
		INSERT INTO members (guild_id, discord_id, points)
		VALUES ($1, $2, $3)
		RETURNING ` + memberColumns

	member, err := scanMember(r.q.QueryRow(ctx, query, r.guildID, discordID, initialPoints))
	if err != nil {
		return nil, fmt.Errorf("failed to create member %d in guild %d: %w", discordID, r.guildID, err)
	}
	return member, nil
}

// Update persists every mutable member attribute
func (r *MemberRepository) Update(ctx context.Context, member *entities.Member) error {
	query := `
		UPDATE members
		SET points = $3,
		    activity_points = $4,
		    ap_paid = $5,
		    templates = $6,
		    flags = $7,
		    day_claimed = $8,
		    day_liked = $9,
		    updated_at = NOW()
		WHERE guild_id = $1 AND discord_id = $2
		RETURNING updated_at`

	templates := member.Templates
	if templates == nil {
		templates = []entities.VoiceTemplate{}
	}
	flags := member.Flags
	if flags == nil {
		flags = []string{}
	}

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		member.DiscordID,
		member.Points,
		member.ActivityPoints,
		member.APPaid,
		templates,
		flags,
		member.DayClaimed,
		member.DayLiked,
	).Scan(&member.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("member %d in guild %d: %w", member.DiscordID, r.guildID, entities.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update member %d in guild %d: %w", member.DiscordID, r.guildID, err)
	}
	return nil
}

// GetAll returns all members of the guild
func (r *MemberRepository) GetAll(ctx context.Context) ([]*entities.Member, error) {
	query := `SELECT ` + memberColumns + `
		FROM members
		WHERE guild_id = $1
		ORDER BY discord_id`
	return r.list(ctx, query, r.guildID)
}

// GetWithUnpaidActivity returns members whose activity points exceed what was paid out
func (r *MemberRepository) GetWithUnpaidActivity(ctx context.Context) ([]*entities.Member, error) {
	query := `SELECT ` + memberColumns + `
		FROM members
		WHERE guild_id = $1 AND activity_points > ap_paid
		ORDER BY discord_id
		FOR UPDATE`
	return r.list(ctx, query, r.guildID)
}

// GetTopByPoints returns the richest members
func (r *MemberRepository) GetTopByPoints(ctx context.Context, limit int) ([]*entities.Member, error) {
	query := `SELECT ` + memberColumns + `
		FROM members
		WHERE guild_id = $1
		ORDER BY points DESC, discord_id
		LIMIT $2`
	return r.list(ctx, query, r.guildID, limit)
}

func (r *MemberRepository) list(ctx context.Context, query string, args ...any) ([]*entities.Member, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members in guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	var members []*entities.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}

func scanMember(row pgx.Row) (*entities.Member, error) {
	var m entities.Member
	err := row.Scan(
		&m.ID,
		&m.GuildID,
		&m.DiscordID,
		&m.Points,
		&m.ActivityPoints,
		&m.APPaid,
		&m.Templates,
		&m.Flags,
		&m.DayClaimed,
		&m.DayLiked,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
