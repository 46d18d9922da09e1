package repository

import (
	"context"
	"errors"
	"fmt"

	"helios/database"
	"helios/domain/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BlackjackRepository implements the BlackjackRepository interface
type BlackjackRepository struct {
	q       Queryable
	guildID int64
}

// NewBlackjackRepository creates a new blackjack record repository
func NewBlackjackRepository(db *database.DB, guildID int64) *BlackjackRepository {
	return &BlackjackRepository{q: db.Pool, guildID: guildID}
}

// NewBlackjackRepositoryScoped creates a new blackjack record repository with a transaction and guild scope
func NewBlackjackRepositoryScoped(tx Queryable, guildID int64) *BlackjackRepository {
	return &BlackjackRepository{q: tx, guildID: guildID}
}

// Create stores the opening record of a game
func (r *BlackjackRepository) Create(ctx context.Context, record *entities.BlackjackRecord) error {
	query := `
		INSERT INTO blackjack_games (id, guild_id, channel_id, players, bets, winnings, dealer_total, state, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.q.Exec(ctx, query,
		record.ID,
		r.guildID,
		record.ChannelID,
		nonNilIDs(record.Players),
		nonNilAmounts(record.Bets),
		nonNilAmounts(record.Winnings),
		record.DealerTotal,
		record.State,
		record.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create blackjack record %s: %w", record.ID, err)
	}
	record.GuildID = r.guildID
	return nil
}

// Update stores the outcome of a game
func (r *BlackjackRepository) Update(ctx context.Context, record *entities.BlackjackRecord) error {
	query := `
		UPDATE blackjack_games
		SET players = $3, bets = $4, winnings = $5, dealer_total = $6, state = $7, finished_at = $8
		WHERE guild_id = $1 AND id = $2`

	tag, err := r.q.Exec(ctx, query,
		r.guildID,
		record.ID,
		nonNilIDs(record.Players),
		nonNilAmounts(record.Bets),
		nonNilAmounts(record.Winnings),
		record.DealerTotal,
		record.State,
		record.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update blackjack record %s: %w", record.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("blackjack record %s: %w", record.ID, entities.ErrNotFound)
	}
	return nil
}

// GetByID returns a game record, or nil
func (r *BlackjackRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.BlackjackRecord, error) {
	query := `
		SELECT id, guild_id, channel_id, players, bets, winnings, dealer_total, state, started_at, finished_at
		FROM blackjack_games
		WHERE guild_id = $1 AND id = $2`

	var rec entities.BlackjackRecord
	err := r.q.QueryRow(ctx, query, r.guildID, id).Scan(
		&rec.ID,
		&rec.GuildID,
		&rec.ChannelID,
		&rec.Players,
		&rec.Bets,
		&rec.Winnings,
		&rec.DealerTotal,
		&rec.State,
		&rec.StartedAt,
		&rec.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blackjack record %s: %w", id, err)
	}
	return &rec, nil
}

func nonNilAmounts(m map[int64]int64) map[int64]int64 {
	if m == nil {
		return map[int64]int64{}
	}
	return m
}
