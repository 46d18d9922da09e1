package repository

import (
	"context"
	"fmt"

	"helios/database"
	"helios/domain/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepository implements the TransactionRepository interface
type TransactionRepository struct {
	q       Queryable
	guildID int64
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB, guildID int64) *TransactionRepository {
	return &TransactionRepository{q: db.Pool, guildID: guildID}
}

// NewTransactionRepositoryScoped creates a new transaction repository with a transaction and guild scope
func NewTransactionRepositoryScoped(tx Queryable, guildID int64) *TransactionRepository {
	return &TransactionRepository{q: tx, guildID: guildID}
}

// Record appends a ledger entry
func (r *TransactionRepository) Record(ctx context.Context, tx *entities.Transaction) error {
	query := `
		INSERT INTO transactions (
			guild_id, discord_id, amount, balance_before, balance_after,
			transaction_type, reason, game_id, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	metadata := tx.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		tx.DiscordID,
		tx.Amount,
		tx.BalanceBefore,
		tx.BalanceAfter,
		tx.TransactionType,
		tx.Reason,
		tx.GameID,
		metadata,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record transaction for %d: %w", tx.DiscordID, err)
	}
	tx.GuildID = r.guildID
	return nil
}

// GetByMember returns the most recent entries for a member
func (r *TransactionRepository) GetByMember(ctx context.Context, discordID int64, limit int) ([]*entities.Transaction, error) {
	query := `
		SELECT id, guild_id, discord_id, amount, balance_before, balance_after,
		       transaction_type, reason, game_id, metadata, created_at
		FROM transactions
		WHERE guild_id = $1 AND discord_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	rows, err := r.q.Query(ctx, query, r.guildID, discordID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for %d: %w", discordID, err)
	}
	return collectTransactions(rows)
}

// GetByGame returns all entries tagged with a game id in insertion order
func (r *TransactionRepository) GetByGame(ctx context.Context, gameID uuid.UUID) ([]*entities.Transaction, error) {
	query := `
		SELECT id, guild_id, discord_id, amount, balance_before, balance_after,
		       transaction_type, reason, game_id, metadata, created_at
		FROM transactions
		WHERE guild_id = $1 AND game_id = $2
		ORDER BY id`

	rows, err := r.q.Query(ctx, query, r.guildID, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for game %s: %w", gameID, err)
	}
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]*entities.Transaction, error) {
	defer rows.Close()

	var txs []*entities.Transaction
	for rows.Next() {
		var tx entities.Transaction
		err := rows.Scan(
			&tx.ID,
			&tx.GuildID,
			&tx.DiscordID,
			&tx.Amount,
			&tx.BalanceBefore,
			&tx.BalanceAfter,
			&tx.TransactionType,
			&tx.Reason,
			&tx.GameID,
			&tx.Metadata,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}
