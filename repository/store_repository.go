package repository

import (
	"context"
	"errors"
	"fmt"

	"helios/database"
	"helios/domain/entities"

	"github.com/jackc/pgx/v5"
)

// StoreRepository implements the StoreRepository interface
type StoreRepository struct {
	q       Queryable
	guildID int64
}

// NewStoreRepository creates a new store repository
func NewStoreRepository(db *database.DB, guildID int64) *StoreRepository {
	return &StoreRepository{q: db.Pool, guildID: guildID}
}

// NewStoreRepositoryScoped creates a new store repository with a transaction and guild scope
func NewStoreRepositoryScoped(tx Queryable, guildID int64) *StoreRepository {
	return &StoreRepository{q: tx, guildID: guildID}
}

// Get returns the guild store, or nil when none has been created. The row is
// locked for the rest of the transaction so purchases serialise on stock.
func (r *StoreRepository) Get(ctx context.Context) (*entities.Store, error) {
	query := `
		SELECT guild_id, items, next_refresh
		FROM stores
		WHERE guild_id = $1
		FOR UPDATE`

	var store entities.Store
	err := r.q.QueryRow(ctx, query, r.guildID).Scan(&store.GuildID, &store.Items, &store.NextRefresh)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store for guild %d: %w", r.guildID, err)
	}
	return &store, nil
}

// Save upserts the store
func (r *StoreRepository) Save(ctx context.Context, store *entities.Store) error {
	query := `
		INSERT INTO stores (guild_id, items, next_refresh)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id)
		DO UPDATE SET items = EXCLUDED.items, next_refresh = EXCLUDED.next_refresh`

	items := store.Items
	if items == nil {
		items = []*entities.StoreItem{}
	}
	if _, err := r.q.Exec(ctx, query, r.guildID, items, store.NextRefresh); err != nil {
		return fmt.Errorf("failed to save store for guild %d: %w", r.guildID, err)
	}
	store.GuildID = r.guildID
	return nil
}
