package repository

import (
	"context"
	"errors"
	"fmt"

	"helios/database"
	"helios/domain/entities"

	"github.com/jackc/pgx/v5"
)

// InventoryRepository implements the InventoryRepository interface
type InventoryRepository struct {
	q       Queryable
	guildID int64
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *database.DB, guildID int64) *InventoryRepository {
	return &InventoryRepository{q: db.Pool, guildID: guildID}
}

// NewInventoryRepositoryScoped creates a new inventory repository with a transaction and guild scope
func NewInventoryRepositoryScoped(tx Queryable, guildID int64) *InventoryRepository {
	return &InventoryRepository{q: tx, guildID: guildID}
}

// Get returns the inventory, empty when the member holds nothing
func (r *InventoryRepository) Get(ctx context.Context, discordID int64) (*entities.Inventory, error) {
	query := `
		SELECT items FROM inventories
		WHERE guild_id = $1 AND discord_id = $2`

	inventory := &entities.Inventory{GuildID: r.guildID, DiscordID: discordID}
	err := r.q.QueryRow(ctx, query, r.guildID, discordID).Scan(&inventory.Items)
	if errors.Is(err, pgx.ErrNoRows) {
		return inventory, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory for %d: %w", discordID, err)
	}
	return inventory, nil
}

// Save upserts the inventory
func (r *InventoryRepository) Save(ctx context.Context, inventory *entities.Inventory) error {
	query := `
		INSERT INTO inventories (guild_id, discord_id, items)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, discord_id)
		DO UPDATE SET items = EXCLUDED.items`

	items := inventory.Items
	if items == nil {
		items = []*entities.Item{}
	}
	if _, err := r.q.Exec(ctx, query, r.guildID, inventory.DiscordID, items); err != nil {
		return fmt.Errorf("failed to save inventory for %d: %w", inventory.DiscordID, err)
	}
	return nil
}
