package services

import (
	"context"
	"fmt"

	"helios/domain/entities"
	"helios/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// LootPoolCommon is the pool loot crates draw from
const LootPoolCommon = "common"

// CrateResult is what opening a loot crate produced
type CrateResult struct {
	Items []entities.Item
	// Credited is the total of gamble credits paid out as points
	Credited int64
}

// InventoryService manages member items and loot crates
type InventoryService struct {
	inventoryRepo interfaces.InventoryRepository
	economy       *EconomyService
	pools         map[string]*LootPool
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	inventoryRepo interfaces.InventoryRepository,
	economy *EconomyService,
	pools map[string]*LootPool,
) *InventoryService {
	return &InventoryService{
		inventoryRepo: inventoryRepo,
		economy:       economy,
		pools:         pools,
	}
}

// GetInventory returns a member's inventory
func (s *InventoryService) GetInventory(ctx context.Context, discordID int64) (*entities.Inventory, error) {
	inventory, err := s.inventoryRepo.Get(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory for %d: %w", discordID, err)
	}
	return inventory, nil
}

// Give adds items to a member's inventory
func (s *InventoryService) Give(ctx context.Context, discordID int64, item entities.Item) error {
	if item.Quantity <= 0 {
		return entities.ErrInvalidAmount
	}
	inventory, err := s.GetInventory(ctx, discordID)
	if err != nil {
		return err
	}
	inventory.Add(item)
	if err := s.inventoryRepo.Save(ctx, inventory); err != nil {
		return fmt.Errorf("failed to save inventory for %d: %w", discordID, err)
	}
	return nil
}

// Consume removes quantity units of an item, failing when the member holds fewer
func (s *InventoryService) Consume(ctx context.Context, discordID int64, name string, quantity int64) error {
	if quantity <= 0 {
		return entities.ErrInvalidAmount
	}
	inventory, err := s.GetInventory(ctx, discordID)
	if err != nil {
		return err
	}
	if !inventory.Remove(name, quantity) {
		return fmt.Errorf("member %d does not hold %dx %s: %w", discordID, quantity, name, entities.ErrNotFound)
	}
	if err := s.inventoryRepo.Save(ctx, inventory); err != nil {
		return fmt.Errorf("failed to save inventory for %d: %w", discordID, err)
	}
	return nil
}

// OpenLootCrate consumes one crate and draws one entry from the common
// pool. Gamble credits are paid out as points right away; everything else
// lands in the inventory.
func (s *InventoryService) OpenLootCrate(ctx context.Context, discordID int64) (*CrateResult, error) {
	pool, ok := s.pools[LootPoolCommon]
	if !ok {
		return nil, fmt.Errorf("loot pool %q: %w", LootPoolCommon, entities.ErrNotFound)
	}

	inventory, err := s.GetInventory(ctx, discordID)
	if err != nil {
		return nil, err
	}
	if !inventory.Remove(entities.ItemLootCrate, 1) {
		return nil, fmt.Errorf("member %d has no loot crate: %w", discordID, entities.ErrNotFound)
	}

	result := &CrateResult{}
	for _, entry := range pool.Sample(1) {
		item := entry.Item()
		result.Items = append(result.Items, item)
		if item.Name == entities.ItemGambleCredit {
			result.Credited += CreditAmount(item) * item.Quantity
			continue
		}
		inventory.Add(item)
	}

	if err := s.inventoryRepo.Save(ctx, inventory); err != nil {
		return nil, fmt.Errorf("failed to save inventory for %d: %w", discordID, err)
	}

	if result.Credited > 0 {
		if _, err := s.economy.Credit(ctx, PointsChange{
			DiscordID: discordID,
			Amount:    result.Credited,
			Type:      entities.TransactionTypeGambleCredit,
			Reason:    "Loot crate gamble credit",
		}); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"discordID": discordID,
		"items":     len(result.Items),
		"credited":  result.Credited,
	}).Debug("Loot crate opened")
	return result, nil
}

// CreditAmount reads the point value of a gamble credit. The amount is an
// int when it came from YAML and a float64 when it round-tripped through JSON.
func CreditAmount(item entities.Item) int64 {
	switch v := item.Data["amount"].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}
