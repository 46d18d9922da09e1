package services

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"helios/config"
	"helios/domain/entities"
	"helios/domain/interfaces"
	"helios/domain/utils"
	"helios/events"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// refreshSteps is the number of refreshes it takes to cross an item's whole range
const refreshSteps = 5

//go:embed data/store_catalog.yaml
var storeCatalogYAML []byte

type storeCatalogFile struct {
	Items []*entities.StoreItem `yaml:"items"`
}

// LoadStoreCatalog parses a store catalogue document, clamping every item
func LoadStoreCatalog(data []byte) ([]*entities.StoreItem, error) {
	var file storeCatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse store catalogue: %w", err)
	}
	for _, item := range file.Items {
		if item.MinPrice > item.MaxPrice || item.MinStock > item.MaxStock {
			return nil, fmt.Errorf("store item %q has inverted bounds", item.Name)
		}
		item.Clamp()
	}
	return file.Items, nil
}

// DefaultStoreCatalog returns the built-in catalogue
func DefaultStoreCatalog() ([]*entities.StoreItem, error) {
	return LoadStoreCatalog(storeCatalogYAML)
}

// RefreshItem moves an item's price and stock one step. Items that sold
// little get cheaper and scarcer; items that sold out get pricier and more
// plentiful. Quantity is restocked to the new stock.
func RefreshItem(item *entities.StoreItem) {
	diff := float64(max(item.Stock-item.Quantity, 1))
	half := max(float64(item.Stock)/2, 1)
	perc := diff / half

	priceIncrement := float64(item.MaxPrice-item.MinPrice) / refreshSteps
	stockIncrement := float64(item.MaxStock-item.MinStock) / refreshSteps

	switch {
	case perc < 1:
		item.Price -= int64(priceIncrement * (1 - perc))
		item.Stock -= int64(stockIncrement * (1 - perc))
	case perc > 1:
		item.Price += int64(priceIncrement * (perc - 1))
		item.Stock += int64(stockIncrement * (perc - 1))
	}

	item.Price = min(max(item.Price, item.MinPrice), item.MaxPrice)
	item.Stock = min(max(item.Stock, item.MinStock), item.MaxStock)
	item.Quantity = item.Stock
}

// NextRefreshAfter returns the first refresh boundary strictly after now.
// Boundaries split the UTC day into perDay even intervals.
func NextRefreshAfter(now time.Time, perDay int) time.Time {
	perDay = max(perDay, 1)
	interval := 24 * time.Hour / time.Duration(perDay)
	next := utils.StartOfDay(now)
	for !next.After(now) {
		next = next.Add(interval)
	}
	return next
}

// PurchaseResult describes a completed purchase
type PurchaseResult struct {
	Item      *entities.StoreItem
	Quantity  int64
	TotalCost int64
	Points    int64
}

// StoreService manages the guild store and purchases from it
type StoreService struct {
	storeRepo      interfaces.StoreRepository
	inventoryRepo  interfaces.InventoryRepository
	economy        *EconomyService
	eventPublisher interfaces.EventPublisher
	now            func() time.Time
}

// NewStoreService creates a new store service
func NewStoreService(
	storeRepo interfaces.StoreRepository,
	inventoryRepo interfaces.InventoryRepository,
	economy *EconomyService,
	eventPublisher interfaces.EventPublisher,
) *StoreService {
	return &StoreService{
		storeRepo:      storeRepo,
		inventoryRepo:  inventoryRepo,
		economy:        economy,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *StoreService) WithClock(now func() time.Time) *StoreService {
	s.now = now
	return s
}

// GetStore returns the guild store, stocking it from the default catalogue
// the first time it is requested
func (s *StoreService) GetStore(ctx context.Context) (*entities.Store, error) {
	store, err := s.storeRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	if store != nil {
		return store, nil
	}

	items, err := DefaultStoreCatalog()
	if err != nil {
		return nil, err
	}
	store = &entities.Store{
		Items:       items,
		NextRefresh: NextRefreshAfter(s.now(), config.Get().StoreRefreshesPerDay),
	}
	if err := s.storeRepo.Save(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	return store, nil
}

// Refresh applies one refresh step to every item and schedules the next one
func (s *StoreService) Refresh(ctx context.Context) (*entities.Store, error) {
	store, err := s.GetStore(ctx)
	if err != nil {
		return nil, err
	}
	s.refresh(store)
	if err := s.storeRepo.Save(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to save refreshed store: %w", err)
	}
	s.publishRefresh(store)
	return store, nil
}

// RefreshIfDue refreshes the store when its next_refresh instant has passed
func (s *StoreService) RefreshIfDue(ctx context.Context) (bool, error) {
	store, err := s.GetStore(ctx)
	if err != nil {
		return false, err
	}
	if s.now().Before(store.NextRefresh) {
		return false, nil
	}
	s.refresh(store)
	if err := s.storeRepo.Save(ctx, store); err != nil {
		return false, fmt.Errorf("failed to save refreshed store: %w", err)
	}
	s.publishRefresh(store)
	return true, nil
}

func (s *StoreService) refresh(store *entities.Store) {
	for _, item := range store.Items {
		RefreshItem(item)
	}
	store.NextRefresh = NextRefreshAfter(s.now(), config.Get().StoreRefreshesPerDay)
}

// Purchase buys up to quantity units of an item. The member pays for what
// is actually in stock; price and stock are left untouched.
func (s *StoreService) Purchase(ctx context.Context, discordID int64, itemName string, quantity int64) (*PurchaseResult, error) {
	if quantity <= 0 {
		return nil, entities.ErrInvalidAmount
	}

	store, err := s.GetStore(ctx)
	if err != nil {
		return nil, err
	}
	item := store.Item(itemName)
	if item == nil {
		return nil, fmt.Errorf("store item %q: %w", itemName, entities.ErrNotFound)
	}
	bought := min(quantity, item.Quantity)
	if bought == 0 {
		return nil, fmt.Errorf("store item %q: %w", itemName, entities.ErrOutOfStock)
	}

	cost := item.Price * bought
	member, err := s.economy.Debit(ctx, PointsChange{
		DiscordID: discordID,
		Amount:    cost,
		Type:      entities.TransactionTypeStorePurchase,
		Reason:    fmt.Sprintf("Bought %dx %s", bought, item.DisplayName),
		Metadata:  map[string]any{"item": item.Name, "quantity": bought, "price": item.Price},
	})
	if err != nil {
		return nil, err
	}

	item.Quantity -= bought
	if err := s.storeRepo.Save(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to save store after purchase: %w", err)
	}

	inventory, err := s.inventoryRepo.Get(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory for %d: %w", discordID, err)
	}
	inventory.Add(entities.Item{Name: item.Name, DisplayName: item.DisplayName, Quantity: bought})
	if err := s.inventoryRepo.Save(ctx, inventory); err != nil {
		return nil, fmt.Errorf("failed to save inventory for %d: %w", discordID, err)
	}

	log.WithFields(log.Fields{
		"discordID": discordID,
		"item":      item.Name,
		"quantity":  bought,
		"cost":      cost,
	}).Info("Store purchase completed")

	return &PurchaseResult{
		Item:      item,
		Quantity:  bought,
		TotalCost: cost,
		Points:    member.Points,
	}, nil
}

func (s *StoreService) publishRefresh(store *entities.Store) {
	if err := s.eventPublisher.Publish(events.StoreRefreshedEvent{
		GuildID: store.GuildID,
		Items:   len(store.Items),
	}); err != nil {
		log.Errorf("Failed to publish store refresh: %v", err)
	}
}
