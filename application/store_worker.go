package application

import (
	"context"
	"fmt"
	"time"

	"helios/domain/services"

	log "github.com/sirupsen/logrus"
)

// StoreRefreshCheckInterval is how often stores are checked for a due refresh
const StoreRefreshCheckInterval = time.Minute

// StoreWorker refreshes guild stores once their refresh time has passed
type StoreWorker struct {
	uowFactory     UnitOfWorkFactory
	guildDiscovery GuildDiscovery
}

// NewStoreWorker creates a new store worker
func NewStoreWorker(uowFactory UnitOfWorkFactory, guildDiscovery GuildDiscovery) *StoreWorker {
	return &StoreWorker{
		uowFactory:     uowFactory,
		guildDiscovery: guildDiscovery,
	}
}

// Start begins the refresh loop
func (w *StoreWorker) Start(ctx context.Context) func() {
	return runEvery(ctx, "Store worker", StoreRefreshCheckInterval, func(ctx context.Context) {
		if err := w.RefreshAll(ctx); err != nil {
			log.Errorf("Error refreshing stores: %v", err)
		}
	})
}

// RefreshAll refreshes every store that is due
func (w *StoreWorker) RefreshAll(ctx context.Context) error {
	guilds, err := w.guildDiscovery.GuildIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get guilds: %w", err)
	}

	for _, guildID := range guilds {
		err := WithUnitOfWork(ctx, w.uowFactory, guildID, func(uow UnitOfWork) error {
			economy := services.NewEconomyService(uow.MemberRepository(), uow.TransactionRepository(), uow.EventBus())
			store := services.NewStoreService(uow.StoreRepository(), uow.InventoryRepository(), economy, uow.EventBus())

			refreshed, err := store.RefreshIfDue(ctx)
			if err != nil {
				return err
			}
			if refreshed {
				log.WithField("guild_id", guildID).Info("Store refreshed")
			}
			return nil
		})
		if err != nil {
			log.Errorf("Error refreshing store for guild %d: %v", guildID, err)
		}
	}
	return nil
}
