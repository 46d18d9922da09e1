package application

import (
	"helios/domain/interfaces"
	"helios/domain/services"
)

// ServiceDeps are the long-lived collaborators shared by every unit of work
type ServiceDeps struct {
	Cooldowns *services.Cooldowns
	Notifier  interfaces.Notifier
	Members   interfaces.MemberPlatform
	LootPools map[string]*services.LootPool
}

// Services bundles the domain services built over one unit of work
type Services struct {
	Economy    *services.EconomyService
	Statistics *services.StatisticsService
	Violations *services.ViolationService
	Store      *services.StoreService
	Inventory  *services.InventoryService
	Themes     *services.ThemeService
}

// NewServices builds the domain services for a guild over uow
func NewServices(uow UnitOfWork, guildID int64, deps ServiceDeps) *Services {
	economy := services.NewEconomyService(
		uow.MemberRepository(),
		uow.TransactionRepository(),
		uow.EventBus(),
	)
	return &Services{
		Economy:    economy,
		Statistics: services.NewStatisticsService(uow.StatisticRepository(), deps.Cooldowns),
		Violations: services.NewViolationService(uow.ViolationRepository(), economy, deps.Notifier, uow.EventBus()),
		Store:      services.NewStoreService(uow.StoreRepository(), uow.InventoryRepository(), economy, uow.EventBus()),
		Inventory:  services.NewInventoryService(uow.InventoryRepository(), economy, deps.LootPools),
		Themes: services.NewThemeService(
			guildID,
			uow.ThemeRepository(),
			uow.StatisticRepository(),
			uow.MemberRepository(),
			deps.Members,
			uow.EventBus(),
		),
	}
}
