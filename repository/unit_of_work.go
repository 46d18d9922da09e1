package repository

import (
	"context"
	"errors"
	"fmt"

	"helios/application"
	"helios/database"
	"helios/domain/interfaces"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	guildID                int64
	transactionalPublisher interfaces.TransactionalEventPublisher
	memberRepo             interfaces.MemberRepository
	transactionRepo        interfaces.TransactionRepository
	statisticRepo          interfaces.StatisticRepository
	violationRepo          interfaces.ViolationRepository
	storeRepo              interfaces.StoreRepository
	inventoryRepo          interfaces.InventoryRepository
	themeRepo              interfaces.ThemeRepository
	blackjackRepo          interfaces.BlackjackRepository
	guildSettingsRepo      interfaces.GuildSettingsRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db}
}

// UnitOfWorkFactory builds guild-scoped units of work over one pool
type UnitOfWorkFactory struct {
	db *database.DB
}

// CreateForGuildWithPublisher creates a new UnitOfWork with a specific transactional publisher
func (f *UnitOfWorkFactory) CreateForGuildWithPublisher(guildID int64, transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		guildID:                guildID,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.memberRepo = NewMemberRepositoryScoped(tx, u.guildID)
	u.transactionRepo = NewTransactionRepositoryScoped(tx, u.guildID)
	u.statisticRepo = NewStatisticRepositoryScoped(tx, u.guildID)
	u.violationRepo = NewViolationRepositoryScoped(tx, u.guildID)
	u.storeRepo = NewStoreRepositoryScoped(tx, u.guildID)
	u.inventoryRepo = NewInventoryRepositoryScoped(tx, u.guildID)
	u.themeRepo = NewThemeRepositoryScoped(tx, u.guildID)
	u.blackjackRepo = NewBlackjackRepositoryScoped(tx, u.guildID)
	u.guildSettingsRepo = NewGuildSettingsRepositoryScoped(tx, u.guildID)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// events are best effort once the data is committed
	if u.transactionalPublisher != nil {
		if err := u.transactionalPublisher.Flush(u.ctx); err != nil {
			log.WithField("guildID", u.guildID).Warnf("Failed to flush events after commit: %v", err)
		}
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// MemberRepository returns the member repository for this unit of work
func (u *unitOfWork) MemberRepository() interfaces.MemberRepository {
	if u.memberRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.memberRepo
}

// TransactionRepository returns the ledger repository for this unit of work
func (u *unitOfWork) TransactionRepository() interfaces.TransactionRepository {
	if u.transactionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionRepo
}

// StatisticRepository returns the statistic repository for this unit of work
func (u *unitOfWork) StatisticRepository() interfaces.StatisticRepository {
	if u.statisticRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.statisticRepo
}

// ViolationRepository returns the violation repository for this unit of work
func (u *unitOfWork) ViolationRepository() interfaces.ViolationRepository {
	if u.violationRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.violationRepo
}

// StoreRepository returns the store repository for this unit of work
func (u *unitOfWork) StoreRepository() interfaces.StoreRepository {
	if u.storeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.storeRepo
}

// InventoryRepository returns the inventory repository for this unit of work
func (u *unitOfWork) InventoryRepository() interfaces.InventoryRepository {
	if u.inventoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.inventoryRepo
}

// ThemeRepository returns the theme repository for this unit of work
func (u *unitOfWork) ThemeRepository() interfaces.ThemeRepository {
	if u.themeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.themeRepo
}

// BlackjackRepository returns the blackjack record repository for this unit of work
func (u *unitOfWork) BlackjackRepository() interfaces.BlackjackRepository {
	if u.blackjackRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.blackjackRepo
}

// GuildSettingsRepository returns the guild settings repository for this unit of work
func (u *unitOfWork) GuildSettingsRepository() interfaces.GuildSettingsRepository {
	if u.guildSettingsRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.guildSettingsRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("transactional publisher not configured")
	}
	return u.transactionalPublisher
}
