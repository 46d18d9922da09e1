package application

import (
	"context"
	"fmt"
	"time"

	"helios/domain/interfaces"
	"helios/domain/services"

	log "github.com/sirupsen/logrus"
)

// ViolationReconcileInterval is how often open violations are escalated
const ViolationReconcileInterval = 30 * time.Second

// ViolationWorker escalates overdue violations in every guild
type ViolationWorker struct {
	uowFactory     UnitOfWorkFactory
	guildDiscovery GuildDiscovery
	notifier       interfaces.Notifier
}

// NewViolationWorker creates a new violation worker
func NewViolationWorker(
	uowFactory UnitOfWorkFactory,
	guildDiscovery GuildDiscovery,
	notifier interfaces.Notifier,
) *ViolationWorker {
	return &ViolationWorker{
		uowFactory:     uowFactory,
		guildDiscovery: guildDiscovery,
		notifier:       notifier,
	}
}

// Start begins the reconcile loop
func (w *ViolationWorker) Start(ctx context.Context) func() {
	return runEvery(ctx, "Violation worker", ViolationReconcileInterval, func(ctx context.Context) {
		if err := w.ReconcileAll(ctx); err != nil {
			log.Errorf("Error reconciling violations: %v", err)
		}
	})
}

// ReconcileAll runs one escalation pass over every guild
func (w *ViolationWorker) ReconcileAll(ctx context.Context) error {
	guilds, err := w.guildDiscovery.GuildIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get guilds: %w", err)
	}

	transitioned := 0
	for _, guildID := range guilds {
		count, err := w.reconcileGuild(ctx, guildID)
		if err != nil {
			log.Errorf("Error reconciling violations for guild %d: %v", guildID, err)
			continue
		}
		transitioned += count
	}

	if transitioned > 0 {
		log.WithFields(log.Fields{
			"guilds":       len(guilds),
			"transitioned": transitioned,
		}).Info("Escalated violations")
	}
	return nil
}

func (w *ViolationWorker) reconcileGuild(ctx context.Context, guildID int64) (int, error) {
	count := 0
	err := WithUnitOfWork(ctx, w.uowFactory, guildID, func(uow UnitOfWork) error {
		economy := services.NewEconomyService(uow.MemberRepository(), uow.TransactionRepository(), uow.EventBus())
		violations := services.NewViolationService(uow.ViolationRepository(), economy, w.notifier, uow.EventBus())

		var err error
		count, err = violations.Reconcile(ctx)
		return err
	})
	return count, err
}
