package application

import (
	"context"
	"fmt"
	"time"

	"helios/domain/services"

	log "github.com/sirupsen/logrus"
)

// DailyWorker snapshots statistics and pays out activity points once a day
type DailyWorker struct {
	uowFactory     UnitOfWorkFactory
	guildDiscovery GuildDiscovery
}

// NewDailyWorker creates a new daily worker
func NewDailyWorker(uowFactory UnitOfWorkFactory, guildDiscovery GuildDiscovery) *DailyWorker {
	return &DailyWorker{
		uowFactory:     uowFactory,
		guildDiscovery: guildDiscovery,
	}
}

// Start schedules the daily run at hour:00 UTC
func (w *DailyWorker) Start(ctx context.Context, hour int) func() {
	return runDaily(ctx, "Daily worker", hour, 0, func(ctx context.Context) {
		log.Info("Processing daily statistics and payouts for all guilds")
		if err := w.ProcessAllGuilds(ctx); err != nil {
			log.Errorf("Error processing daily run: %v", err)
		}
	})
}

// ProcessAllGuilds runs the snapshot and payout for every guild
func (w *DailyWorker) ProcessAllGuilds(ctx context.Context) error {
	guilds, err := w.guildDiscovery.GuildIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get guilds: %w", err)
	}

	var successCount, failureCount int
	for _, guildID := range guilds {
		if err := w.processGuild(ctx, guildID); err != nil {
			log.Errorf("Error processing daily run for guild %d: %v", guildID, err)
			failureCount++
		} else {
			successCount++
		}
	}

	log.WithFields(log.Fields{
		"total_guilds":    len(guilds),
		"successful":      successCount,
		"failed":          failureCount,
		"processing_time": time.Now().UTC().Format("15:04:05"),
	}).Info("Completed daily processing")
	return nil
}

func (w *DailyWorker) processGuild(ctx context.Context, guildID int64) error {
	var snapshots int64
	var paid int

	// Snapshot first so the history reflects the day before payouts move points
	err := WithUnitOfWork(ctx, w.uowFactory, guildID, func(uow UnitOfWork) error {
		stats := services.NewStatisticsService(uow.StatisticRepository(), nil)
		var err error
		snapshots, err = stats.Snapshot(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to snapshot statistics: %w", err)
	}

	err = WithUnitOfWork(ctx, w.uowFactory, guildID, func(uow UnitOfWork) error {
		economy := services.NewEconomyService(uow.MemberRepository(), uow.TransactionRepository(), uow.EventBus())
		var err error
		paid, err = economy.PayoutActivityPoints(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to pay out activity points: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id":  guildID,
		"snapshots": snapshots,
		"paid":      paid,
		"source":    "daily_worker",
	}).Info("Daily statistics recorded and activity paid")
	return nil
}
