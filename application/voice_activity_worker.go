package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"helios/config"
	"helios/domain/entities"
	"helios/domain/interfaces"
	"helios/domain/services"

	log "github.com/sirupsen/logrus"
)

const (
	// VoiceActivityInterval is the granularity of voice statistics and accrual
	VoiceActivityInterval = time.Minute

	// aloneMinutesPerAccrual is how many minutes alone earn one accrual
	aloneMinutesPerAccrual = 4
)

type memberKey struct {
	guildID   int64
	discordID int64
}

// VoiceActivityWorker counts voice minutes and accrues activity points for
// members connected to voice
type VoiceActivityWorker struct {
	uowFactory     UnitOfWorkFactory
	guildDiscovery GuildDiscovery
	roster         VoiceRoster

	mu          sync.Mutex
	aloneCounts map[memberKey]int
}

// NewVoiceActivityWorker creates a new voice activity worker
func NewVoiceActivityWorker(
	uowFactory UnitOfWorkFactory,
	guildDiscovery GuildDiscovery,
	roster VoiceRoster,
) *VoiceActivityWorker {
	return &VoiceActivityWorker{
		uowFactory:     uowFactory,
		guildDiscovery: guildDiscovery,
		roster:         roster,
		aloneCounts:    make(map[memberKey]int),
	}
}

// Start begins the per-minute loop
func (w *VoiceActivityWorker) Start(ctx context.Context) func() {
	return runEvery(ctx, "Voice activity worker", VoiceActivityInterval, func(ctx context.Context) {
		if err := w.Tick(ctx); err != nil {
			log.Errorf("Error recording voice activity: %v", err)
		}
	})
}

// Tick records one minute of voice activity in every guild
func (w *VoiceActivityWorker) Tick(ctx context.Context) error {
	guilds, err := w.guildDiscovery.GuildIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get guilds: %w", err)
	}
	for _, guildID := range guilds {
		if err := w.tickGuild(ctx, guildID); err != nil {
			log.Errorf("Error recording voice activity for guild %d: %v", guildID, err)
		}
	}
	return nil
}

func (w *VoiceActivityWorker) tickGuild(ctx context.Context, guildID int64) error {
	occupancy, err := w.roster.VoiceOccupancy(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to read voice occupancy: %w", err)
	}

	perMinute := config.Get().ActivityPointsPerMinute
	members := 0

	err = WithUnitOfWork(ctx, w.uowFactory, guildID, func(uow UnitOfWork) error {
		settings, err := uow.GuildSettingsRepository().GetOrCreate(ctx)
		if err != nil {
			return fmt.Errorf("failed to get guild settings: %w", err)
		}
		stats := services.NewStatisticsService(uow.StatisticRepository(), nil)
		economy := services.NewEconomyService(uow.MemberRepository(), uow.TransactionRepository(), uow.EventBus())

		for channelID, occupants := range occupancy {
			humans := humanOccupants(occupants)
			afk := settings.AFKChannelID != nil && *settings.AFKChannelID == channelID

			for _, occupant := range humans {
				members++
				if afk {
					if _, err := stats.Increment(ctx, occupant.DiscordID, entities.StatAFKTime, 1); err != nil {
						return err
					}
					continue
				}

				alone := len(humans) == 1
				if err := w.recordMinute(ctx, stats, occupant, alone); err != nil {
					return err
				}
				if points := w.accrual(guildID, occupant.DiscordID, alone, perMinute); points > 0 {
					if err := economy.AccrueActivity(ctx, occupant.DiscordID, points); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"members":  members,
	}).Debug("Recorded voice activity")
	return nil
}

func (w *VoiceActivityWorker) recordMinute(ctx context.Context, stats *services.StatisticsService, occupant interfaces.Occupant, alone bool) error {
	if _, err := stats.Increment(ctx, occupant.DiscordID, entities.StatVoiceTime, 1); err != nil {
		return err
	}
	if alone {
		if _, err := stats.Increment(ctx, occupant.DiscordID, entities.StatAloneTime, 1); err != nil {
			return err
		}
	}
	if occupant.Game != "" {
		if _, err := stats.Increment(ctx, occupant.DiscordID, entities.StatGameTime, 1); err != nil {
			return err
		}
	}
	return nil
}

// accrual returns the activity points earned this minute. Members with
// company earn every minute; members alone earn every fourth minute.
func (w *VoiceActivityWorker) accrual(guildID, discordID int64, alone bool, perMinute int64) int64 {
	key := memberKey{guildID: guildID, discordID: discordID}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !alone {
		delete(w.aloneCounts, key)
		return perMinute
	}
	w.aloneCounts[key]++
	if w.aloneCounts[key] < aloneMinutesPerAccrual {
		return 0
	}
	w.aloneCounts[key] = 0
	return perMinute
}

func humanOccupants(occupants []interfaces.Occupant) []interfaces.Occupant {
	humans := make([]interfaces.Occupant, 0, len(occupants))
	for _, o := range occupants {
		if !o.Bot {
			humans = append(humans, o)
		}
	}
	return humans
}
