package application

import (
	"context"
	"fmt"
	"strings"

	"helios/domain/interfaces"
	"helios/domain/services"

	log "github.com/sirupsen/logrus"
)

// ThemeWorker re-sorts members into the ranks of each guild's current theme
type ThemeWorker struct {
	uowFactory     UnitOfWorkFactory
	guildDiscovery GuildDiscovery
	platform       interfaces.MemberPlatform
	notifier       interfaces.Notifier
}

// NewThemeWorker creates a new theme worker
func NewThemeWorker(
	uowFactory UnitOfWorkFactory,
	guildDiscovery GuildDiscovery,
	platform interfaces.MemberPlatform,
	notifier interfaces.Notifier,
) *ThemeWorker {
	return &ThemeWorker{
		uowFactory:     uowFactory,
		guildDiscovery: guildDiscovery,
		platform:       platform,
		notifier:       notifier,
	}
}

// Start schedules the sort at hour:minute UTC
func (w *ThemeWorker) Start(ctx context.Context, hour, minute int) func() {
	return runDaily(ctx, "Theme worker", hour, minute, func(ctx context.Context) {
		if err := w.SortAll(ctx); err != nil {
			log.Errorf("Error sorting themes: %v", err)
		}
	})
}

// SortAll runs a rank pass in every guild
func (w *ThemeWorker) SortAll(ctx context.Context) error {
	guilds, err := w.guildDiscovery.GuildIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get guilds: %w", err)
	}
	for _, guildID := range guilds {
		if err := w.SortGuild(ctx, guildID); err != nil {
			log.Errorf("Error sorting theme for guild %d: %v", guildID, err)
		}
	}
	return nil
}

// SortGuild applies the current theme of one guild and announces promotions
func (w *ThemeWorker) SortGuild(ctx context.Context, guildID int64) error {
	var changes []services.RoleChange
	var announceTo *int64

	err := WithUnitOfWork(ctx, w.uowFactory, guildID, func(uow UnitOfWork) error {
		themes := services.NewThemeService(
			guildID,
			uow.ThemeRepository(),
			uow.StatisticRepository(),
			uow.MemberRepository(),
			w.platform,
			uow.EventBus(),
		)
		var err error
		if changes, err = themes.Sort(ctx); err != nil {
			return err
		}
		settings, err := uow.GuildSettingsRepository().GetOrCreate(ctx)
		if err != nil {
			return fmt.Errorf("failed to get guild settings: %w", err)
		}
		announceTo = settings.AnnouncementChannelID
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"changes":  len(changes),
	}).Info("Theme sorted")

	if announceTo == nil || len(changes) == 0 {
		return nil
	}
	if err := w.notifier.SendChannelMessage(ctx, *announceTo, formatRoleChanges(changes)); err != nil {
		log.Warnf("Failed to announce rank changes in guild %d: %v", guildID, err)
	}
	return nil
}

func formatRoleChanges(changes []services.RoleChange) string {
	var b strings.Builder
	b.WriteString("**Rank update**")
	for _, change := range changes {
		if change.To == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n<@%d> is now <@&%d>", change.DiscordID, change.To)
	}
	return b.String()
}
