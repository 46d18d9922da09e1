package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"helios/domain/entities"
	"helios/domain/interfaces"
)

const (
	cooldownLimitedMessages = "limited_messages"
	limitedMessageCooldown  = 15 * time.Second
)

// StatisticsService reads and writes per-member counters and their history
type StatisticsService struct {
	statisticRepo interfaces.StatisticRepository
	cooldowns     *Cooldowns
	now           func() time.Time
}

// NewStatisticsService creates a new statistics service. cooldowns may be
// shared with other services; a nil value gets a private table.
func NewStatisticsService(statisticRepo interfaces.StatisticRepository, cooldowns *Cooldowns) *StatisticsService {
	if cooldowns == nil {
		cooldowns = NewCooldowns()
	}
	return &StatisticsService{
		statisticRepo: statisticRepo,
		cooldowns:     cooldowns,
		now:           time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *StatisticsService) WithClock(now func() time.Time) *StatisticsService {
	s.now = now
	return s
}

func (s *StatisticsService) Get(ctx context.Context, discordID int64, name string) (int64, error) {
	value, err := s.statisticRepo.Get(ctx, discordID, name)
	if err != nil {
		return 0, fmt.Errorf("failed to get statistic %s for %d: %w", name, discordID, err)
	}
	return value, nil
}

func (s *StatisticsService) Increment(ctx context.Context, discordID int64, name string, delta int64) (int64, error) {
	value, err := s.statisticRepo.Increment(ctx, discordID, name, delta)
	if err != nil {
		return 0, fmt.Errorf("failed to increment statistic %s for %d: %w", name, discordID, err)
	}
	return value, nil
}

func (s *StatisticsService) Set(ctx context.Context, discordID int64, name string, value int64) error {
	if err := s.statisticRepo.Set(ctx, discordID, name, value); err != nil {
		return fmt.Errorf("failed to set statistic %s for %d: %w", name, discordID, err)
	}
	return nil
}

// RecordHistory snapshots a single statistic at the current instant
func (s *StatisticsService) RecordHistory(ctx context.Context, discordID int64, name string) error {
	if err := s.statisticRepo.RecordHistory(ctx, discordID, name, s.now()); err != nil {
		return fmt.Errorf("failed to record history of %s for %d: %w", name, discordID, err)
	}
	return nil
}

// Snapshot records every statistic of the guild and returns how many rows were written
func (s *StatisticsService) Snapshot(ctx context.Context) (int64, error) {
	count, err := s.statisticRepo.RecordAllHistory(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to snapshot statistics: %w", err)
	}
	return count, nil
}

// ChangeSince returns how far a statistic moved since t. The baseline is the
// latest snapshot at or before t, or zero when none exists.
func (s *StatisticsService) ChangeSince(ctx context.Context, discordID int64, name string, t time.Time) (int64, error) {
	current, err := s.Get(ctx, discordID, name)
	if err != nil {
		return 0, err
	}
	baseline, _, err := s.statisticRepo.ValueAt(ctx, discordID, name, t)
	if err != nil {
		return 0, fmt.Errorf("failed to get %s baseline for %d: %w", name, discordID, err)
	}
	return current - baseline, nil
}

// RecordMessage counts a message. limited_messages only advances once per
// cooldown window so bursts of messages count once.
func (s *StatisticsService) RecordMessage(ctx context.Context, discordID int64) error {
	if _, err := s.Increment(ctx, discordID, entities.StatMessages, 1); err != nil {
		return err
	}
	if !s.cooldowns.TryAcquire(cooldownLimitedMessages, strconv.FormatInt(discordID, 10), limitedMessageCooldown) {
		return nil
	}
	_, err := s.Increment(ctx, discordID, entities.StatLimitedMessages, 1)
	return err
}

// Leaderboard returns every member's value of a statistic
func (s *StatisticsService) Leaderboard(ctx context.Context, name string) ([]*entities.Statistic, error) {
	stats, err := s.statisticRepo.GetAllByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s leaderboard: %w", name, err)
	}
	return stats, nil
}
