package services

import (
	"context"
	"fmt"

	"helios/domain/entities"
	"helios/domain/interfaces"
	"helios/events"

	log "github.com/sirupsen/logrus"
)

// ThemeService manages rank themes and applies the sorter's role changes
type ThemeService struct {
	guildID        int64
	themeRepo      interfaces.ThemeRepository
	statisticRepo  interfaces.StatisticRepository
	memberRepo     interfaces.MemberRepository
	platform       interfaces.MemberPlatform
	eventPublisher interfaces.EventPublisher
}

// NewThemeService creates a new theme service
func NewThemeService(
	guildID int64,
	themeRepo interfaces.ThemeRepository,
	statisticRepo interfaces.StatisticRepository,
	memberRepo interfaces.MemberRepository,
	platform interfaces.MemberPlatform,
	eventPublisher interfaces.EventPublisher,
) *ThemeService {
	return &ThemeService{
		guildID:        guildID,
		themeRepo:      themeRepo,
		statisticRepo:  statisticRepo,
		memberRepo:     memberRepo,
		platform:       platform,
		eventPublisher: eventPublisher,
	}
}

// CreateTheme validates and stores a new theme
func (s *ThemeService) CreateTheme(ctx context.Context, ownerID int64, name, statistic string, ranks []entities.ThemeRank) (*entities.Theme, error) {
	if len(ranks) == 0 {
		return nil, fmt.Errorf("theme %q needs at least one rank: %w", name, entities.ErrInvalidState)
	}
	for i, rank := range ranks[:len(ranks)-1] {
		if rank.Maximum < 0 {
			return nil, fmt.Errorf("rank %d of theme %q has a negative maximum: %w", i, name, entities.ErrInvalidAmount)
		}
	}

	theme := &entities.Theme{
		OwnerID:        ownerID,
		Name:           name,
		ScoreStatistic: statistic,
		Ranks:          ranks,
		Editable:       true,
	}
	if err := s.themeRepo.Create(ctx, theme); err != nil {
		return nil, fmt.Errorf("failed to create theme %q: %w", name, err)
	}
	return theme, nil
}

// Activate makes a theme the guild's current one
func (s *ThemeService) Activate(ctx context.Context, themeID int64) error {
	if err := s.themeRepo.SetCurrent(ctx, themeID); err != nil {
		return fmt.Errorf("failed to activate theme %d: %w", themeID, err)
	}
	return nil
}

// Sort runs one rank pass for the current theme and returns the applied
// changes. Members are scored by the theme's statistic; points are read from
// the member ledger directly.
func (s *ThemeService) Sort(ctx context.Context) ([]RoleChange, error) {
	theme, err := s.themeRepo.GetCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current theme: %w", err)
	}
	if theme == nil {
		return nil, nil
	}

	scores, err := s.scores(ctx, theme.ScoreStatistic)
	if err != nil {
		return nil, err
	}
	guildMembers, err := s.platform.Members(ctx, s.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guild members: %w", err)
	}

	candidates := make([]RankCandidate, 0, len(guildMembers))
	for _, m := range guildMembers {
		candidates = append(candidates, RankCandidate{
			DiscordID: m.DiscordID,
			Bot:       m.Bot,
			Score:     scores[m.DiscordID],
			RoleIDs:   m.RoleIDs,
		})
	}

	changes := SortTheme(theme, candidates)
	applied := make([]RoleChange, 0, len(changes))
	for _, change := range changes {
		if err := s.apply(ctx, change); err != nil {
			log.WithFields(log.Fields{
				"discordID": change.DiscordID,
				"themeID":   theme.ID,
				"to":        change.To,
			}).Warnf("Failed to apply rank change: %v", err)
			continue
		}
		applied = append(applied, change)
	}

	if len(applied) > 0 {
		if err := s.eventPublisher.Publish(events.ThemeSortedEvent{
			GuildID: s.guildID,
			ThemeID: theme.ID,
			Changes: len(applied),
		}); err != nil {
			log.Errorf("Failed to publish theme sorted event: %v", err)
		}
	}
	return applied, nil
}

// apply removes stale rank roles before granting the new one
func (s *ThemeService) apply(ctx context.Context, change RoleChange) error {
	for _, roleID := range change.Stale {
		if err := s.platform.RemoveRole(ctx, s.guildID, change.DiscordID, roleID); err != nil {
			return fmt.Errorf("failed to remove role %d: %w", roleID, err)
		}
	}
	if err := s.platform.AddRole(ctx, s.guildID, change.DiscordID, change.To); err != nil {
		return fmt.Errorf("failed to add role %d: %w", change.To, err)
	}
	return nil
}

func (s *ThemeService) scores(ctx context.Context, statistic string) (map[int64]int64, error) {
	scores := make(map[int64]int64)
	if statistic == entities.StatPoints {
		members, err := s.memberRepo.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get members: %w", err)
		}
		for _, m := range members {
			scores[m.DiscordID] = m.Points
		}
		return scores, nil
	}

	stats, err := s.statisticRepo.GetAllByName(ctx, statistic)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s statistics: %w", statistic, err)
	}
	for _, st := range stats {
		scores[st.DiscordID] = st.Value
	}
	return scores, nil
}
