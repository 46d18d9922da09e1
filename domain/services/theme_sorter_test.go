package services

import (
	"context"
	"testing"

	"helios/domain/entities"
	"helios/domain/interfaces"
	"helios/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testTheme() *entities.Theme {
	return &entities.Theme{
		ID:             1,
		ScoreStatistic: entities.StatMessages,
		Ranks: []entities.ThemeRank{
			{Name: "Gold", RoleID: 100, Maximum: 1},
			{Name: "Silver", RoleID: 200, Maximum: 2},
			{Name: "Bronze", RoleID: 300},
		},
	}
}

func targets(changes []RoleChange) map[int64]int64 {
	out := make(map[int64]int64, len(changes))
	for _, c := range changes {
		out[c.DiscordID] = c.To
	}
	return out
}

func TestSortTheme_FillsRanksInOrder(t *testing.T) {
	candidates := []RankCandidate{
		{DiscordID: 1, Score: 10},
		{DiscordID: 2, Score: 50},
		{DiscordID: 3, Score: 30},
		{DiscordID: 4, Score: 20},
		{DiscordID: 5, Score: 5},
		{DiscordID: 6, Score: 999, Bot: true},
	}

	changes := SortTheme(testTheme(), candidates)

	assert.Equal(t, map[int64]int64{
		2: 100,
		3: 200,
		4: 200,
		1: 300,
		5: 300,
	}, targets(changes))
}

func TestSortTheme_TiesKeepInputOrder(t *testing.T) {
	candidates := []RankCandidate{
		{DiscordID: 7, Score: 10},
		{DiscordID: 8, Score: 10},
		{DiscordID: 9, Score: 10},
		{DiscordID: 10, Score: 10},
	}

	got := targets(SortTheme(testTheme(), candidates))

	assert.Equal(t, int64(100), got[7])
	assert.Equal(t, int64(200), got[8])
	assert.Equal(t, int64(200), got[9])
	assert.Equal(t, int64(300), got[10])
}

func TestSortTheme_OnlyChangesWhatMoved(t *testing.T) {
	candidates := []RankCandidate{
		{DiscordID: 1, Score: 50, RoleIDs: []int64{100, 999}},
		{DiscordID: 2, Score: 40, RoleIDs: []int64{100}},
		{DiscordID: 3, Score: 30, RoleIDs: []int64{300, 200}},
	}

	changes := SortTheme(testTheme(), candidates)

	require.Len(t, changes, 2)
	assert.Equal(t, RoleChange{DiscordID: 2, From: 100, To: 200, Stale: []int64{100}}, changes[0])
	assert.Equal(t, RoleChange{DiscordID: 3, From: 300, To: 200, Stale: []int64{300}}, changes[1])
}

func TestSortTheme_LastRankUnbounded(t *testing.T) {
	theme := &entities.Theme{Ranks: []entities.ThemeRank{{RoleID: 1, Maximum: 0}, {RoleID: 2, Maximum: 0}}}
	var candidates []RankCandidate
	for i := range 20 {
		candidates = append(candidates, RankCandidate{DiscordID: int64(i + 1), Score: int64(i)})
	}

	for _, c := range SortTheme(theme, candidates) {
		assert.Equal(t, int64(2), c.To)
	}
}

func TestThemeService_Sort_TouchesOnlyThemeRoles(t *testing.T) {
	ctx := context.Background()
	themeRepo := new(testhelpers.MockThemeRepository)
	statRepo := new(testhelpers.MockStatisticRepository)
	platform := new(testhelpers.MockMemberPlatform)
	publisher := new(testhelpers.MockEventPublisher)
	service := NewThemeService(77, themeRepo, statRepo, nil, platform, publisher)

	themeRepo.On("GetCurrent", ctx).Return(testTheme(), nil)
	statRepo.On("GetAllByName", ctx, entities.StatMessages).Return([]*entities.Statistic{
		{DiscordID: 1, Value: 90},
		{DiscordID: 2, Value: 10},
	}, nil)
	platform.On("Members", ctx, int64(77)).Return([]interfaces.GuildMember{
		{DiscordID: 1, RoleIDs: []int64{300, 555}},
		{DiscordID: 2, RoleIDs: []int64{200}},
		{DiscordID: 3, Bot: true},
	}, nil)
	platform.On("RemoveRole", ctx, int64(77), int64(1), int64(300)).Return(nil)
	platform.On("AddRole", ctx, int64(77), int64(1), int64(100)).Return(nil)
	publisher.On("Publish", mock.AnythingOfType("events.ThemeSortedEvent")).Return(nil)

	changes, err := service.Sort(ctx)

	require.NoError(t, err)
	require.Len(t, changes, 1)
	platform.AssertExpectations(t)
	platform.AssertNotCalled(t, "RemoveRole", ctx, int64(77), int64(1), int64(555))
	publisher.AssertExpectations(t)
}

func TestThemeService_Sort_NoTheme(t *testing.T) {
	ctx := context.Background()
	themeRepo := new(testhelpers.MockThemeRepository)
	themeRepo.On("GetCurrent", ctx).Return(nil, nil)
	service := NewThemeService(77, themeRepo, nil, nil, nil, nil)

	changes, err := service.Sort(ctx)

	require.NoError(t, err)
	assert.Nil(t, changes)
}
