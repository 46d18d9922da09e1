package application

import (
	"context"
	"sync"

	"helios/domain/interfaces"
	"helios/domain/testhelpers"
)

// mockUnitOfWork hands out the same mock repositories for every unit of work
type mockUnitOfWork struct {
	members      *testhelpers.MockMemberRepository
	transactions *testhelpers.MockTransactionRepository
	statistics   *testhelpers.MockStatisticRepository
	violations   *testhelpers.MockViolationRepository
	stores       *testhelpers.MockStoreRepository
	inventories  *testhelpers.MockInventoryRepository
	themes       *testhelpers.MockThemeRepository
	blackjack    *testhelpers.MockBlackjackRepository
	settings     *testhelpers.MockGuildSettingsRepository
	publisher    *testhelpers.MockEventPublisher

	mu        sync.Mutex
	guilds    []int64
	begins    int
	commits   int
	rollbacks int
}

func newMockUnitOfWork() *mockUnitOfWork {
	return &mockUnitOfWork{
		members:      new(testhelpers.MockMemberRepository),
		transactions: new(testhelpers.MockTransactionRepository),
		statistics:   new(testhelpers.MockStatisticRepository),
		violations:   new(testhelpers.MockViolationRepository),
		stores:       new(testhelpers.MockStoreRepository),
		inventories:  new(testhelpers.MockInventoryRepository),
		themes:       new(testhelpers.MockThemeRepository),
		blackjack:    new(testhelpers.MockBlackjackRepository),
		settings:     new(testhelpers.MockGuildSettingsRepository),
		publisher:    new(testhelpers.MockEventPublisher),
	}
}

func (u *mockUnitOfWork) CreateForGuild(guildID int64) UnitOfWork {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.guilds = append(u.guilds, guildID)
	return &mockScope{parent: u}
}

func (u *mockUnitOfWork) counts() (begins, commits int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.begins, u.commits
}

// mockScope is one unit of work; Rollback after Commit is a no-op like the real one
type mockScope struct {
	parent    *mockUnitOfWork
	committed bool
}

func (s *mockScope) Begin(context.Context) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	s.parent.begins++
	return nil
}

func (s *mockScope) Commit() error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	s.parent.commits++
	s.committed = true
	return nil
}

func (s *mockScope) Rollback() error {
	if s.committed {
		return nil
	}
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	s.parent.rollbacks++
	return nil
}

func (s *mockScope) MemberRepository() interfaces.MemberRepository {
	return s.parent.members
}

func (s *mockScope) TransactionRepository() interfaces.TransactionRepository {
	return s.parent.transactions
}

func (s *mockScope) StatisticRepository() interfaces.StatisticRepository {
	return s.parent.statistics
}

func (s *mockScope) ViolationRepository() interfaces.ViolationRepository {
	return s.parent.violations
}

func (s *mockScope) StoreRepository() interfaces.StoreRepository {
	return s.parent.stores
}

func (s *mockScope) InventoryRepository() interfaces.InventoryRepository {
	return s.parent.inventories
}

func (s *mockScope) ThemeRepository() interfaces.ThemeRepository {
	return s.parent.themes
}

func (s *mockScope) BlackjackRepository() interfaces.BlackjackRepository {
	return s.parent.blackjack
}

func (s *mockScope) GuildSettingsRepository() interfaces.GuildSettingsRepository {
	return s.parent.settings
}

func (s *mockScope) EventBus() interfaces.EventPublisher {
	return s.parent.publisher
}

type staticGuilds []int64

func (g staticGuilds) GuildIDs(context.Context) ([]int64, error) {
	return g, nil
}

type staticRoster map[int64][]interfaces.Occupant

func (r staticRoster) VoiceOccupancy(context.Context, int64) (map[int64][]interfaces.Occupant, error) {
	return r, nil
}
