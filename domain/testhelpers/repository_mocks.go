package testhelpers

import (
	"context"
	"time"

	"helios/domain/entities"
	"helios/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockMemberRepository is a mock implementation of MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) GetByDiscordID(ctx context.Context, discordID int64) (*entities.Member, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

func (m *MockMemberRepository) GetByDiscordIDForUpdate(ctx context.Context, discordID int64) (*entities.Member, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

func (m *MockMemberRepository) Create(ctx context.Context, discordID int64, initialPoints int64) (*entities.Member, error) {
	args := m.Called(ctx, discordID, initialPoints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

func (m *MockMemberRepository) Update(ctx context.Context, member *entities.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) GetAll(ctx context.Context) ([]*entities.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Member), args.Error(1)
}

func (m *MockMemberRepository) GetWithUnpaidActivity(ctx context.Context) ([]*entities.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Member), args.Error(1)
}

func (m *MockMemberRepository) GetTopByPoints(ctx context.Context, limit int) ([]*entities.Member, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Member), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Record(ctx context.Context, tx *entities.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByMember(ctx context.Context, discordID int64, limit int) ([]*entities.Transaction, error) {
	args := m.Called(ctx, discordID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByGame(ctx context.Context, gameID uuid.UUID) ([]*entities.Transaction, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

// MockStatisticRepository is a mock implementation of StatisticRepository
type MockStatisticRepository struct {
	mock.Mock
}

func (m *MockStatisticRepository) Get(ctx context.Context, discordID int64, name string) (int64, error) {
	args := m.Called(ctx, discordID, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatisticRepository) Increment(ctx context.Context, discordID int64, name string, delta int64) (int64, error) {
	args := m.Called(ctx, discordID, name, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatisticRepository) Set(ctx context.Context, discordID int64, name string, value int64) error {
	args := m.Called(ctx, discordID, name, value)
	return args.Error(0)
}

func (m *MockStatisticRepository) RecordHistory(ctx context.Context, discordID int64, name string, at time.Time) error {
	args := m.Called(ctx, discordID, name, at)
	return args.Error(0)
}

func (m *MockStatisticRepository) RecordAllHistory(ctx context.Context, at time.Time) (int64, error) {
	args := m.Called(ctx, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatisticRepository) ValueAt(ctx context.Context, discordID int64, name string, at time.Time) (int64, bool, error) {
	args := m.Called(ctx, discordID, name, at)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockStatisticRepository) GetAllByName(ctx context.Context, name string) ([]*entities.Statistic, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Statistic), args.Error(1)
}

// MockViolationRepository is a mock implementation of ViolationRepository
type MockViolationRepository struct {
	mock.Mock
}

func (m *MockViolationRepository) Create(ctx context.Context, violation *entities.Violation) error {
	args := m.Called(ctx, violation)
	return args.Error(0)
}

func (m *MockViolationRepository) GetByID(ctx context.Context, id int64) (*entities.Violation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Violation), args.Error(1)
}

func (m *MockViolationRepository) GetOpen(ctx context.Context) ([]*entities.Violation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Violation), args.Error(1)
}

func (m *MockViolationRepository) GetByUser(ctx context.Context, userID int64) ([]*entities.Violation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Violation), args.Error(1)
}

func (m *MockViolationRepository) UpdateState(ctx context.Context, id int64, from, to entities.ViolationState) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

// MockStoreRepository is a mock implementation of StoreRepository
type MockStoreRepository struct {
	mock.Mock
}

func (m *MockStoreRepository) Get(ctx context.Context) (*entities.Store, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Store), args.Error(1)
}

func (m *MockStoreRepository) Save(ctx context.Context, store *entities.Store) error {
	args := m.Called(ctx, store)
	return args.Error(0)
}

// MockInventoryRepository is a mock implementation of InventoryRepository
type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) Get(ctx context.Context, discordID int64) (*entities.Inventory, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Inventory), args.Error(1)
}

func (m *MockInventoryRepository) Save(ctx context.Context, inventory *entities.Inventory) error {
	args := m.Called(ctx, inventory)
	return args.Error(0)
}

// MockEffectRepository is a mock implementation of EffectRepository
type MockEffectRepository struct {
	mock.Mock
}

func (m *MockEffectRepository) Create(ctx context.Context, effect *entities.Effect) error {
	args := m.Called(ctx, effect)
	return args.Error(0)
}

func (m *MockEffectRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEffectRepository) GetAll(ctx context.Context) ([]*entities.Effect, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Effect), args.Error(1)
}

func (m *MockEffectRepository) SavePending(ctx context.Context, effect *entities.Effect) error {
	args := m.Called(ctx, effect)
	return args.Error(0)
}

func (m *MockEffectRepository) DeletePending(ctx context.Context, effectID int64) error {
	args := m.Called(ctx, effectID)
	return args.Error(0)
}

func (m *MockEffectRepository) GetPending(ctx context.Context) ([]*entities.Effect, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Effect), args.Error(1)
}

// MockDynamicVoiceRepository is a mock implementation of DynamicVoiceRepository
type MockDynamicVoiceRepository struct {
	mock.Mock
}

func (m *MockDynamicVoiceRepository) GetGroups(ctx context.Context) ([]*entities.DynamicVoiceGroup, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DynamicVoiceGroup), args.Error(1)
}

func (m *MockDynamicVoiceRepository) CreateGroup(ctx context.Context, group *entities.DynamicVoiceGroup) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockDynamicVoiceRepository) UpdateGroup(ctx context.Context, group *entities.DynamicVoiceGroup) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockDynamicVoiceRepository) DeleteGroup(ctx context.Context, groupID int64) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

func (m *MockDynamicVoiceRepository) GetChannels(ctx context.Context) ([]*entities.DynamicVoiceChannel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DynamicVoiceChannel), args.Error(1)
}

func (m *MockDynamicVoiceRepository) CreateChannel(ctx context.Context, channel *entities.DynamicVoiceChannel) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockDynamicVoiceRepository) UpdateChannel(ctx context.Context, channel *entities.DynamicVoiceChannel) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockDynamicVoiceRepository) DeleteChannel(ctx context.Context, channelID int64) error {
	args := m.Called(ctx, channelID)
	return args.Error(0)
}

func (m *MockDynamicVoiceRepository) DeleteAllChannels(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockThemeRepository is a mock implementation of ThemeRepository
type MockThemeRepository struct {
	mock.Mock
}

func (m *MockThemeRepository) GetCurrent(ctx context.Context) (*entities.Theme, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Theme), args.Error(1)
}

func (m *MockThemeRepository) GetAll(ctx context.Context) ([]*entities.Theme, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Theme), args.Error(1)
}

func (m *MockThemeRepository) Create(ctx context.Context, theme *entities.Theme) error {
	args := m.Called(ctx, theme)
	return args.Error(0)
}

func (m *MockThemeRepository) SetCurrent(ctx context.Context, themeID int64) error {
	args := m.Called(ctx, themeID)
	return args.Error(0)
}

// MockPugRepository is a mock implementation of PugRepository
type MockPugRepository struct {
	mock.Mock
}

func (m *MockPugRepository) GetByChannel(ctx context.Context, channelID int64) (*entities.PUG, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PUG), args.Error(1)
}

func (m *MockPugRepository) GetAll(ctx context.Context) ([]*entities.PUG, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PUG), args.Error(1)
}

func (m *MockPugRepository) Create(ctx context.Context, pug *entities.PUG) error {
	args := m.Called(ctx, pug)
	return args.Error(0)
}

func (m *MockPugRepository) Update(ctx context.Context, pug *entities.PUG) error {
	args := m.Called(ctx, pug)
	return args.Error(0)
}

func (m *MockPugRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockBlackjackRepository is a mock implementation of BlackjackRepository
type MockBlackjackRepository struct {
	mock.Mock
}

func (m *MockBlackjackRepository) Create(ctx context.Context, record *entities.BlackjackRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockBlackjackRepository) Update(ctx context.Context, record *entities.BlackjackRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockBlackjackRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.BlackjackRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BlackjackRecord), args.Error(1)
}

// MockGuildSettingsRepository is a mock implementation of GuildSettingsRepository
type MockGuildSettingsRepository struct {
	mock.Mock
}

func (m *MockGuildSettingsRepository) GetOrCreate(ctx context.Context) (*entities.GuildSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GuildSettings), args.Error(1)
}

func (m *MockGuildSettingsRepository) Update(ctx context.Context, settings *entities.GuildSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
