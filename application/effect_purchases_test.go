package application

import (
	"context"
	"testing"
	"time"

	"helios/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockApplier struct {
	mock.Mock
}

func (m *mockApplier) Add(ctx context.Context, effect *entities.Effect) (*entities.Effect, error) {
	args := m.Called(ctx, effect)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Effect), args.Error(1)
}

func TestEffectShop_Buy(t *testing.T) {
	setTestConfig(t)
	ctx := context.Background()
	uow := newMockUnitOfWork()

	member := &entities.Member{GuildID: 1, DiscordID: 7, Points: 1000}
	uow.members.On("GetByDiscordIDForUpdate", mock.Anything, int64(7)).Return(member, nil)
	uow.members.On("Update", mock.Anything, member).Return(nil)
	uow.transactions.On("Record", mock.Anything, mock.MatchedBy(func(tx *entities.Transaction) bool {
		return tx.TransactionType == entities.TransactionTypeEffectPurchase && tx.Amount == -300
	})).Return(nil)
	uow.publisher.On("Publish", mock.Anything).Return(nil)

	applier := new(mockApplier)
	applier.On("Add", mock.Anything, mock.MatchedBy(func(e *entities.Effect) bool {
		return e.Kind == entities.EffectMute && e.TargetID == 9 && *e.SourceID == 7 && e.Extras.Cost == 300
	})).Return(&entities.Effect{ID: 42}, nil)

	shop := NewEffectShop(uow, applier, ServiceDeps{})
	effect, cost, err := shop.Buy(ctx, EffectOrder{
		GuildID:    1,
		BuyerID:    7,
		Kind:       entities.EffectMute,
		TargetType: entities.TargetMember,
		TargetID:   9,
		Duration:   30 * time.Second,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), effect.ID)
	assert.Equal(t, int64(300), cost)
	assert.Equal(t, int64(700), member.Points)
	_, commits := uow.counts()
	assert.Equal(t, 1, commits)
}

func TestEffectShop_BuyRefusedRollsBack(t *testing.T) {
	setTestConfig(t)
	ctx := context.Background()
	uow := newMockUnitOfWork()

	member := &entities.Member{GuildID: 1, DiscordID: 7, Points: 1000}
	uow.members.On("GetByDiscordIDForUpdate", mock.Anything, int64(7)).Return(member, nil)
	uow.members.On("Update", mock.Anything, member).Return(nil)
	uow.transactions.On("Record", mock.Anything, mock.Anything).Return(nil)
	uow.publisher.On("Publish", mock.Anything).Return(nil)

	applier := new(mockApplier)
	applier.On("Add", mock.Anything, mock.Anything).Return(nil, entities.ErrShielded)

	shop := NewEffectShop(uow, applier, ServiceDeps{})
	_, _, err := shop.Buy(ctx, EffectOrder{
		GuildID:    1,
		BuyerID:    7,
		Kind:       entities.EffectDeafen,
		TargetType: entities.TargetMember,
		TargetID:   9,
		Duration:   10 * time.Second,
	})

	assert.ErrorIs(t, err, entities.ErrShielded)
	_, commits := uow.counts()
	assert.Equal(t, 0, commits)
}

func TestEffectShop_BuyInsufficientFunds(t *testing.T) {
	setTestConfig(t)
	uow := newMockUnitOfWork()

	member := &entities.Member{GuildID: 1, DiscordID: 7, Points: 10}
	uow.members.On("GetByDiscordIDForUpdate", mock.Anything, int64(7)).Return(member, nil)

	applier := new(mockApplier)
	shop := NewEffectShop(uow, applier, ServiceDeps{})
	_, _, err := shop.Buy(context.Background(), EffectOrder{
		GuildID:    1,
		BuyerID:    7,
		Kind:       entities.EffectShield,
		TargetType: entities.TargetMember,
		TargetID:   7,
		Duration:   time.Hour,
	})

	assert.ErrorIs(t, err, entities.ErrInsufficientFunds)
	applier.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestEffectShop_UseItem(t *testing.T) {
	setTestConfig(t)
	ctx := context.Background()

	t.Run("shield protects the user", func(t *testing.T) {
		uow := newMockUnitOfWork()
		inv := &entities.Inventory{DiscordID: 7, Items: []*entities.Item{{Name: entities.ItemShield, Quantity: 2}}}
		uow.inventories.On("Get", mock.Anything, int64(7)).Return(inv, nil)
		uow.inventories.On("Save", mock.Anything, inv).Return(nil)

		applier := new(mockApplier)
		applier.On("Add", mock.Anything, mock.MatchedBy(func(e *entities.Effect) bool {
			return e.Kind == entities.EffectShield && e.TargetID == 7 && e.Duration == time.Hour
		})).Return(&entities.Effect{ID: 1}, nil)

		shop := NewEffectShop(uow, applier, ServiceDeps{})
		_, err := shop.UseItem(ctx, 1, 7, entities.ItemShield, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), inv.Get(entities.ItemShield).Quantity)
	})

	t.Run("mute token needs a target", func(t *testing.T) {
		shop := NewEffectShop(newMockUnitOfWork(), new(mockApplier), ServiceDeps{})
		_, err := shop.UseItem(ctx, 1, 7, entities.ItemMuteToken, 7)
		assert.ErrorIs(t, err, entities.ErrInvalidState)
	})

	t.Run("bubble targets a channel", func(t *testing.T) {
		uow := newMockUnitOfWork()
		inv := &entities.Inventory{DiscordID: 7, Items: []*entities.Item{{Name: entities.ItemBubble, Quantity: 1}}}
		uow.inventories.On("Get", mock.Anything, int64(7)).Return(inv, nil)
		uow.inventories.On("Save", mock.Anything, inv).Return(nil)

		applier := new(mockApplier)
		applier.On("Add", mock.Anything, mock.MatchedBy(func(e *entities.Effect) bool {
			return e.Kind == entities.EffectChannelShield && e.TargetType == entities.TargetChannel && e.TargetID == 300
		})).Return(&entities.Effect{ID: 2}, nil)

		shop := NewEffectShop(uow, applier, ServiceDeps{})
		_, err := shop.UseItem(ctx, 1, 7, entities.ItemBubble, 300)
		require.NoError(t, err)
		assert.Nil(t, inv.Get(entities.ItemBubble))
	})

	t.Run("items that are not held", func(t *testing.T) {
		uow := newMockUnitOfWork()
		uow.inventories.On("Get", mock.Anything, int64(7)).Return(&entities.Inventory{DiscordID: 7}, nil)

		applier := new(mockApplier)
		shop := NewEffectShop(uow, applier, ServiceDeps{})
		_, err := shop.UseItem(ctx, 1, 7, entities.ItemDeflector, 0)
		assert.ErrorIs(t, err, entities.ErrNotFound)
		applier.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})
}
