package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"helios/config"
	"helios/domain/entities"
	"helios/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEconomyService_GetOrCreateMember_CreatesWithStartingPoints(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.StartingPoints = 250
	config.SetTestConfig(cfg)
	defer config.ResetConfig()

	ctx := context.Background()
	memberRepo := new(testhelpers.MockMemberRepository)
	txRepo := new(testhelpers.MockTransactionRepository)
	publisher := new(testhelpers.MockEventPublisher)
	service := NewEconomyService(memberRepo, txRepo, publisher)

	created := &entities.Member{DiscordID: 42, Points: 250}
	memberRepo.On("GetByDiscordID", ctx, int64(42)).Return(nil, nil)
	memberRepo.On("Create", ctx, int64(42), int64(250)).Return(created, nil)
	publisher.On("Publish", mock.AnythingOfType("events.MemberCreatedEvent")).Return(nil)

	member, err := service.GetOrCreateMember(ctx, 42)

	require.NoError(t, err)
	assert.Equal(t, int64(250), member.Points)
	memberRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestEconomyService_AddPoints_ClampsAtZero(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	memberRepo := new(testhelpers.MockMemberRepository)
	txRepo := new(testhelpers.MockTransactionRepository)
	publisher := new(testhelpers.MockEventPublisher)
	service := NewEconomyService(memberRepo, txRepo, publisher)

	member := &entities.Member{DiscordID: 7, Points: 100}
	memberRepo.On("GetByDiscordIDForUpdate", ctx, int64(7)).Return(member, nil)
	memberRepo.On("Update", ctx, member).Return(nil)
	txRepo.On("Record", ctx, mock.MatchedBy(func(tx *entities.Transaction) bool {
		return tx.DiscordID == 7 &&
			tx.BalanceBefore == 100 &&
			tx.BalanceAfter == 0 &&
			tx.Amount == -100 &&
			tx.TransactionType == entities.TransactionTypeAdmin
	})).Return(nil)
	publisher.On("Publish", mock.AnythingOfType("events.PointsChangeEvent")).Return(nil)

	result, err := service.AddPoints(ctx, PointsChange{
		DiscordID: 7,
		Amount:    -250,
		Type:      entities.TransactionTypeAdmin,
		Reason:    "penalty",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Points)
	txRepo.AssertExpectations(t)
}

func TestEconomyService_Debit_InsufficientFunds(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	memberRepo := new(testhelpers.MockMemberRepository)
	txRepo := new(testhelpers.MockTransactionRepository)
	publisher := new(testhelpers.MockEventPublisher)
	service := NewEconomyService(memberRepo, txRepo, publisher)

	member := &entities.Member{DiscordID: 7, Points: 50}
	memberRepo.On("GetByDiscordIDForUpdate", ctx, int64(7)).Return(member, nil)

	_, err := service.Debit(ctx, PointsChange{DiscordID: 7, Amount: 51, Type: entities.TransactionTypeStorePurchase})

	assert.True(t, errors.Is(err, entities.ErrInsufficientFunds))
	assert.Equal(t, int64(50), member.Points)
	memberRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	txRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestEconomyService_Transfer_LocksInIDOrder(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	memberRepo := new(testhelpers.MockMemberRepository)
	txRepo := new(testhelpers.MockTransactionRepository)
	publisher := new(testhelpers.MockEventPublisher)
	service := NewEconomyService(memberRepo, txRepo, publisher)

	var locked []int64
	for _, m := range []*entities.Member{{DiscordID: 9, Points: 100}, {DiscordID: 3}} {
		memberRepo.On("GetByDiscordIDForUpdate", ctx, m.DiscordID).Return(m, nil).
			Run(func(args mock.Arguments) { locked = append(locked, args.Get(1).(int64)) })
	}
	memberRepo.On("Update", ctx, mock.Anything).Return(nil)
	txRepo.On("Record", ctx, mock.Anything).Return(nil)
	publisher.On("Publish", mock.Anything).Return(nil)

	require.NoError(t, service.Transfer(ctx, 9, 3, 40, "gift", "gift"))

	assert.Equal(t, []int64{3, 9}, locked)
	memberRepo.AssertNotCalled(t, "GetByDiscordID", mock.Anything, mock.Anything)
}

func TestEconomyService_Debit_RejectsNonPositive(t *testing.T) {
	service := NewEconomyService(newMemoryLedger(nil), newMemoryLedger(nil), discardPublisher{})

	_, err := service.Debit(context.Background(), PointsChange{DiscordID: 1, Amount: 0})
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)
}

func TestEconomyService_Transfer(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	tests := []struct {
		name     string
		from     int64
		amount   int64
		wantErr  error
		wantFrom int64
		wantTo   int64
	}{
		{name: "moves points", from: 500, amount: 200, wantFrom: 300, wantTo: 200},
		{name: "whole balance", from: 500, amount: 500, wantFrom: 0, wantTo: 500},
		{name: "insufficient funds", from: 100, amount: 101, wantErr: entities.ErrInsufficientFunds, wantFrom: 100, wantTo: 0},
		{name: "zero amount", from: 100, amount: 0, wantErr: entities.ErrInvalidAmount, wantFrom: 100, wantTo: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newMemoryLedger(map[int64]int64{1: tt.from, 2: 0})
			service := NewEconomyService(ledger, ledger, discardPublisher{})

			err := service.Transfer(context.Background(), 1, 2, tt.amount, "gift", "gift")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, ledger.transactions)
			} else {
				require.NoError(t, err)
				require.Len(t, ledger.transactions, 2)
				assert.Equal(t, entities.TransactionTypeTransferOut, ledger.transactions[0].TransactionType)
				assert.Equal(t, entities.TransactionTypeTransferIn, ledger.transactions[1].TransactionType)
			}
			assert.Equal(t, tt.wantFrom, ledger.points(1))
			assert.Equal(t, tt.wantTo, ledger.points(2))
		})
	}
}

func TestEconomyService_Transfer_ToSelf(t *testing.T) {
	ledger := newMemoryLedger(map[int64]int64{1: 100})
	service := NewEconomyService(ledger, ledger, discardPublisher{})

	err := service.Transfer(context.Background(), 1, 1, 10, "", "")
	assert.ErrorIs(t, err, entities.ErrIDMismatch)
	assert.Equal(t, int64(100), ledger.points(1))
}

func TestEconomyService_RandomSequences_StayNonNegativeAndConserve(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	rng := rand.New(rand.NewPCG(7, 11))
	ids := []int64{1, 2, 3, 4}

	for run := 0; run < 50; run++ {
		ledger := newMemoryLedger(map[int64]int64{1: 1000, 2: 500, 3: 0, 4: 50})
		service := NewEconomyService(ledger, ledger, discardPublisher{})

		for step := 0; step < 100; step++ {
			if rng.IntN(2) == 0 {
				id := ids[rng.IntN(len(ids))]
				_, err := service.AddPoints(ctx, PointsChange{
					DiscordID: id,
					Amount:    rng.Int64N(2000) - 1000,
					Type:      entities.TransactionTypeAdmin,
				})
				require.NoError(t, err)
			} else {
				from, to := ids[rng.IntN(len(ids))], ids[rng.IntN(len(ids))]
				amount := rng.Int64N(800) + 1
				beforeFrom, beforeTo := ledger.points(from), ledger.points(to)

				err := service.Transfer(ctx, from, to, amount, "a", "b")
				switch {
				case err == nil:
					assert.Equal(t, beforeFrom-amount, ledger.points(from))
					assert.Equal(t, beforeTo+amount, ledger.points(to))
				default:
					assert.Equal(t, beforeFrom, ledger.points(from))
					assert.Equal(t, beforeTo, ledger.points(to))
				}
			}

			for _, id := range ids {
				require.GreaterOrEqual(t, ledger.points(id), int64(0))
			}
		}

		for _, tx := range ledger.transactions {
			assert.GreaterOrEqual(t, tx.BalanceAfter, int64(0))
			assert.Equal(t, tx.BalanceBefore+tx.Amount, tx.BalanceAfter)
		}
	}
}

func TestEconomyService_ClaimDaily_OncePerDay(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	clock := newFakeClock()
	ledger := newMemoryLedger(map[int64]int64{9: 0})
	service := NewEconomyService(ledger, ledger, discardPublisher{}).WithClock(clock.Now)

	claimed, err := service.ClaimDaily(ctx, 9)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, int64(7500), ledger.points(9))

	clock.Advance(11 * time.Hour)
	claimed, err = service.ClaimDaily(ctx, 9)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, int64(7500), ledger.points(9))

	clock.Advance(13 * time.Hour)
	claimed, err = service.ClaimDaily(ctx, 9)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, int64(15000), ledger.points(9))
}

func TestEconomyService_PayoutActivityPoints(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	ledger := newMemoryLedger(map[int64]int64{1: 10, 2: 0})
	service := NewEconomyService(ledger, ledger, discardPublisher{})

	require.NoError(t, service.AccrueActivity(ctx, 1, 30))
	require.NoError(t, service.AccrueActivity(ctx, 2, 5))
	require.NoError(t, service.AccrueActivity(ctx, 2, 0))

	paid, err := service.PayoutActivityPoints(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, paid)
	assert.Equal(t, int64(40), ledger.points(1))
	assert.Equal(t, int64(5), ledger.points(2))

	paid, err = service.PayoutActivityPoints(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, paid)
	assert.Equal(t, int64(40), ledger.points(1))
}
