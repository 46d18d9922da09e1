package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"helios/domain/entities"
	"helios/domain/services"
	"helios/events"
	"helios/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViolationRepository_Lifecycle(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewViolationRepository(testDB.DB, testGuildID)
	ctx := context.Background()

	victim := int64(8)
	first := testutil.CreateTestViolation(1, 500, time.Hour)
	first.VictimID = &victim
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedOn.IsZero())

	second := testutil.CreateTestViolation(1, 100, 2*time.Hour)
	require.NoError(t, repo.Create(ctx, second))
	third := testutil.CreateTestViolation(2, 100, 3*time.Hour)
	require.NoError(t, repo.Create(ctx, third))

	stored, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, first.DueDate, stored.DueDate.UTC())
	require.NotNil(t, stored.VictimID)
	assert.Equal(t, victim, *stored.VictimID)
	assert.Equal(t, entities.ViolationNew, stored.State)

	require.NoError(t, repo.UpdateState(ctx, second.ID, entities.ViolationNew, entities.ViolationPaid))

	open, err := repo.GetOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, first.ID, open[0].ID)
	assert.Equal(t, third.ID, open[1].ID)

	byUser, err := repo.GetByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	missing, err := repo.GetByID(ctx, 424242)
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, repo.UpdateState(ctx, 424242, entities.ViolationNew, entities.ViolationDue), entities.ErrInvalidState)
}

func TestViolationRepository_UpdateStateRequiresExpectedState(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewViolationRepository(testDB.DB, testGuildID)
	ctx := context.Background()

	violation := testutil.CreateTestViolation(1, 100, -time.Hour)
	require.NoError(t, repo.Create(ctx, violation))
	require.NoError(t, repo.UpdateState(ctx, violation.ID, entities.ViolationNew, entities.ViolationPaid))

	// a reconcile that read the row before payment must not reopen it
	err := repo.UpdateState(ctx, violation.ID, entities.ViolationNew, entities.ViolationDue)
	assert.ErrorIs(t, err, entities.ErrInvalidState)

	stored, err := repo.GetByID(ctx, violation.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ViolationPaid, stored.State)
}

func TestViolationRepository_ConcurrentPaymentsChargeOnce(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	_, err := NewMemberRepository(testDB.DB, testGuildID).Create(ctx, 1, 1000)
	require.NoError(t, err)
	violation := testutil.CreateTestViolation(1, 200, time.Hour)
	require.NoError(t, NewViolationRepository(testDB.DB, testGuildID).Create(ctx, violation))

	factory := NewUnitOfWorkFactory(testDB.DB)
	pay := func() error {
		uow := factory.CreateForGuildWithPublisher(testGuildID, events.NewTransactionalBus(events.NewBus()))
		if err := uow.Begin(ctx); err != nil {
			return err
		}
		economy := services.NewEconomyService(uow.MemberRepository(), uow.TransactionRepository(), uow.EventBus())
		violations := services.NewViolationService(uow.ViolationRepository(), economy, nil, uow.EventBus())
		if _, err := violations.Pay(ctx, violation.ID, 1); err != nil {
			_ = uow.Rollback()
			return err
		}
		return uow.Commit()
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = pay()
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, entities.ErrInvalidState)
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	member, err := NewMemberRepository(testDB.DB, testGuildID).GetByDiscordID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(800), member.Points)
}
