package services

import (
	"context"
	"testing"
	"time"

	"helios/domain/entities"
	"helios/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatisticsService_ChangeSince(t *testing.T) {
	ctx := context.Background()
	repo := new(testhelpers.MockStatisticRepository)
	service := NewStatisticsService(repo, nil)
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	repo.On("Get", ctx, int64(1), entities.StatMessages).Return(int64(140), nil)
	repo.On("ValueAt", ctx, int64(1), entities.StatMessages, since).Return(int64(100), true, nil)

	change, err := service.ChangeSince(ctx, 1, entities.StatMessages, since)

	require.NoError(t, err)
	assert.Equal(t, int64(40), change)
	repo.AssertExpectations(t)
}

func TestStatisticsService_ChangeSince_NoSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := new(testhelpers.MockStatisticRepository)
	service := NewStatisticsService(repo, nil)
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	repo.On("Get", ctx, int64(1), entities.StatVoiceTime).Return(int64(75), nil)
	repo.On("ValueAt", ctx, int64(1), entities.StatVoiceTime, since).Return(int64(0), false, nil)

	change, err := service.ChangeSince(ctx, 1, entities.StatVoiceTime, since)

	require.NoError(t, err)
	assert.Equal(t, int64(75), change)
}

func TestStatisticsService_RecordMessage_LimitsBursts(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	repo := new(testhelpers.MockStatisticRepository)
	service := NewStatisticsService(repo, NewCooldowns().WithClock(clock.Now))

	repo.On("Increment", ctx, int64(3), entities.StatMessages, int64(1)).Return(int64(1), nil)
	repo.On("Increment", ctx, int64(3), entities.StatLimitedMessages, int64(1)).Return(int64(1), nil)

	for range 5 {
		require.NoError(t, service.RecordMessage(ctx, 3))
		clock.Advance(time.Second)
	}
	clock.Advance(15 * time.Second)
	require.NoError(t, service.RecordMessage(ctx, 3))

	repo.AssertNumberOfCalls(t, "Increment", 6+2)
}

func TestStatisticsService_Snapshot(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	repo := new(testhelpers.MockStatisticRepository)
	service := NewStatisticsService(repo, nil).WithClock(clock.Now)

	repo.On("RecordAllHistory", ctx, clock.Now()).Return(int64(12), nil)
	repo.On("RecordHistory", ctx, int64(4), entities.StatPoints, mock.AnythingOfType("time.Time")).Return(nil)

	count, err := service.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
	require.NoError(t, service.RecordHistory(ctx, 4, entities.StatPoints))

	repo.AssertExpectations(t)
}
