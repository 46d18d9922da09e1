package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"helios/domain/entities"
	"helios/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestVoiceController_SlotClaimsAndReleases(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(t0)
	s := New().WithClock(clock.Now)
	connector := new(testhelpers.MockVoiceConnector)
	vc := NewVoiceController(s, connector, 1)

	connector.On("JoinVoice", ctx, int64(1), int64(700)).Return(nil).Once()
	connector.On("LeaveVoice", ctx, int64(1)).Return(nil).Once()

	slot, err := vc.Book(700, time.Minute, 10*time.Second)
	require.NoError(t, err)

	s.Tick(ctx)
	s.Wait()
	assert.Equal(t, slot.ID, vc.Holder())

	clock.Set(t0.Add(time.Minute))
	s.Tick(ctx)
	s.Wait()
	assert.Zero(t, vc.Holder())

	connector.AssertExpectations(t)
}

func TestVoiceController_ClaimWhileHeld(t *testing.T) {
	ctx := context.Background()
	connector := new(testhelpers.MockVoiceConnector)
	vc := NewVoiceController(New(), connector, 1)

	connector.On("JoinVoice", ctx, int64(1), int64(700)).Return(nil)

	require.NoError(t, vc.Claim(ctx, 1, 700))
	err := vc.Claim(ctx, 2, 700)
	assert.ErrorIs(t, err, entities.ErrResourceBusy)
	assert.Equal(t, int64(1), vc.Holder())

	// a slot that does not hold the connection releases nothing
	require.NoError(t, vc.Release(ctx, 2))
	connector.AssertNotCalled(t, "LeaveVoice", mock.Anything, mock.Anything)
}

func TestVoiceController_RetriesThenEndsSlot(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(t0)
	s := New().WithClock(clock.Now)
	connector := new(testhelpers.MockVoiceConnector)
	vc := NewVoiceController(s, connector, 1)
	vc.retryDelay = time.Millisecond

	connector.On("JoinVoice", ctx, int64(1), int64(700)).Return(errors.New("gateway timeout")).Times(connectAttempts)

	_, err := vc.Book(700, time.Minute, 0)
	require.NoError(t, err)

	s.Tick(ctx)
	s.Wait()
	assert.Zero(t, vc.Holder())

	slots := s.Slots()
	require.Len(t, slots, 1)
	assert.Equal(t, t0, slots[0].End, "a failed slot is ended now")

	// the retired slot never held the connection, so nothing is released
	s.Tick(ctx)
	s.Wait()
	assert.Empty(t, s.Slots())
	connector.AssertExpectations(t)
	connector.AssertNotCalled(t, "LeaveVoice", mock.Anything, mock.Anything)
}

func TestVoiceController_RecoversAfterTransientFailure(t *testing.T) {
	ctx := context.Background()
	connector := new(testhelpers.MockVoiceConnector)
	vc := NewVoiceController(New(), connector, 1)
	vc.retryDelay = time.Millisecond

	connector.On("JoinVoice", ctx, int64(1), int64(700)).Return(errors.New("reset")).Twice()
	connector.On("JoinVoice", ctx, int64(1), int64(700)).Return(nil).Once()

	require.NoError(t, vc.Claim(ctx, 9, 700))
	assert.Equal(t, int64(9), vc.Holder())
	connector.AssertNumberOfCalls(t, "JoinVoice", 3)
}

func TestVoiceController_BackToBackSlotsHandOver(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(t0)
	s := New().WithClock(clock.Now)
	connector := new(testhelpers.MockVoiceConnector)
	vc := NewVoiceController(s, connector, 1)

	var calls []string
	connector.On("JoinVoice", ctx, int64(1), int64(700)).Return(nil).Once().
		Run(func(mock.Arguments) { calls = append(calls, "join 700") })
	connector.On("LeaveVoice", ctx, int64(1)).Return(nil).
		Run(func(mock.Arguments) { calls = append(calls, "leave") })
	connector.On("JoinVoice", ctx, int64(1), int64(701)).Return(nil).Once().
		Run(func(mock.Arguments) { calls = append(calls, "join 701") })

	first, err := s.CreateSlot(t0, t0.Add(time.Minute), SlotTypeMusic, map[string]any{"channel_id": int64(700)})
	require.NoError(t, err)
	second, err := s.CreateSlot(t0.Add(time.Minute), t0.Add(2*time.Minute), SlotTypeMusic, map[string]any{"channel_id": int64(701)})
	require.NoError(t, err)

	s.Tick(ctx)
	s.Wait()
	assert.Equal(t, first.ID, vc.Holder())

	// the first slot ends on the same tick the second one starts
	clock.Set(t0.Add(time.Minute))
	s.Tick(ctx)
	s.Wait()
	assert.Equal(t, second.ID, vc.Holder())
	assert.Equal(t, []string{"join 700", "leave", "join 701"}, calls)

	slots := s.Slots()
	require.Len(t, slots, 1)
	assert.Equal(t, t0.Add(2*time.Minute), slots[0].End, "the second slot keeps its booking")
	connector.AssertExpectations(t)
}
