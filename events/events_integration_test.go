package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"helios/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionalBus_FlushDelivers(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan PointsChangeEvent, 1)
	mainBus.Subscribe(EventTypePointsChange, func(ctx context.Context, event Event) {
		if e, ok := event.(PointsChangeEvent); ok {
			received <- e
		}
	})

	testEvent := PointsChangeEvent{
		GuildID:         789,
		DiscordID:       123456,
		OldPoints:       1000,
		NewPoints:       1500,
		ChangeAmount:    500,
		TransactionType: entities.TransactionTypeDaily,
	}
	require.NoError(t, transactionalBus.Publish(testEvent))

	select {
	case <-received:
		t.Fatal("event delivered before flush")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, transactionalBus.Flush(context.Background()))

	select {
	case got := <-received:
		assert.Equal(t, testEvent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not received within timeout")
	}
}

func TestTransactionalBus_DiscardDropsEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	count := 0
	mainBus.Subscribe(EventTypePointsChange, func(ctx context.Context, event Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	require.NoError(t, transactionalBus.Publish(PointsChangeEvent{DiscordID: 1}))
	transactionalBus.Discard()
	require.NoError(t, transactionalBus.Flush(context.Background()))

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, count)
}

func TestBus_HandlerPanicIsContained(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	wg.Add(1)
	bus.Subscribe(EventTypeEffectApplied, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeEffectApplied, func(ctx context.Context, event Event) {
		wg.Done()
	})

	require.NoError(t, bus.Publish(EffectAppliedEvent{EffectID: 1}))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler did not run")
	}
}
