package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"helios/domain/entities"
	"helios/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	subject string
	data    []byte
}

type fakeMessagePublisher struct {
	messages []publishedMessage
	err      error
}

func (f *fakeMessagePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, publishedMessage{subject: subject, data: data})
	return nil
}

func TestEventSubjectMapper(t *testing.T) {
	mapper := NewEventSubjectMapper("helios")

	tests := []struct {
		name    string
		event   events.Event
		subject string
	}{
		{"points change", events.PointsChangeEvent{}, "helios.members.points_changed"},
		{"violation", events.ViolationStateChangeEvent{}, "helios.violations.state_changed"},
		{"blackjack", events.BlackjackSettledEvent{}, "helios.blackjack.settled"},
		{"dynamic voice", events.DynamicVoiceReshapedEvent{}, "helios.voice.dynamic.reshaped"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject := mapper.MapEventToSubject(tt.event)
			assert.Equal(t, tt.subject, subject)
			assert.Equal(t, tt.event.Type(), mapper.MapSubjectToEventType(subject))
		})
	}

	assert.Equal(t, []string{"helios.>"}, mapper.GetAllSubjects())
}

func TestNATSEventPublisher_PublishesEnvelope(t *testing.T) {
	client := &fakeMessagePublisher{}
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper("helios"), nil)

	event := events.PointsChangeEvent{
		GuildID:         7,
		DiscordID:       42,
		OldPoints:       10,
		NewPoints:       25,
		ChangeAmount:    15,
		TransactionType: entities.TransactionTypeTransferIn,
		Reason:          "thanks",
	}
	require.NoError(t, publisher.Publish(event))

	require.Len(t, client.messages, 1)
	assert.Equal(t, "helios.members.points_changed", client.messages[0].subject)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(client.messages[0].data, &envelope))
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, string(events.EventTypePointsChange), envelope.EventType)
	assert.Equal(t, "helios", envelope.SourceService)

	var payload events.PointsChangeEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event, payload)
}

func TestNATSEventPublisher_EmitsLocally(t *testing.T) {
	client := &fakeMessagePublisher{}
	bus := events.NewBus()
	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventTypeStoreRefreshed, func(ctx context.Context, e events.Event) {
		received <- e
	})

	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper("helios"), bus)
	event := events.StoreRefreshedEvent{GuildID: 3, Items: 6}
	require.NoError(t, publisher.Publish(event))

	select {
	case e := <-received:
		assert.Equal(t, event, e)
	case <-time.After(time.Second):
		t.Fatal("local handler was not called")
	}
	assert.Len(t, client.messages, 1)
}

func TestNATSEventPublisher_Errors(t *testing.T) {
	t.Run("missing stream is ignored", func(t *testing.T) {
		client := &fakeMessagePublisher{err: errors.New("nats: no response from stream")}
		publisher := NewNATSEventPublisher(client, NewEventSubjectMapper("helios"), nil)
		assert.NoError(t, publisher.Publish(events.StoreRefreshedEvent{GuildID: 1}))
	})

	t.Run("other failures are returned", func(t *testing.T) {
		client := &fakeMessagePublisher{err: errors.New("connection closed")}
		publisher := NewNATSEventPublisher(client, NewEventSubjectMapper("helios"), nil)
		err := publisher.Publish(events.StoreRefreshedEvent{GuildID: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection closed")
	})
}
