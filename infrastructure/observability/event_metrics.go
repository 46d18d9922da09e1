package observability

import (
	"context"

	"helios/events"
)

// Subscriber registers handlers for domain events
type Subscriber interface {
	Subscribe(eventType events.EventType, handler events.Handler)
}

// RegisterEventMetrics counts domain events as they are emitted
func RegisterEventMetrics(subscriber Subscriber, mp *MetricsProvider) {
	subscriber.Subscribe(events.EventTypePointsChange, func(_ context.Context, e events.Event) {
		if ev, ok := e.(events.PointsChangeEvent); ok {
			mp.RecordLedgerTransaction(string(ev.TransactionType))
		}
	})
	subscriber.Subscribe(events.EventTypeEffectApplied, func(_ context.Context, e events.Event) {
		if ev, ok := e.(events.EffectAppliedEvent); ok {
			mp.RecordEffectApplied(string(ev.Kind))
		}
	})
	subscriber.Subscribe(events.EventTypeEffectRemoved, func(_ context.Context, e events.Event) {
		if ev, ok := e.(events.EffectRemovedEvent); ok {
			mp.RecordEffectRemoved(string(ev.Kind))
		}
	})
	subscriber.Subscribe(events.EventTypeDynamicVoiceReshaped, func(_ context.Context, e events.Event) {
		if ev, ok := e.(events.DynamicVoiceReshapedEvent); ok {
			mp.RecordVoiceReshape(ev.Created, ev.Deleted)
		}
	})
	subscriber.Subscribe(events.EventTypeBlackjackSettled, func(_ context.Context, e events.Event) {
		if ev, ok := e.(events.BlackjackSettledEvent); ok {
			outcome := OutcomeSettled
			if ev.Refunded {
				outcome = OutcomeRefunded
			}
			mp.RecordBlackjackGame(outcome)
		}
	})
}
