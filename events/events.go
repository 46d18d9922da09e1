package events

import (
	"context"
	"sync"

	"helios/domain/entities"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePointsChange         EventType = "points_change"
	EventTypeMemberCreated        EventType = "member_created"
	EventTypeViolationStateChange EventType = "violation_state_change"
	EventTypeEffectApplied        EventType = "effect_applied"
	EventTypeEffectRemoved        EventType = "effect_removed"
	EventTypeBlackjackSettled     EventType = "blackjack_settled"
	EventTypeThemeSorted          EventType = "theme_sorted"
	EventTypeStoreRefreshed       EventType = "store_refreshed"
	EventTypeDynamicVoiceReshaped EventType = "dynamic_voice_reshaped"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PointsChangeEvent is emitted for every ledger entry
type PointsChangeEvent struct {
	GuildID         int64
	DiscordID       int64
	OldPoints       int64
	NewPoints       int64
	ChangeAmount    int64
	TransactionType entities.TransactionType
	Reason          string
}

func (e PointsChangeEvent) Type() EventType {
	return EventTypePointsChange
}

// MemberCreatedEvent is emitted the first time a member is observed
type MemberCreatedEvent struct {
	GuildID       int64
	DiscordID     int64
	InitialPoints int64
}

func (e MemberCreatedEvent) Type() EventType {
	return EventTypeMemberCreated
}

// ViolationStateChangeEvent is emitted on every violation transition
type ViolationStateChangeEvent struct {
	GuildID     int64
	ViolationID int64
	UserID      int64
	OldState    entities.ViolationState
	NewState    entities.ViolationState
}

func (e ViolationStateChangeEvent) Type() EventType {
	return EventTypeViolationStateChange
}

// EffectAppliedEvent is emitted when an effect starts
type EffectAppliedEvent struct {
	GuildID  int64
	EffectID int64
	Kind     entities.EffectKind
	TargetID int64
	Seconds  int64
}

func (e EffectAppliedEvent) Type() EventType {
	return EventTypeEffectApplied
}

// EffectRemovedEvent is emitted when an effect ends or is cancelled
type EffectRemovedEvent struct {
	GuildID  int64
	EffectID int64
	Kind     entities.EffectKind
	TargetID int64
}

func (e EffectRemovedEvent) Type() EventType {
	return EventTypeEffectRemoved
}

// BlackjackSettledEvent is emitted when a game finishes or is refunded
type BlackjackSettledEvent struct {
	GuildID  int64
	GameID   string
	Players  []int64
	Winnings map[int64]int64
	Refunded bool
}

func (e BlackjackSettledEvent) Type() EventType {
	return EventTypeBlackjackSettled
}

// ThemeSortedEvent is emitted after a rank pass changed roles
type ThemeSortedEvent struct {
	GuildID int64
	ThemeID int64
	Changes int
}

func (e ThemeSortedEvent) Type() EventType {
	return EventTypeThemeSorted
}

// StoreRefreshedEvent is emitted after a scheduled store refresh
type StoreRefreshedEvent struct {
	GuildID int64
	Items   int
}

func (e StoreRefreshedEvent) Type() EventType {
	return EventTypeStoreRefreshed
}

// DynamicVoiceReshapedEvent is emitted after a shape pass created or deleted channels
type DynamicVoiceReshapedEvent struct {
	GuildID int64
	Created int
	Deleted int
}

func (e DynamicVoiceReshapedEvent) Type() EventType {
	return EventTypeDynamicVoiceReshaped
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Publish emits the event in the background and never fails
func (b *Bus) Publish(event Event) error {
	b.Emit(context.Background(), event)
	return nil
}

// Emit dispatches an event to all registered handlers asynchronously
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events until the owning unit of work commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a transactional bus flushing into real
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish queues an event until Flush
func (b *TransactionalBus) Publish(e Event) error {
	b.pending = append(b.pending, e)
	return nil
}

// Flush emits all queued events; called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Events outlive the transaction context
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	log.WithField("count", len(b.pending)).Debug("Flushed transactional events")
	b.pending = nil
	return nil
}

// Discard drops all queued events; called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
