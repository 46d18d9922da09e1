package infrastructure

import (
	"fmt"

	"helios/events"
)

var eventSubjects = map[events.EventType]string{
	events.EventTypePointsChange:         "members.points_changed",
	events.EventTypeMemberCreated:        "members.created",
	events.EventTypeViolationStateChange: "violations.state_changed",
	events.EventTypeEffectApplied:        "effects.applied",
	events.EventTypeEffectRemoved:        "effects.removed",
	events.EventTypeBlackjackSettled:     "blackjack.settled",
	events.EventTypeThemeSorted:          "themes.sorted",
	events.EventTypeStoreRefreshed:       "store.refreshed",
	events.EventTypeDynamicVoiceReshaped: "voice.dynamic.reshaped",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct {
	prefix string
}

// NewEventSubjectMapper creates a mapper; every subject is placed under prefix
func NewEventSubjectMapper(prefix string) *EventSubjectMapper {
	return &EventSubjectMapper{prefix: prefix}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	subject, ok := eventSubjects[event.Type()]
	if !ok {
		subject = fmt.Sprintf("unknown.%s", event.Type())
	}
	return m.prefix + "." + subject
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range eventSubjects {
		if m.prefix+"."+s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns the wildcard covering every published subject
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{m.prefix + ".>"}
}
