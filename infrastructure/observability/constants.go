package observability

// Metric name prefixes
const (
	MetricPrefix = "helios"
)

// Metric names
const (
	// Discord metrics
	MessagesReadTotal = MetricPrefix + ".messages.read_total"

	// Ledger metrics
	LedgerTransactionsTotal = MetricPrefix + ".ledger.transactions_total"

	// Effect metrics
	EffectsAppliedTotal = MetricPrefix + ".effects.applied_total"
	EffectsRemovedTotal = MetricPrefix + ".effects.removed_total"
	EffectsActive       = MetricPrefix + ".effects.active"

	// Dynamic voice metrics
	VoiceChannelsCreatedTotal = MetricPrefix + ".voice.channels_created_total"
	VoiceChannelsDeletedTotal = MetricPrefix + ".voice.channels_deleted_total"

	// Scheduler metrics
	SchedulerSlotsFiredTotal = MetricPrefix + ".scheduler.slots_fired_total"

	// Blackjack metrics
	BlackjackGamesTotal = MetricPrefix + ".blackjack.games_total"
)

// Label keys
const (
	LabelType    = "type"
	LabelKind    = "kind"
	LabelOutcome = "outcome"
)

// Message types for Discord
const (
	MessageTypeCommand     = "command"
	MessageTypeInteraction = "interaction"
	MessageTypeMessage     = "message"
)

// Blackjack outcomes
const (
	OutcomeSettled  = "settled"
	OutcomeRefunded = "refunded"
)
