package entities

import "time"

// Statistic names tracked by the bot
const (
	StatPoints          = "points"
	StatMessages        = "messages"
	StatLimitedMessages = "limited_messages"
	StatVoiceTime       = "voice_time"
	StatAloneTime       = "alone_time"
	StatAFKTime         = "afk_time"
	StatGameTime        = "game_time"
	StatBlackjackLosses = "blackjack_losses"
	StatBlackjackWins   = "blackjack_wins"
)

// Statistic is a named integer counter for a guild member
type Statistic struct {
	ID        int64
	GuildID   int64
	DiscordID int64
	Name      string
	Value     int64
}

// StatisticSnapshot is a recorded value of a statistic at a point in time
type StatisticSnapshot struct {
	StatisticID int64
	Value       int64
	RecordedAt  time.Time
}
