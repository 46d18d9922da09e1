package entities

import (
	"time"

	"github.com/google/uuid"
)

// BlackjackGameState is the lifecycle stage of a recorded game
type BlackjackGameState string

const (
	BlackjackStateOpen     BlackjackGameState = "open"
	BlackjackStatePlaying  BlackjackGameState = "playing"
	BlackjackStateSettled  BlackjackGameState = "settled"
	BlackjackStateAborted  BlackjackGameState = "aborted"
	BlackjackStateRefunded BlackjackGameState = "refunded"
)

// BlackjackRecord is the persisted accounting summary of a game
type BlackjackRecord struct {
	ID          uuid.UUID
	GuildID     int64
	ChannelID   int64
	Players     []int64
	Bets        map[int64]int64
	Winnings    map[int64]int64
	DealerTotal int
	State       BlackjackGameState
	StartedAt   time.Time
	FinishedAt  *time.Time
}
