package entities

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is a single ledger entry against a member's points
type Transaction struct {
	ID              int64
	GuildID         int64
	DiscordID       int64
	Amount          int64
	BalanceBefore   int64
	BalanceAfter    int64
	TransactionType TransactionType
	Reason          string
	GameID          *uuid.UUID
	Metadata        map[string]any
	CreatedAt       time.Time
}
