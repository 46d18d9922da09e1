package application

import (
	"context"

	"helios/domain/entities"
	"helios/domain/services"

	"github.com/google/uuid"
)

// BlackjackLedger moves blackjack stakes through the economy ledger. Each
// operation commits on its own so a crashed game leaves every completed
// bet and payout on record.
type BlackjackLedger struct {
	uowFactory UnitOfWorkFactory
	guildID    int64
}

// NewBlackjackLedger creates a ledger for one guild
func NewBlackjackLedger(uowFactory UnitOfWorkFactory, guildID int64) *BlackjackLedger {
	return &BlackjackLedger{uowFactory: uowFactory, guildID: guildID}
}

// Balance returns the member's spendable points
func (l *BlackjackLedger) Balance(ctx context.Context, memberID int64) (int64, error) {
	var points int64
	err := WithUnitOfWork(ctx, l.uowFactory, l.guildID, func(uow UnitOfWork) error {
		member, err := l.economy(uow).GetOrCreateMember(ctx, memberID)
		if err != nil {
			return err
		}
		points = member.Points
		return nil
	})
	return points, err
}

// Bet debits a stake
func (l *BlackjackLedger) Bet(ctx context.Context, gameID uuid.UUID, memberID, amount int64) error {
	return WithUnitOfWork(ctx, l.uowFactory, l.guildID, func(uow UnitOfWork) error {
		_, err := l.economy(uow).Debit(ctx, services.PointsChange{
			DiscordID: memberID,
			Amount:    amount,
			Type:      entities.TransactionTypeBlackjackBet,
			Reason:    "Blackjack bet",
			GameID:    &gameID,
		})
		return err
	})
}

// Payout credits winnings
func (l *BlackjackLedger) Payout(ctx context.Context, gameID uuid.UUID, memberID, amount int64) error {
	return l.credit(ctx, gameID, memberID, amount, entities.TransactionTypeBlackjackPayout, "Blackjack payout")
}

// Refund returns a stake
func (l *BlackjackLedger) Refund(ctx context.Context, gameID uuid.UUID, memberID, amount int64) error {
	return l.credit(ctx, gameID, memberID, amount, entities.TransactionTypeBlackjackRefund, "Blackjack refund")
}

func (l *BlackjackLedger) credit(
	ctx context.Context,
	gameID uuid.UUID,
	memberID, amount int64,
	txType entities.TransactionType,
	reason string,
) error {
	return WithUnitOfWork(ctx, l.uowFactory, l.guildID, func(uow UnitOfWork) error {
		_, err := l.economy(uow).Credit(ctx, services.PointsChange{
			DiscordID: memberID,
			Amount:    amount,
			Type:      txType,
			Reason:    reason,
			GameID:    &gameID,
		})
		return err
	})
}

func (l *BlackjackLedger) economy(uow UnitOfWork) *services.EconomyService {
	return services.NewEconomyService(uow.MemberRepository(), uow.TransactionRepository(), uow.EventBus())
}
