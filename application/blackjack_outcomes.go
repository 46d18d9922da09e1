package application

import (
	"context"
	"fmt"

	"helios/domain/entities"
	"helios/domain/services"
	"helios/events"

	log "github.com/sirupsen/logrus"
)

// BlackjackOutcomeHandler keeps each player's win count and losing streak
// after a game settles
type BlackjackOutcomeHandler struct {
	uowFactory UnitOfWorkFactory
}

// NewBlackjackOutcomeHandler creates a new outcome handler
func NewBlackjackOutcomeHandler(uowFactory UnitOfWorkFactory) *BlackjackOutcomeHandler {
	return &BlackjackOutcomeHandler{uowFactory: uowFactory}
}

// HandleSettled records wins and losses. Refunded games and pushes change
// nothing.
func (h *BlackjackOutcomeHandler) HandleSettled(ctx context.Context, event events.Event) error {
	settled, ok := event.(events.BlackjackSettledEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if settled.Refunded {
		return nil
	}

	return WithUnitOfWork(ctx, h.uowFactory, settled.GuildID, func(uow UnitOfWork) error {
		stats := services.NewStatisticsService(uow.StatisticRepository(), nil)
		for _, playerID := range settled.Players {
			net := settled.Winnings[playerID]
			switch {
			case net < 0:
				if _, err := stats.Increment(ctx, playerID, entities.StatBlackjackLosses, 1); err != nil {
					return err
				}
			case net > 0:
				if err := stats.Set(ctx, playerID, entities.StatBlackjackLosses, 0); err != nil {
					return err
				}
				if _, err := stats.Increment(ctx, playerID, entities.StatBlackjackWins, 1); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// RegisterApplicationSubscriptions registers all application-level event subscriptions
func RegisterApplicationSubscriptions(subscriber EventSubscriber, uowFactory UnitOfWorkFactory) {
	outcomes := NewBlackjackOutcomeHandler(uowFactory)
	subscriber.Subscribe(events.EventTypeBlackjackSettled, func(ctx context.Context, event events.Event) {
		if err := outcomes.HandleSettled(ctx, event); err != nil {
			log.Errorf("Error recording blackjack outcome: %v", err)
		}
	})
}
