package application

import (
	"context"
	"fmt"
	"time"

	"helios/domain/entities"
	"helios/domain/services"

	log "github.com/sirupsen/logrus"
)

// EffectApplier starts effects
type EffectApplier interface {
	Add(ctx context.Context, effect *entities.Effect) (*entities.Effect, error)
}

// EffectOrder is a request to put an effect on a target
type EffectOrder struct {
	GuildID    int64
	BuyerID    int64
	Kind       entities.EffectKind
	TargetType entities.EffectTargetType
	TargetID   int64
	Duration   time.Duration
}

func (o EffectOrder) effect(cost int64, reason string) *entities.Effect {
	source := o.BuyerID
	return &entities.Effect{
		GuildID:    o.GuildID,
		Kind:       o.Kind,
		TargetType: o.TargetType,
		TargetID:   o.TargetID,
		SourceID:   &source,
		Duration:   o.Duration,
		Extras: entities.EffectExtras{
			Cost:   cost,
			Reason: reason,
		},
	}
}

// EffectShop sells effects for points and redeems effect items
type EffectShop struct {
	uowFactory UnitOfWorkFactory
	applier    EffectApplier
	deps       ServiceDeps
}

// NewEffectShop creates an effect shop
func NewEffectShop(uowFactory UnitOfWorkFactory, applier EffectApplier, deps ServiceDeps) *EffectShop {
	return &EffectShop{
		uowFactory: uowFactory,
		applier:    applier,
		deps:       deps,
	}
}

// Buy charges the buyer and starts the effect. When the effect is refused,
// for instance by a shield, the charge is rolled back.
func (s *EffectShop) Buy(ctx context.Context, order EffectOrder) (*entities.Effect, int64, error) {
	cost, err := services.EffectPrice(order.Kind, order.Duration)
	if err != nil {
		return nil, 0, err
	}

	var applied *entities.Effect
	err = WithUnitOfWork(ctx, s.uowFactory, order.GuildID, func(uow UnitOfWork) error {
		svc := NewServices(uow, order.GuildID, s.deps)
		if _, err := svc.Economy.Debit(ctx, services.PointsChange{
			DiscordID: order.BuyerID,
			Amount:    cost,
			Type:      entities.TransactionTypeEffectPurchase,
			Reason:    fmt.Sprintf("%s for %s", order.Kind, order.Duration),
		}); err != nil {
			return err
		}
		applied, err = s.applier.Add(ctx, order.effect(cost, "purchase"))
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	log.WithFields(log.Fields{
		"guildID": order.GuildID,
		"buyerID": order.BuyerID,
		"kind":    order.Kind,
		"target":  order.TargetID,
		"cost":    cost,
	}).Info("Effect purchased")
	return applied, cost, nil
}

// UseItem consumes one item and starts the effect it carries. Protective
// items land on the user or, for a bubble, on targetID as a channel.
func (s *EffectShop) UseItem(ctx context.Context, guildID, userID int64, item string, targetID int64) (*entities.Effect, error) {
	itemEffect, ok := services.ItemEffects[item]
	if !ok {
		return nil, fmt.Errorf("item %q cannot be used: %w", item, entities.ErrInvalidState)
	}

	order := EffectOrder{
		GuildID:    guildID,
		BuyerID:    userID,
		Kind:       itemEffect.Kind,
		TargetType: entities.TargetMember,
		TargetID:   userID,
		Duration:   itemEffect.Duration,
	}
	switch {
	case itemEffect.Kind == entities.EffectChannelShield:
		if targetID == 0 {
			return nil, fmt.Errorf("a bubble needs a voice channel: %w", entities.ErrInvalidState)
		}
		order.TargetType = entities.TargetChannel
		order.TargetID = targetID
	case itemEffect.Kind.Harmful():
		if targetID == 0 || targetID == userID {
			return nil, fmt.Errorf("%s needs another member as target: %w", item, entities.ErrInvalidState)
		}
		order.TargetID = targetID
	}

	var applied *entities.Effect
	err := WithUnitOfWork(ctx, s.uowFactory, guildID, func(uow UnitOfWork) error {
		svc := NewServices(uow, guildID, s.deps)
		if err := svc.Inventory.Consume(ctx, userID, item, 1); err != nil {
			return err
		}
		var err error
		applied, err = s.applier.Add(ctx, order.effect(0, "item:"+item))
		return err
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}
