package admin

import (
	"context"
	"fmt"

	"helios/application"
	"helios/bot/common"
	"helios/domain/entities"
	"helios/domain/services"
)

func (f *Feature) run(ctx context.Context, svc *application.Services, uow application.UnitOfWork, sub string, opts common.Options) (string, error) {
	target := opts.ID("user")

	switch sub {
	case "points":
		amount := opts.Int("amount", 0)
		if amount == 0 {
			return "", entities.ErrInvalidAmount
		}
		member, err := svc.Economy.AddPoints(ctx, services.PointsChange{
			DiscordID: target,
			Amount:    amount,
			Type:      entities.TransactionTypeAdmin,
			Reason:    opts.String("reason", "admin adjustment"),
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s now has %s.", common.GetUserMention(target), common.FormatPoints(member.Points)), nil

	case "violation":
		violation, err := svc.Violations.New(ctx, target, nil, entities.ViolationKindGeneric,
			opts.Int("cost", 0), opts.String("description", "rule violation"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Violation #%d issued to %s for %s.",
			violation.ID, common.GetUserMention(target), common.FormatPoints(violation.Cost)), nil

	case "flag":
		member, err := svc.Economy.LockMember(ctx, target)
		if err != nil {
			return "", err
		}
		on := !member.HasFlag(entities.FlagAdmin)
		member.SetFlag(entities.FlagAdmin, on)
		if err := uow.MemberRepository().Update(ctx, member); err != nil {
			return "", fmt.Errorf("failed to update member: %w", err)
		}
		return formatFlag(target, on), nil

	case "restock":
		store, err := svc.Store.Refresh(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("The store was restocked with %d items.", len(store.Items)), nil
	}
	return "", fmt.Errorf("unknown admin action %q: %w", sub, entities.ErrInvalidState)
}

func formatFlag(target int64, on bool) string {
	if on {
		return fmt.Sprintf("%s is now a bot admin.", common.GetUserMention(target))
	}
	return fmt.Sprintf("%s is no longer a bot admin.", common.GetUserMention(target))
}
