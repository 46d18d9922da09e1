package shop

import (
	"context"
	"fmt"
	"time"

	"helios/application"
	"helios/bot/common"
	"helios/domain/entities"
	"helios/domain/services"
	"helios/domain/utils"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleShow(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, _, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	var store *entities.Store
	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		store, err = application.NewServices(uow, guildID, f.deps).Store.GetStore(ctx)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if err := common.RespondWithEmbed(s, i, buildStoreEmbed(store), nil, false); err != nil {
		log.Errorf("Error responding to store command: %v", err)
	}
}

func (f *Feature) handleBuy(s *discordgo.Session, i *discordgo.InteractionCreate, opts common.Options) {
	ctx := context.Background()
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	var result *services.PurchaseResult
	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		result, err = application.NewServices(uow, guildID, f.deps).Store.Purchase(ctx, userID, opts.String("item", ""), opts.Int("quantity", 1))
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	common.RespondWithSuccess(s, i, formatPurchase(result), true)
}

func (f *Feature) handleEffect(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	opts := common.NewOptions(i.ApplicationCommandData().Options)
	order, err := f.buildOrder(ctx, guildID, userID, opts)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	_, cost, err := f.effects.Buy(ctx, order)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	common.Respond(s, i, fmt.Sprintf("✨ %s put **%s** on %s for %s (%s)",
		common.GetUserMention(userID), order.Kind, describeTarget(order),
		utils.FormatDuration(order.Duration), common.FormatPoints(cost)), false)
}

func (f *Feature) handleUse(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	opts := common.NewOptions(i.ApplicationCommandData().Options)
	item := opts.String("item", "")
	target := opts.ID("user")
	if itemEffect, ok := services.ItemEffects[item]; ok && itemEffect.Kind == entities.EffectChannelShield {
		target, err = f.voiceChannel(ctx, guildID, userID)
		if err != nil {
			common.HandleError(s, i, err, false)
			return
		}
	}

	effect, err := f.effects.UseItem(ctx, guildID, userID, item, target)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	common.Respond(s, i, fmt.Sprintf("✨ %s used **%s** (%s for %s)",
		common.GetUserMention(userID), item, effect.Kind, utils.FormatDuration(effect.Duration)), false)
}

// buildOrder turns /effect options into an order. Protective effects default
// to the buyer; a channel shield lands on the buyer's voice channel.
func (f *Feature) buildOrder(ctx context.Context, guildID, userID int64, opts common.Options) (application.EffectOrder, error) {
	kind := entities.EffectKind(opts.String("kind", ""))
	duration, err := time.ParseDuration(opts.String("duration", ""))
	if err != nil {
		return application.EffectOrder{}, common.NewUserError("Durations look like `30s`, `5m` or `2h`.", err.Error())
	}

	order := application.EffectOrder{
		GuildID:    guildID,
		BuyerID:    userID,
		Kind:       kind,
		TargetType: entities.TargetMember,
		TargetID:   userID,
		Duration:   duration,
	}
	switch {
	case kind == entities.EffectChannelShield:
		channelID, err := f.voiceChannel(ctx, guildID, userID)
		if err != nil {
			return application.EffectOrder{}, err
		}
		order.TargetType = entities.TargetChannel
		order.TargetID = channelID
	case kind.Harmful():
		target := opts.ID("user")
		if target == 0 || target == userID {
			return application.EffectOrder{}, common.NewUserError("Pick someone other than yourself.", "harmful effect without target")
		}
		order.TargetID = target
	}
	return order, nil
}

func (f *Feature) voiceChannel(ctx context.Context, guildID, userID int64) (int64, error) {
	state, err := f.deps.Members.VoiceState(ctx, guildID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read voice state: %w", err)
	}
	if state == nil {
		return 0, common.NewUserError("Join a voice channel first.", "bubble without voice channel")
	}
	return state.ChannelID, nil
}

func describeTarget(order application.EffectOrder) string {
	if order.TargetType == entities.TargetChannel {
		return common.GetChannelMention(order.TargetID)
	}
	return common.GetUserMention(order.TargetID)
}

func buildStoreEmbed(store *entities.Store) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(store.Items))
	for _, item := range store.Items {
		stock := fmt.Sprintf("%d left", item.Quantity)
		if item.Quantity == 0 {
			stock = "sold out"
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("%s (`%s`)", item.DisplayName, item.Name),
			Value:  fmt.Sprintf("%s · %s", common.FormatPoints(item.Price), stock),
			Inline: true,
		})
	}
	embed := &discordgo.MessageEmbed{
		Title:  "🛒 Store",
		Color:  common.ColorPrimary,
		Fields: fields,
	}
	if !store.NextRefresh.IsZero() {
		embed.Description = "Restocks " + common.FormatDiscordTimestamp(store.NextRefresh, "R")
	}
	return embed
}

func formatPurchase(result *services.PurchaseResult) string {
	return fmt.Sprintf("Bought %d× %s for %s. You have %s left.",
		result.Quantity, result.Item.DisplayName,
		common.FormatPoints(result.TotalCost), common.FormatPoints(result.Points))
}
