package inventory

import (
	"context"
	"fmt"
	"strings"

	"helios/application"
	"helios/bot/common"
	"helios/domain/entities"
	"helios/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleInventory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	var inv *entities.Inventory
	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		inv, err = application.NewServices(uow, guildID, f.deps).Inventory.GetInventory(ctx, userID)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if err := common.RespondWithEmbed(s, i, buildInventoryEmbed(inv), nil, true); err != nil {
		log.Errorf("Error responding to inventory command: %v", err)
	}
}

func (f *Feature) handleLootCrate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	var result *services.CrateResult
	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		result, err = application.NewServices(uow, guildID, f.deps).Inventory.OpenLootCrate(ctx, userID)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	common.Respond(s, i, formatCrateResult(result), false)
}

func itemLabel(item entities.Item) string {
	if item.DisplayName != "" {
		return item.DisplayName
	}
	return item.Name
}

func buildInventoryEmbed(inv *entities.Inventory) *discordgo.MessageEmbed {
	var sb strings.Builder
	for _, item := range inv.Items {
		fmt.Fprintf(&sb, "**%s** × %d\n", itemLabel(*item), item.Quantity)
	}
	description := sb.String()
	if description == "" {
		description = "Your inventory is empty."
	}
	return &discordgo.MessageEmbed{
		Title:       "🎒 Inventory",
		Description: description,
		Color:       common.ColorPrimary,
	}
}

func formatCrateResult(result *services.CrateResult) string {
	var parts []string
	for _, item := range result.Items {
		if item.Name == entities.ItemGambleCredit {
			continue
		}
		parts = append(parts, fmt.Sprintf("**%s** × %d", itemLabel(item), item.Quantity))
	}
	if result.Credited > 0 {
		parts = append(parts, common.FormatPoints(result.Credited))
	}
	if len(parts) == 0 {
		return "📦 The crate was empty."
	}
	return "📦 You opened a loot crate and found " + strings.Join(parts, ", ")
}
