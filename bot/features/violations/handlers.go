package violations

import (
	"context"
	"fmt"
	"strings"

	"helios/application"
	"helios/bot/common"
	"helios/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

var stateIcons = map[entities.ViolationState]string{
	entities.ViolationNew:     "🟡",
	entities.ViolationDue:     "🟠",
	entities.ViolationIllegal: "🔴",
	entities.ViolationPaid:    "🟢",
}

func (f *Feature) handleList(s *discordgo.Session, i *discordgo.InteractionCreate, opts common.Options) {
	ctx := context.Background()
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	targetID := userID
	if id := opts.ID("user"); id != 0 {
		targetID = id
	}

	var list []*entities.Violation
	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		list, err = application.NewServices(uow, guildID, f.deps).Violations.GetByUser(ctx, targetID)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if err := common.RespondWithEmbed(s, i, buildViolationsEmbed(targetID, list), nil, true); err != nil {
		log.Errorf("Error responding to violations command: %v", err)
	}
}

func (f *Feature) handlePay(s *discordgo.Session, i *discordgo.InteractionCreate, opts common.Options) {
	ctx := context.Background()
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	var paid *entities.Violation
	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		paid, err = application.NewServices(uow, guildID, f.deps).Violations.Pay(ctx, opts.Int("id", 0), userID)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("Violation #%d is paid (%s).", paid.ID, common.FormatPoints(paid.Cost)), false)
}

func buildViolationsEmbed(userID int64, list []*entities.Violation) *discordgo.MessageEmbed {
	var sb strings.Builder
	var owed int64
	for _, v := range list {
		fmt.Fprintf(&sb, "%s `#%d` %s · %s · due %s\n",
			stateIcons[v.State], v.ID, v.Description, common.FormatPoints(v.Cost),
			common.FormatDiscordTimestamp(v.DueDate, "d"))
		if !v.Settled() {
			owed += v.Cost
		}
	}

	description := sb.String()
	if description == "" {
		description = "A clean record."
	}
	embed := &discordgo.MessageEmbed{
		Title:       "⚖️ Violations",
		Description: common.GetUserMention(userID) + "\n" + description,
		Color:       common.ColorSuccess,
	}
	if owed > 0 {
		embed.Color = common.ColorDanger
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Outstanding: %d points", owed)}
	}
	return embed
}
