package blackjack

import (
	"context"
	"fmt"
	"strconv"

	"helios/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleBet(s *discordgo.Session, i *discordgo.InteractionCreate, bet int64) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	channelID, err := strconv.ParseInt(i.ChannelID, 10, 64)
	if err != nil {
		common.HandleError(s, i, fmt.Errorf("failed to parse channel id: %w", err), false)
		return
	}

	table, created := f.tableFor(guildID, channelID)
	if table == nil {
		common.RespondWithError(s, i, "A hand is being played here, wait for it to finish.")
		return
	}
	if err := table.Join(ctx, userID, bet); err != nil {
		if created {
			f.mu.Lock()
			delete(f.tables, channelID)
			f.mu.Unlock()
		}
		common.HandleError(s, i, err, false)
		return
	}
	if created {
		go f.run(table, channelID)
	}

	log.WithFields(log.Fields{
		"guildID": guildID,
		"userID":  userID,
		"gameID":  table.Game().ID,
		"bet":     bet,
	}).Info("Joined blackjack table")
	common.RespondWithSuccess(s, i, fmt.Sprintf("You're in with %s.", common.FormatPoints(bet)), true)
}

func (f *Feature) handleAction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	action, gameID, ok := parseCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}
	_, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	channelID, _ := strconv.ParseInt(i.ChannelID, 10, 64)

	table, ok := f.table(channelID)
	if !ok || table.Game().ID.String() != gameID {
		common.RespondWithError(s, i, "This game is over.")
		return
	}

	common.AcknowledgeComponent(s, i)
	if err := table.Act(context.Background(), userID, action); err != nil {
		common.HandleError(s, i, err, true)
	}
}
