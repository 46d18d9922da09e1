package economy

import (
	"context"
	"fmt"
	"time"

	"helios/application"
	"helios/bot/common"
	"helios/config"
	"helios/domain/entities"
	"helios/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// statsWindow is how far back /stats compares current values
const statsWindow = 7 * 24 * time.Hour

// trackedStats are shown by /stats in this order
var trackedStats = []string{
	entities.StatMessages,
	entities.StatLimitedMessages,
	entities.StatVoiceTime,
	entities.StatAloneTime,
	entities.StatAFKTime,
	entities.StatGameTime,
	entities.StatBlackjackWins,
	entities.StatBlackjackLosses,
}

func (f *Feature) handlePoints(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	targetID := userID
	if id := common.NewOptions(i.ApplicationCommandData().Options).ID("user"); id != 0 {
		targetID = id
	}

	var member *entities.Member
	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		svc := application.NewServices(uow, guildID, f.deps)
		member, err = svc.Economy.GetOrCreateMember(ctx, targetID)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if targetID == userID {
		common.Respond(s, i, fmt.Sprintf("You have %s", common.FormatPoints(member.Points)), true)
		return
	}
	common.Respond(s, i, fmt.Sprintf("%s has %s", common.GetUserMention(targetID), common.FormatPoints(member.Points)), true)
}

func (f *Feature) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, _, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	statistic := common.NewOptions(i.ApplicationCommandData().Options).String("statistic", entities.StatPoints)

	var rows []*entities.Statistic
	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		if statistic == entities.StatPoints {
			members, err := uow.MemberRepository().GetTopByPoints(ctx, common.MaxLeaderboardRows)
			if err != nil {
				return fmt.Errorf("failed to get richest members: %w", err)
			}
			for _, m := range members {
				rows = append(rows, &entities.Statistic{DiscordID: m.DiscordID, Name: statistic, Value: m.Points})
			}
			return nil
		}
		svc := application.NewServices(uow, guildID, f.deps)
		rows, err = svc.Statistics.Leaderboard(ctx, statistic)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if err := common.RespondWithEmbed(s, i, buildLeaderboardEmbed(statistic, rows), nil, false); err != nil {
		log.Errorf("Error responding to leaderboard command: %v", err)
	}
}

func (f *Feature) handleDaily(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	var claimed bool
	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		svc := application.NewServices(uow, guildID, f.deps)
		claimed, err = svc.Economy.ClaimDaily(ctx, userID)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if !claimed {
		tomorrow := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
		common.Respond(s, i, fmt.Sprintf("You already claimed today's points. Come back %s.",
			common.FormatDiscordTimestamp(tomorrow, "R")), true)
		return
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("You claimed %s", common.FormatPoints(config.Get().DailyPoints)), true)
}

func (f *Feature) handleTransfer(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	opts := common.NewOptions(i.ApplicationCommandData().Options)
	recipientID := opts.ID("user")
	amount := opts.Int("amount", 0)
	if recipientID == 0 || recipientID == userID {
		common.RespondWithError(s, i, "Pick someone other than yourself.")
		return
	}

	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		svc := application.NewServices(uow, guildID, f.deps)
		return svc.Economy.Transfer(ctx, userID, recipientID, amount,
			fmt.Sprintf("transfer to %d", recipientID),
			fmt.Sprintf("transfer from %d", userID))
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	common.Respond(s, i, common.FormatTransferResult(amount, recipientID), false)
}

func (f *Feature) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	targetID := userID
	if id := common.NewOptions(i.ApplicationCommandData().Options).ID("user"); id != 0 {
		targetID = id
	}

	since := time.Now().Add(-statsWindow)
	lines := make([]statLine, 0, len(trackedStats))
	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		svc := application.NewServices(uow, guildID, f.deps)
		return collectStats(ctx, svc.Statistics, targetID, since, &lines)
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if err := common.RespondWithEmbed(s, i, buildStatsEmbed(targetID, lines), nil, true); err != nil {
		log.Errorf("Error responding to stats command: %v", err)
	}
}

func collectStats(ctx context.Context, stats *services.StatisticsService, discordID int64, since time.Time, lines *[]statLine) error {
	for _, name := range trackedStats {
		value, err := stats.Get(ctx, discordID, name)
		if err != nil {
			return err
		}
		change, err := stats.ChangeSince(ctx, discordID, name, since)
		if err != nil {
			return err
		}
		*lines = append(*lines, statLine{Name: name, Value: value, Change: change})
	}
	return nil
}
