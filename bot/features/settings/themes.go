package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"helios/application"
	"helios/bot/common"
	"helios/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleTheme(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	sub, opts := common.Subcommand(i)

	if sub != "list" && !common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		common.RespondWithError(s, i, "You need administrator permissions to use this command")
		return
	}

	switch sub {
	case "list":
		var themes []*entities.Theme
		err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
			themes, err = uow.ThemeRepository().GetAll(ctx)
			return err
		})
		if err == nil {
			err = common.RespondWithEmbed(s, i, buildThemesEmbed(themes), nil, true)
		}

	case "create":
		var ranks []entities.ThemeRank
		ranks, err = parseRanks(opts.String("ranks", ""))
		if err != nil {
			break
		}
		var theme *entities.Theme
		err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
			svc := application.NewServices(uow, guildID, f.deps)
			theme, err = svc.Themes.CreateTheme(ctx, userID, opts.String("name", ""), opts.String("statistic", entities.StatPoints), ranks)
			return err
		})
		if err == nil {
			log.WithFields(log.Fields{"guildID": guildID, "themeID": theme.ID}).Info("Theme created")
			common.RespondWithSuccess(s, i, fmt.Sprintf("Created theme **%s** (#%d) with %d ranks.", theme.Name, theme.ID, len(theme.Ranks)), true)
		}

	case "activate":
		themeID := opts.Int("id", 0)
		err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
			return application.NewServices(uow, guildID, f.deps).Themes.Activate(ctx, themeID)
		})
		if err == nil {
			common.RespondWithSuccess(s, i, fmt.Sprintf("Theme #%d is now active. Ranks update on the next sort.", themeID), true)
		}
	}
	if err != nil {
		common.HandleError(s, i, err, false)
	}
}

// parseRanks reads ranks written as name:role:maximum separated by commas,
// lowest rank first. The final rank takes everyone else and may omit its
// maximum. Roles may be given as ids or mentions.
func parseRanks(raw string) ([]entities.ThemeRank, error) {
	invalid := func(entry string) error {
		return common.NewUserError(
			fmt.Sprintf("Could not read rank `%s`. Write ranks as `name:@role:max`, separated by commas.", entry),
			"bad theme rank")
	}

	var ranks []entities.ThemeRank
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, invalid(entry)
		}

		role := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(parts[1]), "<@&"), ">")
		roleID, err := strconv.ParseInt(role, 10, 64)
		if err != nil {
			return nil, invalid(entry)
		}
		rank := entities.ThemeRank{Name: strings.TrimSpace(parts[0]), RoleID: roleID}
		if len(parts) == 3 {
			rank.Maximum, err = strconv.Atoi(strings.TrimSpace(parts[2]))
			if err != nil {
				return nil, invalid(entry)
			}
		}
		ranks = append(ranks, rank)
	}
	if len(ranks) == 0 {
		return nil, common.NewUserError("A theme needs at least one rank.", "empty theme")
	}
	return ranks, nil
}

func buildThemesEmbed(themes []*entities.Theme) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🎨 Themes",
		Color: common.ColorInfo,
	}
	if len(themes) == 0 {
		embed.Description = "No themes yet."
		return embed
	}
	for _, t := range themes {
		name := fmt.Sprintf("#%d %s", t.ID, t.Name)
		if t.Current {
			name += " (active)"
		}
		ranks := make([]string, len(t.Ranks))
		for k, r := range t.Ranks {
			ranks[k] = fmt.Sprintf("<@&%d>", r.RoleID)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  name,
			Value: fmt.Sprintf("by %s\n", t.ScoreStatistic) + strings.Join(ranks, " → "),
		})
	}
	return embed
}
