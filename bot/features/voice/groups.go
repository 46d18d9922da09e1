package voice

import (
	"context"
	"fmt"
	"strings"

	"helios/bot/common"
	"helios/domain/entities"

	"github.com/bwmarrin/discordgo"
)

const (
	defaultTemplate     = "Voice {n}"
	defaultGameTemplate = "{g} #{n}"
)

func (f *Feature) handleGroups(s *discordgo.Session, i *discordgo.InteractionCreate, sub string, opts common.Options) {
	ctx := context.Background()

	if !common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		common.RespondWithError(s, i, "Only administrators can manage voice groups.")
		return
	}

	c, err := f.resolve(ctx, i, false)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	voice := c.runtime.Voice

	switch sub {
	case "list":
		err = common.RespondWithEmbed(s, i, buildGroupsEmbed(voice.Groups(), voice.Channels()), nil, true)
	case "create":
		group := groupFromOptions(opts, nil)
		err = voice.CreateGroup(ctx, &group)
		if err == nil {
			common.RespondWithSuccess(s, i, fmt.Sprintf("Created group **%s**.", group.Name), true)
		}
	case "edit":
		base := findGroup(voice.Groups(), opts.Int("id", 0))
		if base == nil {
			err = common.NewUserError("No group has that id.", "unknown group")
			break
		}
		group := groupFromOptions(opts, base)
		err = voice.UpdateGroup(ctx, &group)
		if err == nil {
			common.RespondWithSuccess(s, i, fmt.Sprintf("Updated group **%s**.", group.Name), true)
		}
	case "delete":
		err = voice.DeleteGroup(ctx, opts.Int("id", 0))
		if err == nil {
			common.RespondWithSuccess(s, i, "Group deleted.", true)
		}
	case "reset":
		err = voice.Reset(ctx)
		if err == nil {
			common.RespondWithSuccess(s, i, "Dynamic voice was reset.", true)
		}
	}
	if err != nil {
		common.HandleError(s, i, err, false)
	}
}

// groupFromOptions builds a group from command options, falling back to
// base for anything not given
func groupFromOptions(opts common.Options, base *entities.DynamicVoiceGroup) entities.DynamicVoiceGroup {
	group := entities.DynamicVoiceGroup{
		Min:          1,
		MinEmpty:     1,
		Max:          10,
		Template:     defaultTemplate,
		GameTemplate: defaultGameTemplate,
	}
	if base != nil {
		group = *base
	}
	group.Name = strings.TrimSpace(opts.String("name", group.Name))
	group.Min = int(opts.Int("min", int64(group.Min)))
	group.MinEmpty = int(opts.Int("min_empty", int64(group.MinEmpty)))
	group.Max = int(opts.Int("max", int64(group.Max)))
	group.Template = opts.String("template", group.Template)
	group.GameTemplate = opts.String("game_template", group.GameTemplate)
	return group
}

func findGroup(groups []entities.DynamicVoiceGroup, id int64) *entities.DynamicVoiceGroup {
	for i := range groups {
		if groups[i].ID == id {
			return &groups[i]
		}
	}
	return nil
}

func buildGroupsEmbed(groups []entities.DynamicVoiceGroup, channels []entities.DynamicVoiceChannel) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🔊 Voice Groups",
		Color: common.ColorInfo,
	}
	if len(groups) == 0 {
		embed.Description = "No groups yet. Create one with `/groups create`."
		return embed
	}

	counts := make(map[int64]int, len(groups))
	for _, ch := range channels {
		counts[ch.GroupID]++
	}
	for _, g := range groups {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("#%d %s", g.ID, g.Name),
			Value: fmt.Sprintf("%d channels · min %d · min empty %d · max %d\n`%s` / `%s`",
				counts[g.ID], g.Min, g.MinEmpty, g.Max, g.Template, g.GameTemplate),
		})
	}
	return embed
}
