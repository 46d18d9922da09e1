package settings

import (
	"context"
	"fmt"

	"helios/application"
	"helios/bot/common"
	"helios/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleSettings handles the /settings subcommands
func (f *Feature) handleSettings(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		common.RespondWithError(s, i, "You need administrator permissions to use this command")
		return
	}

	ctx := context.Background()
	guildID, _, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	sub, opts := common.Subcommand(i)
	channelID := opts.ID("channel")

	var settings *entities.GuildSettings
	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		repo := uow.GuildSettingsRepository()
		settings, err = repo.GetOrCreate(ctx)
		if err != nil {
			return fmt.Errorf("failed to get guild settings: %w", err)
		}
		if sub == "show" {
			return nil
		}
		applySetting(settings, sub, channelID)
		return repo.Update(ctx, settings)
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if sub == "show" {
		if err := common.RespondWithEmbed(s, i, buildSettingsEmbed(settings), nil, true); err != nil {
			log.Errorf("Failed to send settings: %v", err)
		}
		return
	}

	if sub == "voice-category" {
		if _, err := f.registry.Reload(ctx, guildID, channelID); err != nil {
			common.HandleError(s, i, fmt.Errorf("failed to restart dynamic voice: %w", err), false)
			return
		}
	}

	log.WithFields(log.Fields{
		"guildID": guildID,
		"setting": sub,
		"value":   channelID,
	}).Info("Guild setting updated")

	if channelID == 0 {
		common.RespondWithSuccess(s, i, fmt.Sprintf("Cleared **%s**.", sub), true)
		return
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("**%s** set to %s.", sub, common.GetChannelMention(channelID)), true)
}

// applySetting stores channelID under the setting a subcommand names; zero clears it
func applySetting(settings *entities.GuildSettings, sub string, channelID int64) {
	var value *int64
	if channelID != 0 {
		value = &channelID
	}
	switch sub {
	case "announcement":
		settings.AnnouncementChannelID = value
	case "court":
		settings.CourtChannelID = value
	case "afk":
		settings.AFKChannelID = value
	case "voice-category":
		settings.SetID(entities.SettingDynamicVoiceCategory, channelID)
	case "music":
		settings.SetID(entities.SettingMusicChannel, channelID)
	}
}

func buildSettingsEmbed(settings *entities.GuildSettings) *discordgo.MessageEmbed {
	channel := func(id *int64) string {
		if id == nil {
			return "not set"
		}
		return common.GetChannelMention(*id)
	}
	idSetting := func(key string) string {
		if id := settings.ID(key); id != 0 {
			return common.GetChannelMention(id)
		}
		return "not set"
	}

	return &discordgo.MessageEmbed{
		Title: "⚙️ Server Settings",
		Color: common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Announcements", Value: channel(settings.AnnouncementChannelID), Inline: true},
			{Name: "Court", Value: channel(settings.CourtChannelID), Inline: true},
			{Name: "AFK", Value: channel(settings.AFKChannelID), Inline: true},
			{Name: "Dynamic voice category", Value: idSetting(entities.SettingDynamicVoiceCategory), Inline: true},
			{Name: "Music", Value: idSetting(entities.SettingMusicChannel), Inline: true},
		},
	}
}
