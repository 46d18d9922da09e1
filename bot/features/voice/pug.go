package voice

import (
	"context"
	"fmt"

	"helios/bot/common"
	"helios/domain/entities"

	"github.com/bwmarrin/discordgo"
)

func (f *Feature) handlePUG(s *discordgo.Session, i *discordgo.InteractionCreate, sub string, opts common.Options) {
	ctx := context.Background()

	c, err := f.resolve(ctx, i, true)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	voice := c.runtime.Voice

	switch sub {
	case "create":
		var pug *entities.PUG
		pug, err = voice.ConvertToPUG(ctx, c.channelID, c.userID)
		if err == nil {
			common.Respond(s, i, formatPUGCreated(pug), true)
			return
		}
	case "add":
		target := opts.ID("user")
		err = f.requireOwner(c)
		if err == nil {
			err = voice.AddToPUG(ctx, c.channelID, target, opts.Bool("temporary", false))
		}
		if err == nil {
			common.RespondWithSuccess(s, i, fmt.Sprintf("%s joined the group.", common.GetUserMention(target)), true)
		}
	case "remove":
		target := opts.ID("user")
		err = f.requireOwner(c)
		if err == nil {
			err = voice.RemoveFromPUG(ctx, c.channelID, target)
		}
		if err == nil {
			common.RespondWithSuccess(s, i, fmt.Sprintf("%s left the group.", common.GetUserMention(target)), true)
		}
	case "disband":
		err = voice.DisbandPUG(ctx, c.channelID, c.userID)
		if err == nil {
			common.RespondWithSuccess(s, i, "The group is disbanded.", true)
		}
	}
	if err != nil {
		common.HandleError(s, i, err, false)
	}
}

// requireOwner checks that the caller owns the channel they are in
func (f *Feature) requireOwner(c *caller) error {
	ch, ok := c.runtime.Voice.Channel(c.channelID)
	if !ok || ch.OwnerID == nil || *ch.OwnerID != c.userID {
		return common.NewUserError("Only the channel owner can change the group.", "pug change by non-owner")
	}
	return nil
}

func formatPUGCreated(pug *entities.PUG) string {
	return fmt.Sprintf("✅ %s is now a pick-up group with %d members.\nInvite guests with https://discord.gg/%s",
		common.GetChannelMention(pug.ChannelID), len(pug.Roster()), pug.InviteCode)
}
