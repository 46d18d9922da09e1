package voice

import (
	"context"
	"fmt"
	"strings"

	"helios/application"
	"helios/bot/common"
	"helios/bot/guilds"
	"helios/domain/entities"
	"helios/domain/interfaces"

	"github.com/bwmarrin/discordgo"
)

// caller is the member invoking a voice command and the channel they sit in
type caller struct {
	guildID   int64
	userID    int64
	channelID int64
	runtime   *guilds.Runtime
}

// resolve finds the invoking member's runtime and, when inVoice is set,
// their current voice channel
func (f *Feature) resolve(ctx context.Context, i *discordgo.InteractionCreate, inVoice bool) (*caller, error) {
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		return nil, err
	}
	rt, ok := f.registry.Get(guildID)
	if !ok {
		return nil, common.NewUserError("Voice channels are still starting up, try again in a moment.", "guild runtime missing")
	}
	c := &caller{guildID: guildID, userID: userID, runtime: rt}
	if !inVoice {
		return c, nil
	}

	state, err := f.platform.VoiceState(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read voice state: %w", err)
	}
	if state == nil {
		return nil, common.NewUserError("Join a voice channel first.", "voice command outside voice")
	}
	if !rt.Voice.IsManaged(state.ChannelID) {
		return nil, common.NewUserError("That only works in a dynamic voice channel.", "voice command in unmanaged channel")
	}
	c.channelID = state.ChannelID
	return c, nil
}

func (f *Feature) handleVoice(s *discordgo.Session, i *discordgo.InteractionCreate, sub string, opts common.Options) {
	ctx := context.Background()

	switch sub {
	case "templates":
		f.listTemplates(ctx, s, i)
		return
	case "forget", "allow", "deny":
		f.editTemplate(ctx, s, i, sub, opts)
		return
	}

	c, err := f.resolve(ctx, i, true)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	switch sub {
	case "lock":
		err = c.runtime.Voice.Lock(ctx, c.channelID, c.userID)
		if err == nil {
			common.RespondWithSuccess(s, i, fmt.Sprintf("%s is yours now.", common.GetChannelMention(c.channelID)), true)
		}
	case "unlock":
		err = c.runtime.Voice.Unlock(ctx, c.channelID, c.userID)
		if err == nil {
			common.RespondWithSuccess(s, i, fmt.Sprintf("%s is back in the pool.", common.GetChannelMention(c.channelID)), true)
		}
	case "save":
		err = f.saveTemplate(ctx, c, opts)
		if err == nil {
			common.RespondWithSuccess(s, i, fmt.Sprintf("Saved template **%s**.", opts.String("name", "")), true)
		}
	case "apply":
		err = f.applyTemplate(ctx, c, opts.String("name", ""))
		if err == nil {
			common.RespondWithSuccess(s, i, fmt.Sprintf("Applied template **%s**.", opts.String("name", "")), true)
		}
	}
	if err != nil {
		common.HandleError(s, i, err, false)
	}
}

// saveTemplate records the caller's channel as a template: everyone in it
// is allowed
func (f *Feature) saveTemplate(ctx context.Context, c *caller, opts common.Options) error {
	occupants, err := f.platform.ChannelOccupants(ctx, c.guildID, c.channelID)
	if err != nil {
		return fmt.Errorf("failed to read channel occupants: %w", err)
	}
	template := templateFromOccupants(opts.String("name", ""), opts.Bool("private", false), c.userID, occupants)
	if template.Name == "" {
		return common.NewUserError("Templates need a name.", "empty template name")
	}

	return application.WithUnitOfWork(ctx, f.uowFactory, c.guildID, func(uow application.UnitOfWork) error {
		member, err := uow.MemberRepository().GetByDiscordIDForUpdate(ctx, c.userID)
		if err != nil {
			return fmt.Errorf("failed to get member: %w", err)
		}
		if member == nil {
			member, err = uow.MemberRepository().Create(ctx, c.userID, 0)
			if err != nil {
				return fmt.Errorf("failed to create member: %w", err)
			}
		}
		member.SaveTemplate(template)
		return uow.MemberRepository().Update(ctx, member)
	})
}

func (f *Feature) applyTemplate(ctx context.Context, c *caller, name string) error {
	var template *entities.VoiceTemplate
	err := application.WithUnitOfWork(ctx, f.uowFactory, c.guildID, func(uow application.UnitOfWork) error {
		member, err := uow.MemberRepository().GetByDiscordID(ctx, c.userID)
		if err != nil {
			return fmt.Errorf("failed to get member: %w", err)
		}
		if member != nil {
			template = member.Template(name)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if template == nil {
		return common.NewUserError(fmt.Sprintf("You have no template called **%s**.", name), "unknown template")
	}
	return c.runtime.Voice.ApplyTemplate(ctx, c.channelID, c.userID, *template)
}

func (f *Feature) editTemplate(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, sub string, opts common.Options) {
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	name := opts.String("name", "")
	target := opts.ID("user")

	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		member, err := uow.MemberRepository().GetByDiscordIDForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get member: %w", err)
		}
		if member == nil || member.Template(name) == nil {
			return common.NewUserError(fmt.Sprintf("You have no template called **%s**.", name), "unknown template")
		}
		switch sub {
		case "forget":
			member.DeleteTemplate(name)
		case "allow":
			member.Template(name).Allow(target)
		case "deny":
			member.Template(name).Deny(target)
		}
		return uow.MemberRepository().Update(ctx, member)
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("Template **%s** updated.", name), true)
}

func (f *Feature) listTemplates(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	var templates []entities.VoiceTemplate
	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		member, err := uow.MemberRepository().GetByDiscordID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get member: %w", err)
		}
		if member != nil {
			templates = member.Templates
		}
		return nil
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	common.Respond(s, i, formatTemplates(templates), true)
}

func templateFromOccupants(name string, private bool, ownerID int64, occupants []interfaces.Occupant) entities.VoiceTemplate {
	template := entities.VoiceTemplate{Name: strings.TrimSpace(name), Private: private}
	for _, o := range occupants {
		if o.Bot || o.DiscordID == ownerID {
			continue
		}
		template.Allow(o.DiscordID)
	}
	return template
}

func formatTemplates(templates []entities.VoiceTemplate) string {
	if len(templates) == 0 {
		return "You have no templates. Save one with `/voice save`."
	}
	var sb strings.Builder
	for _, t := range templates {
		visibility := "public"
		if t.Private {
			visibility = "private"
		}
		fmt.Fprintf(&sb, "**%s** · %s · %d allowed · %d denied\n", t.Name, visibility, len(t.Allowed), len(t.Denied))
	}
	return sb.String()
}
