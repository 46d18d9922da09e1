package bot

import (
	"context"
	"strconv"

	"helios/application"
	"helios/domain/entities"
	"helios/infrastructure/observability"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleGuildCreate tracks the guild and starts its runtime
func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	ctx := context.Background()

	guildID, err := strconv.ParseInt(g.ID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse guild ID %s: %v", g.ID, err)
		return
	}

	var settings *entities.GuildSettings
	err = application.WithUnitOfWork(ctx, b.deps.UoWFactory, guildID, func(uow application.UnitOfWork) error {
		settings, err = uow.GuildSettingsRepository().GetOrCreate(ctx)
		return err
	})
	if err != nil {
		log.Errorf("Failed to track guild %s (%s): %v", g.Name, g.ID, err)
		return
	}

	categoryID := settings.ID(entities.SettingDynamicVoiceCategory)
	if _, err := b.registry.Ensure(ctx, guildID, categoryID); err != nil {
		log.Errorf("Failed to start runtime for guild %s: %v", g.ID, err)
	}
	b.refreshInvites(g.ID)

	log.WithFields(log.Fields{
		"guildID":       guildID,
		"name":          g.Name,
		"voiceCategory": categoryID,
	}).Info("Guild available")
}

// handleMessageCreate counts messages towards member statistics
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Skip bots, including our own, and DMs
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	b.deps.Metrics.RecordMessageRead(observability.MessageTypeMessage)

	guildID, err1 := strconv.ParseInt(m.GuildID, 10, 64)
	authorID, err2 := strconv.ParseInt(m.Author.ID, 10, 64)
	if err1 != nil || err2 != nil {
		return
	}

	ctx := context.Background()
	err := application.WithUnitOfWork(ctx, b.deps.UoWFactory, guildID, func(uow application.UnitOfWork) error {
		return application.NewServices(uow, guildID, b.serviceDeps).Statistics.RecordMessage(ctx, authorID)
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"guild_id":   m.GuildID,
			"channel_id": m.ChannelID,
			"message_id": m.ID,
		}).Error("Failed to record message")
	}
}

// handleVoiceStateUpdate enforces effects on joins and reshapes dynamic voice
func (b *Bot) handleVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	guildID, err := strconv.ParseInt(v.GuildID, 10, 64)
	if err != nil {
		return
	}
	memberID, _ := strconv.ParseInt(v.UserID, 10, 64)

	if joinedVoice(v) {
		b.engine.OnVoiceJoin(context.Background(), guildID, memberID)
	}
	if rt, ok := b.registry.Get(guildID); ok {
		rt.Voice.Trigger()
	}
}

// joinedVoice reports a move into a voice channel, not a mute or leave
func joinedVoice(v *discordgo.VoiceStateUpdate) bool {
	if v.VoiceState == nil || v.ChannelID == "" {
		return false
	}
	return v.BeforeUpdate == nil || v.BeforeUpdate.ChannelID != v.ChannelID
}

// handleGuildMemberAdd adds members who joined through a PUG invite to that
// group as temporary members
func (b *Bot) handleGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil || m.User.Bot {
		return
	}
	guildID, err := strconv.ParseInt(m.GuildID, 10, 64)
	if err != nil {
		return
	}
	memberID, _ := strconv.ParseInt(m.User.ID, 10, 64)
	rt, ok := b.registry.Get(guildID)
	if !ok {
		return
	}

	ctx := context.Background()
	for _, code := range b.refreshInvites(m.GuildID) {
		pug, err := rt.Voice.PUGByInvite(ctx, code)
		if err != nil {
			log.WithField("code", code).Warnf("Failed to look up PUG invite: %v", err)
			continue
		}
		if pug == nil {
			continue
		}
		if err := rt.Voice.AddToPUG(ctx, pug.ChannelID, memberID, true); err != nil {
			log.WithFields(log.Fields{
				"guildID":  guildID,
				"memberID": memberID,
				"pugID":    pug.ID,
			}).Warnf("Failed to add member to PUG: %v", err)
			continue
		}
		log.WithFields(log.Fields{
			"guildID":  guildID,
			"memberID": memberID,
			"pugID":    pug.ID,
		}).Info("Member joined through PUG invite")
	}
}

// refreshInvites re-reads the guild's invites and returns the codes whose
// use count went up since the last read
func (b *Bot) refreshInvites(guildID string) []string {
	invites, err := b.session.GuildInvites(guildID)
	if err != nil {
		log.WithField("guildID", guildID).Debugf("Failed to read invites: %v", err)
		return nil
	}
	uses := make(map[string]int, len(invites))
	for _, inv := range invites {
		uses[inv.Code] = inv.Uses
	}

	b.invitesMu.Lock()
	defer b.invitesMu.Unlock()
	used := usedInvites(b.invites[guildID], uses)
	b.invites[guildID] = uses
	return used
}

// usedInvites returns the codes with more uses than before. A code unseen
// before counts when it has any use; without a baseline nothing counts.
func usedInvites(before, after map[string]int) []string {
	if before == nil {
		return nil
	}
	var used []string
	for code, n := range after {
		if n > before[code] {
			used = append(used, code)
		}
	}
	return used
}
