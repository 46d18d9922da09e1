package music

import (
	"context"
	"fmt"
	"strings"
	"time"

	"helios/bot/common"
	"helios/bot/guilds"
	"helios/domain/entities"
	"helios/domain/interfaces"
	"helios/scheduler"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	defaultBooking = 30 * time.Minute
	maxBooking     = 3 * time.Hour
)

// VoiceStates reports which channel a member is connected to
type VoiceStates interface {
	VoiceState(ctx context.Context, guildID, memberID int64) (*interfaces.VoiceState, error)
}

// Feature books the guild's voice connection through the scheduler
type Feature struct {
	session  *discordgo.Session
	registry *guilds.Registry
	members  VoiceStates
}

// NewFeature creates a new music feature instance
func NewFeature(session *discordgo.Session, registry *guilds.Registry, members VoiceStates) *Feature {
	return &Feature{
		session:  session,
		registry: registry,
		members:  members,
	}
}

// HandleCommand routes /music subcommands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	sub, opts := common.Subcommand(i)
	// /ingame is a bare booking in the caller's channel
	if i.ApplicationCommandData().Name == "ingame" {
		sub, opts = "book", common.NewOptions(i.ApplicationCommandData().Options)
	}

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	rt, ok := f.registry.Get(guildID)
	if !ok {
		common.RespondWithError(s, i, "Voice is still starting up, try again in a moment.")
		return
	}

	switch sub {
	case "book":
		err = f.handleBook(ctx, s, i, rt, guildID, userID, opts)
	case "schedule":
		common.Respond(s, i, formatSchedule(rt.Scheduler.Slots(), time.Now()), true)
	case "stop":
		err = f.handleStop(s, i, rt)
	}
	if err != nil {
		common.HandleError(s, i, err, false)
	}
}

func (f *Feature) handleBook(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, rt *guilds.Runtime, guildID, userID int64, opts common.Options) error {
	duration, minimum, err := parseBooking(opts.String("duration", ""), opts.String("minimum", ""))
	if err != nil {
		return err
	}

	state, err := f.members.VoiceState(ctx, guildID, userID)
	if err != nil {
		return fmt.Errorf("failed to read voice state: %w", err)
	}
	if state == nil {
		return common.NewUserError("Join a voice channel first.", "music booking outside voice")
	}

	slot, err := rt.Music.Book(state.ChannelID, duration, minimum)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"guildID":   guildID,
		"userID":    userID,
		"slotID":    slot.ID,
		"channelID": state.ChannelID,
	}).Info("Booked music slot")

	common.RespondWithSuccess(s, i, fmt.Sprintf("Booked %s until %s.",
		common.GetChannelMention(state.ChannelID), common.FormatDiscordTimestamp(slot.End, "t")), false)
	return nil
}

func (f *Feature) handleStop(s *discordgo.Session, i *discordgo.InteractionCreate, rt *guilds.Runtime) error {
	if !common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		return common.NewUserError("Only administrators can stop a booking.", "music stop by non-admin")
	}
	slot, ok := rt.Scheduler.Current()
	if !ok || slot.Type != scheduler.SlotTypeMusic {
		return common.NewUserError("Nothing is playing.", "music stop without slot")
	}
	if err := rt.Scheduler.EndNow(slot.ID); err != nil {
		return fmt.Errorf("failed to end slot %d: %w", slot.ID, err)
	}
	common.RespondWithSuccess(s, i, "Stopped.", false)
	return nil
}

// parseBooking reads the requested length and the shortest acceptable one
func parseBooking(durationRaw, minimumRaw string) (time.Duration, time.Duration, error) {
	duration := defaultBooking
	if durationRaw != "" {
		d, err := time.ParseDuration(durationRaw)
		if err != nil || d <= 0 {
			return 0, 0, common.NewUserError("Durations look like `45m` or `1h30m`.", "bad booking duration")
		}
		duration = d
	}
	if duration > maxBooking {
		return 0, 0, common.NewUserError(fmt.Sprintf("Bookings last at most %s.", maxBooking), "booking too long")
	}

	minimum := duration
	if minimumRaw != "" {
		d, err := time.ParseDuration(minimumRaw)
		if err != nil || d <= 0 || d > duration {
			return 0, 0, common.NewUserError("The minimum must be a duration no longer than the booking.", "bad booking minimum")
		}
		minimum = d
	}
	return duration, minimum, nil
}

func formatSchedule(slots []entities.TimeSlot, now time.Time) string {
	var sb strings.Builder
	for _, slot := range slots {
		if slot.Type != scheduler.SlotTypeMusic || !slot.End.After(now) {
			continue
		}
		channelID, _ := slot.Data["channel_id"].(int64)
		fmt.Fprintf(&sb, "%s to %s in %s\n",
			common.FormatDiscordTimestamp(slot.Start, "t"),
			common.FormatDiscordTimestamp(slot.End, "t"),
			common.GetChannelMention(channelID))
	}
	if sb.Len() == 0 {
		return "Nothing is booked."
	}
	return sb.String()
}
