package admin

import (
	"context"
	"fmt"

	"helios/application"
	"helios/bot/common"
	"helios/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature handles moderator tools: point grants, violations, admin flags and
// store restocks
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	deps       application.ServiceDeps
}

// NewFeature creates a new admin feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory, deps application.ServiceDeps) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		deps:       deps,
	}
}

// HandleCommand routes /admin subcommands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	allowed, err := f.isAdmin(ctx, s, i, guildID, userID)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	if !allowed {
		common.RespondWithError(s, i, "You need administrator permissions to use this command")
		return
	}

	sub, opts := common.Subcommand(i)
	var message string
	err = application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		svc := application.NewServices(uow, guildID, f.deps)
		var err error
		message, err = f.run(ctx, svc, uow, sub, opts)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	log.WithFields(log.Fields{
		"guildID": guildID,
		"adminID": userID,
		"action":  sub,
	}).Info("Admin action")
	common.RespondWithSuccess(s, i, message, true)
}

// isAdmin accepts server administrators and members carrying the admin flag
func (f *Feature) isAdmin(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, guildID, userID int64) (bool, error) {
	if common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		return true, nil
	}
	var flagged bool
	err := application.WithUnitOfWork(ctx, f.uowFactory, guildID, func(uow application.UnitOfWork) error {
		member, err := uow.MemberRepository().GetByDiscordID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get member: %w", err)
		}
		flagged = member != nil && member.HasFlag(entities.FlagAdmin)
		return nil
	})
	return flagged, err
}
