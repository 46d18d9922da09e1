package common

import (
	"errors"
	"fmt"

	"helios/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// BotError represents a structured error with user-facing and internal messages
type BotError struct {
	UserMessage string // Message shown to Discord user
	LogMessage  string // Internal message for logging
	Err         error  // Underlying error
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

// Unwrap returns the underlying error
func (e *BotError) Unwrap() error {
	return e.Err
}

// NewUserError creates an error for user-caused issues (validation, insufficient funds, etc)
func NewUserError(userMessage string, logMessage string) *BotError {
	return &BotError{
		UserMessage: userMessage,
		LogMessage:  logMessage,
	}
}

// NewSystemError creates an error for system issues (database, unexpected state, etc)
func NewSystemError(err error, logMessage string) *BotError {
	return &BotError{
		UserMessage: "Something went wrong. Please try again later.",
		LogMessage:  logMessage,
		Err:         err,
	}
}

// UserMessage translates a domain error into the text shown to the member
func UserMessage(err error) string {
	var botErr *BotError
	switch {
	case errors.As(err, &botErr):
		return botErr.UserMessage
	case errors.Is(err, entities.ErrInsufficientFunds):
		return "You don't have enough points for that."
	case errors.Is(err, entities.ErrInvalidAmount):
		return "Amount must be positive."
	case errors.Is(err, entities.ErrOutOfStock):
		return "That item is out of stock."
	case errors.Is(err, entities.ErrShielded):
		return "That target is shielded."
	case errors.Is(err, entities.ErrResourceBusy), errors.Is(err, entities.ErrSlotConflict):
		return "That is busy right now, try again later."
	case errors.Is(err, entities.ErrIDMismatch):
		return "That doesn't belong to you."
	case errors.Is(err, entities.ErrInvalidGroup):
		return err.Error()
	case errors.Is(err, entities.ErrInvalidState):
		return "You can't do that right now."
	case errors.Is(err, entities.ErrNotFound):
		return "Nothing was found."
	default:
		return "Something went wrong. Please try again later."
	}
}

// RespondWithError sends an error message as an interaction response
func RespondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Error sending error response: %v", err)
	}
}

// FollowUpWithError sends an error message as a follow-up to a deferred interaction
func FollowUpWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: fmt.Sprintf("❌ %s", message),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Errorf("Error sending follow-up error message: %v", err)
	}
}

// HandleError logs err and shows the member a translated message
func HandleError(s *discordgo.Session, i *discordgo.InteractionCreate, err error, deferred bool) {
	fields := log.Fields{
		"guild_id": i.GuildID,
		"error":    err.Error(),
	}
	if i.Member != nil && i.Member.User != nil {
		fields["user_id"] = i.Member.User.ID
	}
	if i.Type == discordgo.InteractionApplicationCommand {
		fields["command"] = i.ApplicationCommandData().Name
	}

	message := UserMessage(err)
	var botErr *BotError
	if errors.As(err, &botErr) && botErr.Err == nil {
		log.WithFields(fields).Debug(botErr.LogMessage)
	} else {
		log.WithFields(fields).Error("Interaction failed")
	}

	if deferred {
		FollowUpWithError(s, i, message)
	} else {
		RespondWithError(s, i, message)
	}
}
