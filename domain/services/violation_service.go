package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"helios/config"
	"helios/domain/entities"
	"helios/domain/interfaces"
	"helios/domain/utils"
	"helios/events"

	log "github.com/sirupsen/logrus"
)

// ViolationService records violations, escalates them and settles them
type ViolationService struct {
	violationRepo  interfaces.ViolationRepository
	economy        *EconomyService
	notifier       interfaces.Notifier
	eventPublisher interfaces.EventPublisher
	now            func() time.Time
}

// NewViolationService creates a new violation service
func NewViolationService(
	violationRepo interfaces.ViolationRepository,
	economy *EconomyService,
	notifier interfaces.Notifier,
	eventPublisher interfaces.EventPublisher,
) *ViolationService {
	return &ViolationService{
		violationRepo:  violationRepo,
		economy:        economy,
		notifier:       notifier,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *ViolationService) WithClock(now func() time.Time) *ViolationService {
	s.now = now
	return s
}

// New records a violation in state New and sends the initial notice
func (s *ViolationService) New(
	ctx context.Context,
	userID int64,
	victimID *int64,
	kind entities.ViolationKind,
	cost int64,
	description string,
) (*entities.Violation, error) {
	if cost <= 0 {
		return nil, entities.ErrInvalidAmount
	}

	now := s.now()
	violation := &entities.Violation{
		UserID:      userID,
		VictimID:    victimID,
		Kind:        kind,
		Cost:        cost,
		Description: description,
		DueDate:     now.AddDate(0, 0, config.Get().ViolationDueDays),
		State:       entities.ViolationNew,
		CreatedOn:   now,
	}
	if err := s.violationRepo.Create(ctx, violation); err != nil {
		return nil, fmt.Errorf("failed to create violation: %w", err)
	}

	s.notify(ctx, violation, fmt.Sprintf(
		"You received a violation #%d (%s): %s. Pay %s points before <t:%d:F> using /violations pay.",
		violation.ID, violation.Kind, violation.Description,
		utils.FormatPoints(violation.Cost), violation.DueDate.Unix(),
	))
	return violation, nil
}

// Reconcile advances every open violation whose deadline has passed and
// returns how many changed state. Each transition sends its notice once.
func (s *ViolationService) Reconcile(ctx context.Context) (int, error) {
	open, err := s.violationRepo.GetOpen(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get open violations: %w", err)
	}

	now := s.now()
	changed := 0
	for _, violation := range open {
		oldState := violation.State
		if !violation.Advance(now) {
			continue
		}
		err := s.violationRepo.UpdateState(ctx, violation.ID, oldState, violation.State)
		if errors.Is(err, entities.ErrInvalidState) {
			// paid or advanced elsewhere since GetOpen
			log.WithField("violationID", violation.ID).Debug("Violation changed before reconcile")
			continue
		}
		if err != nil {
			violation.State = oldState
			log.WithFields(log.Fields{
				"violationID": violation.ID,
				"state":       oldState,
			}).Errorf("Failed to advance violation: %v", err)
			continue
		}
		changed++

		switch violation.State {
		case entities.ViolationDue:
			s.notify(ctx, violation, fmt.Sprintf(
				"Violation #%d is now overdue. Pay %s points within 2 days or it becomes illegal.",
				violation.ID, utils.FormatPoints(violation.Cost),
			))
		case entities.ViolationIllegal:
			s.notify(ctx, violation, fmt.Sprintf(
				"Violation #%d is now illegal. Pay %s points to settle it.",
				violation.ID, utils.FormatPoints(violation.Cost),
			))
		}
		s.publish(violation, oldState)
	}
	return changed, nil
}

// Pay settles a violation by charging its user. The payment goes to the
// victim when there is one and to the house otherwise.
func (s *ViolationService) Pay(ctx context.Context, violationID, payerID int64) (*entities.Violation, error) {
	violation, err := s.violationRepo.GetByID(ctx, violationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get violation %d: %w", violationID, err)
	}
	if violation == nil {
		return nil, fmt.Errorf("violation %d: %w", violationID, entities.ErrNotFound)
	}
	if violation.UserID != payerID {
		return nil, fmt.Errorf("violation %d does not belong to %d: %w", violationID, payerID, entities.ErrIDMismatch)
	}
	if violation.Settled() {
		return nil, fmt.Errorf("violation %d is already paid: %w", violationID, entities.ErrInvalidState)
	}

	reason := fmt.Sprintf("Violation #%d", violation.ID)
	if violation.VictimID != nil {
		err = s.economy.transfer(ctx, violation.UserID, *violation.VictimID, violation.Cost,
			entities.TransactionTypeViolationPayment, entities.TransactionTypeViolationReceived, reason, reason)
	} else {
		_, err = s.economy.Debit(ctx, PointsChange{
			DiscordID: violation.UserID,
			Amount:    violation.Cost,
			Type:      entities.TransactionTypeViolationPayment,
			Reason:    reason,
			Metadata:  map[string]any{"violation_id": violation.ID},
		})
	}
	if err != nil {
		return nil, err
	}

	// a concurrent payment loses here and its charge rolls back with the unit of work
	oldState := violation.State
	violation.State = entities.ViolationPaid
	if err := s.violationRepo.UpdateState(ctx, violation.ID, oldState, entities.ViolationPaid); err != nil {
		return nil, fmt.Errorf("failed to mark violation %d paid: %w", violation.ID, err)
	}
	s.publish(violation, oldState)
	return violation, nil
}

// GetByUser lists a member's violations
func (s *ViolationService) GetByUser(ctx context.Context, userID int64) ([]*entities.Violation, error) {
	violations, err := s.violationRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get violations for %d: %w", userID, err)
	}
	return violations, nil
}

// notify delivers a notice, logging failures
func (s *ViolationService) notify(ctx context.Context, violation *entities.Violation, content string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendDirectMessage(ctx, violation.UserID, content); err != nil {
		log.WithFields(log.Fields{
			"violationID": violation.ID,
			"userID":      violation.UserID,
		}).Warnf("Failed to deliver violation notice: %v", err)
	}
}

func (s *ViolationService) publish(violation *entities.Violation, oldState entities.ViolationState) {
	if err := s.eventPublisher.Publish(events.ViolationStateChangeEvent{
		GuildID:     violation.GuildID,
		ViolationID: violation.ID,
		UserID:      violation.UserID,
		OldState:    oldState,
		NewState:    violation.State,
	}); err != nil {
		log.Errorf("Failed to publish violation state change for %d: %v", violation.ID, err)
	}
}
