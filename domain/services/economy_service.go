package services

import (
	"context"
	"fmt"
	"time"

	"helios/config"
	"helios/domain/entities"
	"helios/domain/interfaces"
	"helios/domain/utils"
	"helios/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// PointsChange describes one ledger mutation
type PointsChange struct {
	DiscordID int64
	Amount    int64
	Type      entities.TransactionType
	Reason    string
	GameID    *uuid.UUID
	Metadata  map[string]any
}

// EconomyService owns points, activity points and daily rewards
type EconomyService struct {
	memberRepo      interfaces.MemberRepository
	transactionRepo interfaces.TransactionRepository
	eventPublisher  interfaces.EventPublisher
	now             func() time.Time
}

// NewEconomyService creates a new economy service
func NewEconomyService(
	memberRepo interfaces.MemberRepository,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
) *EconomyService {
	return &EconomyService{
		memberRepo:      memberRepo,
		transactionRepo: transactionRepo,
		eventPublisher:  eventPublisher,
		now:             time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *EconomyService) WithClock(now func() time.Time) *EconomyService {
	s.now = now
	return s
}

// GetOrCreateMember returns the member record, creating it on first observation
func (s *EconomyService) GetOrCreateMember(ctx context.Context, discordID int64) (*entities.Member, error) {
	member, err := s.memberRepo.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member %d: %w", discordID, err)
	}
	if member != nil {
		return member, nil
	}
	return s.createMember(ctx, discordID)
}

// LockMember is GetOrCreateMember with the member row locked until the unit
// of work ends, so concurrent balance changes serialize instead of
// overwriting each other
func (s *EconomyService) LockMember(ctx context.Context, discordID int64) (*entities.Member, error) {
	member, err := s.memberRepo.GetByDiscordIDForUpdate(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock member %d: %w", discordID, err)
	}
	if member != nil {
		return member, nil
	}
	// the inserted row stays locked by this transaction
	return s.createMember(ctx, discordID)
}

func (s *EconomyService) createMember(ctx context.Context, discordID int64) (*entities.Member, error) {
	initial := config.Get().StartingPoints
	member, err := s.memberRepo.Create(ctx, discordID, initial)
	if err != nil {
		return nil, fmt.Errorf("failed to create member %d: %w", discordID, err)
	}

	if err := s.eventPublisher.Publish(events.MemberCreatedEvent{
		GuildID:       member.GuildID,
		DiscordID:     discordID,
		InitialPoints: initial,
	}); err != nil {
		log.Errorf("Failed to publish member created event for %d: %v", discordID, err)
	}
	return member, nil
}

// AddPoints applies a signed delta. A negative delta that would cross zero
// clamps the balance at zero instead of failing.
func (s *EconomyService) AddPoints(ctx context.Context, change PointsChange) (*entities.Member, error) {
	member, err := s.LockMember(ctx, change.DiscordID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, member, change); err != nil {
		return nil, err
	}
	return member, nil
}

// Debit removes a positive amount, failing without side effects when the
// member cannot cover it
func (s *EconomyService) Debit(ctx context.Context, change PointsChange) (*entities.Member, error) {
	if change.Amount <= 0 {
		return nil, entities.ErrInvalidAmount
	}
	member, err := s.LockMember(ctx, change.DiscordID)
	if err != nil {
		return nil, err
	}
	if member.Points < change.Amount {
		return nil, fmt.Errorf("member %d has %d points, needs %d: %w",
			change.DiscordID, member.Points, change.Amount, entities.ErrInsufficientFunds)
	}

	debit := change
	debit.Amount = -change.Amount
	if err := s.apply(ctx, member, debit); err != nil {
		return nil, err
	}
	return member, nil
}

// Credit adds a positive amount
func (s *EconomyService) Credit(ctx context.Context, change PointsChange) (*entities.Member, error) {
	if change.Amount <= 0 {
		return nil, entities.ErrInvalidAmount
	}
	return s.AddPoints(ctx, change)
}

// Transfer moves amount between members. Validation happens before any
// write, so a failed transfer leaves both balances untouched.
func (s *EconomyService) Transfer(ctx context.Context, fromID, toID, amount int64, reasonFrom, reasonTo string) error {
	return s.transfer(ctx, fromID, toID, amount,
		entities.TransactionTypeTransferOut, entities.TransactionTypeTransferIn, reasonFrom, reasonTo)
}

func (s *EconomyService) transfer(
	ctx context.Context,
	fromID, toID, amount int64,
	outType, inType entities.TransactionType,
	reasonFrom, reasonTo string,
) error {
	if fromID == toID {
		return fmt.Errorf("cannot transfer to yourself: %w", entities.ErrIDMismatch)
	}
	if amount <= 0 {
		return entities.ErrInvalidAmount
	}

	// lock in id order so opposite transfers cannot deadlock
	locked := make(map[int64]*entities.Member, 2)
	for _, id := range []int64{min(fromID, toID), max(fromID, toID)} {
		member, err := s.LockMember(ctx, id)
		if err != nil {
			return err
		}
		locked[id] = member
	}
	from, to := locked[fromID], locked[toID]
	if from.Points < amount {
		return fmt.Errorf("member %d has %d points, needs %d: %w", fromID, from.Points, amount, entities.ErrInsufficientFunds)
	}

	if err := s.apply(ctx, from, PointsChange{
		DiscordID: fromID,
		Amount:    -amount,
		Type:      outType,
		Reason:    reasonFrom,
		Metadata:  map[string]any{"to": toID},
	}); err != nil {
		return err
	}
	return s.apply(ctx, to, PointsChange{
		DiscordID: toID,
		Amount:    amount,
		Type:      inType,
		Reason:    reasonTo,
		Metadata:  map[string]any{"from": fromID},
	})
}

// ClaimDaily pays the daily reward at most once per stadium day
func (s *EconomyService) ClaimDaily(ctx context.Context, discordID int64) (bool, error) {
	member, err := s.LockMember(ctx, discordID)
	if err != nil {
		return false, err
	}

	today := utils.StadiumDay(s.now())
	if member.DayClaimed >= today {
		return false, nil
	}
	member.DayClaimed = today

	if err := s.apply(ctx, member, PointsChange{
		DiscordID: discordID,
		Amount:    config.Get().DailyPoints,
		Type:      entities.TransactionTypeDaily,
		Reason:    "Daily reward",
		Metadata:  map[string]any{"day": today},
	}); err != nil {
		return false, err
	}
	return true, nil
}

// AccrueActivity adds activity points without touching spendable points
func (s *EconomyService) AccrueActivity(ctx context.Context, discordID, points int64) error {
	if points <= 0 {
		return nil
	}
	member, err := s.LockMember(ctx, discordID)
	if err != nil {
		return err
	}
	member.ActivityPoints += points
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return fmt.Errorf("failed to accrue activity for %d: %w", discordID, err)
	}
	return nil
}

// PayoutActivityPoints converts every member's unpaid activity points into
// points and returns how many members were paid
func (s *EconomyService) PayoutActivityPoints(ctx context.Context) (int, error) {
	members, err := s.memberRepo.GetWithUnpaidActivity(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get members with unpaid activity: %w", err)
	}

	paid := 0
	for _, member := range members {
		unpaid := member.UnpaidActivityPoints()
		if unpaid == 0 {
			continue
		}
		member.APPaid = member.ActivityPoints
		if err := s.apply(ctx, member, PointsChange{
			DiscordID: member.DiscordID,
			Amount:    unpaid,
			Type:      entities.TransactionTypeActivityPayout,
			Reason:    "Activity payout",
		}); err != nil {
			return paid, err
		}
		paid++
	}
	return paid, nil
}

// apply mutates the member, persists it and records the ledger entry
func (s *EconomyService) apply(ctx context.Context, member *entities.Member, change PointsChange) error {
	before := member.Points
	member.SetPoints(before + change.Amount)
	actual := member.Points - before

	if err := s.memberRepo.Update(ctx, member); err != nil {
		member.Points = before
		return fmt.Errorf("failed to update points for %d: %w", member.DiscordID, err)
	}

	if err := s.transactionRepo.Record(ctx, &entities.Transaction{
		DiscordID:       member.DiscordID,
		Amount:          actual,
		BalanceBefore:   before,
		BalanceAfter:    member.Points,
		TransactionType: change.Type,
		Reason:          change.Reason,
		GameID:          change.GameID,
		Metadata:        change.Metadata,
	}); err != nil {
		return fmt.Errorf("failed to record transaction for %d: %w", member.DiscordID, err)
	}

	if err := s.eventPublisher.Publish(events.PointsChangeEvent{
		GuildID:         member.GuildID,
		DiscordID:       member.DiscordID,
		OldPoints:       before,
		NewPoints:       member.Points,
		ChangeAmount:    actual,
		TransactionType: change.Type,
		Reason:          change.Reason,
	}); err != nil {
		log.Errorf("Failed to publish points change for %d: %v", member.DiscordID, err)
	}
	return nil
}
