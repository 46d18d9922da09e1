package blackjack

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"helios/config"
	"helios/domain/entities"
	"helios/domain/interfaces"
	"helios/events"

	log "github.com/sirupsen/logrus"
)

// DefaultPeekDelay is the visible pause while the dealer checks for a natural
const DefaultPeekDelay = 3 * time.Second

// View renders table updates to players
type View interface {
	Update(ctx context.Context, snap Snapshot)
	Finished(ctx context.Context, snap Snapshot, result *Result)
}

type actionRequest struct {
	playerID int64
	action   Action
	reply    chan error
}

// Table runs one game in real time: a join window, the deal, timed player
// turns, the dealer and settlement. Player actions are funnelled through a
// single goroutine so they apply in seat order.
type Table struct {
	game      *Game
	guildID   int64
	channelID int64
	records   interfaces.BlackjackRepository
	publisher interfaces.EventPublisher
	view      View
	now       func() time.Time

	joinWindow  time.Duration
	turnTimeout time.Duration
	peekDelay   time.Duration

	actions chan actionRequest
	done    chan struct{}
}

// NewTable creates a runner for game using the configured join window and
// turn timeout
func NewTable(
	game *Game,
	guildID, channelID int64,
	records interfaces.BlackjackRepository,
	publisher interfaces.EventPublisher,
	view View,
) *Table {
	cfg := config.Get()
	return &Table{
		game:        game,
		guildID:     guildID,
		channelID:   channelID,
		records:     records,
		publisher:   publisher,
		view:        view,
		now:         time.Now,
		joinWindow:  cfg.BlackjackJoinWindow,
		turnTimeout: cfg.BlackjackTurnTimeout,
		peekDelay:   DefaultPeekDelay,
		actions:     make(chan actionRequest),
		done:        make(chan struct{}),
	}
}

// Game returns the game the table runs
func (t *Table) Game() *Game {
	return t.game
}

// Join seats a player while the join window is open
func (t *Table) Join(ctx context.Context, playerID, bet int64) error {
	if err := t.game.Join(ctx, playerID, bet); err != nil {
		return err
	}
	t.render(ctx)
	return nil
}

// Act submits a player action and waits for the runner to apply it
func (t *Table) Act(ctx context.Context, playerID int64, action Action) error {
	if t.game.Phase() != PhasePlayerTurns {
		return fmt.Errorf("no turns during %s: %w", t.game.Phase(), entities.ErrInvalidState)
	}
	reply := make(chan error, 1)
	select {
	case t.actions <- actionRequest{playerID: playerID, action: action, reply: reply}:
	case <-t.done:
		return fmt.Errorf("game is over: %w", entities.ErrInvalidState)
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run plays the game to the end. Any panic or failure after stakes were
// taken refunds every bet.
func (t *Table) Run(ctx context.Context) (result *Result, err error) {
	dealt := false
	defer close(t.done)
	defer func() {
		if r := recover(); r != nil {
			log.WithField("gameID", t.game.ID).Errorf("Panic in blackjack game: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("blackjack game panicked: %v", r)
		}
		if err != nil && dealt {
			t.refund(context.WithoutCancel(ctx))
			result = nil
		}
	}()

	select {
	case <-time.After(t.joinWindow):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := t.game.Deal(ctx); err != nil {
		if errors.Is(err, ErrNoPlayers) {
			log.WithField("gameID", t.game.ID).Info("Blackjack game aborted, nobody joined")
			t.render(ctx)
		}
		return nil, err
	}
	dealt = true
	t.createRecord(ctx)
	t.render(ctx)

	dealerNatural := false
	if t.game.NeedsPeek() {
		select {
		case <-time.After(t.peekDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		dealerNatural = t.game.DealerNatural()
	}

	if !dealerNatural {
		if err := t.playerTurns(ctx); err != nil {
			return nil, err
		}
		if err := t.game.PlayDealer(); err != nil {
			return nil, err
		}
	}

	result, err = t.game.Settle(ctx)
	if err != nil {
		// stakes are not refunded once payouts started
		log.WithField("gameID", t.game.ID).Errorf("Blackjack settlement incomplete: %v", err)
	}
	t.finish(ctx, result)
	return result, nil
}

func (t *Table) playerTurns(ctx context.Context) error {
	for {
		playerID, hand, ok := t.game.Current()
		if !ok {
			return nil
		}

		timeout := time.NewTimer(t.turnTimeout)
		acted := false
		for !acted {
			select {
			case req := <-t.actions:
				err := t.game.Play(ctx, req.playerID, req.action)
				req.reply <- err
				if err == nil {
					acted = true
					t.render(ctx)
				}
			case <-timeout.C:
				log.WithFields(log.Fields{
					"gameID":   t.game.ID,
					"playerID": playerID,
					"hand":     hand,
				}).Debug("Blackjack turn timed out, standing")
				if err := t.game.Stand(playerID); err != nil {
					return err
				}
				acted = true
				t.render(ctx)
			case <-ctx.Done():
				timeout.Stop()
				return ctx.Err()
			}
		}
		timeout.Stop()
	}
}

func (t *Table) createRecord(ctx context.Context) {
	if t.records == nil {
		return
	}
	snap := t.game.Snapshot()
	record := &entities.BlackjackRecord{
		ID:        t.game.ID,
		GuildID:   t.guildID,
		ChannelID: t.channelID,
		Bets:      make(map[int64]int64),
		State:     entities.BlackjackStatePlaying,
		StartedAt: t.now(),
	}
	for _, s := range snap.Seats {
		record.Players = append(record.Players, s.PlayerID)
		record.Bets[s.PlayerID] = s.Hands[0].Bet
	}
	if err := t.records.Create(ctx, record); err != nil {
		log.WithField("gameID", t.game.ID).Warnf("Failed to record blackjack game: %v", err)
	}
}

func (t *Table) finish(ctx context.Context, result *Result) {
	snap := t.game.Snapshot()
	if t.view != nil {
		t.view.Finished(ctx, snap, result)
	}

	t.updateRecord(ctx, entities.BlackjackStateSettled, result)
	t.publish(events.BlackjackSettledEvent{
		GuildID:  t.guildID,
		GameID:   t.game.ID.String(),
		Players:  t.game.Players(),
		Winnings: result.Net,
	})

	log.WithFields(log.Fields{
		"gameID":      t.game.ID,
		"players":     len(snap.Seats),
		"dealerTotal": result.DealerTotal,
	}).Info("Blackjack game settled")
}

func (t *Table) refund(ctx context.Context) {
	if err := t.game.Refund(ctx); err != nil {
		log.WithField("gameID", t.game.ID).Errorf("Failed to refund blackjack bets: %v", err)
	}
	t.updateRecord(ctx, entities.BlackjackStateRefunded, nil)
	t.publish(events.BlackjackSettledEvent{
		GuildID:  t.guildID,
		GameID:   t.game.ID.String(),
		Players:  t.game.Players(),
		Refunded: true,
	})
}

func (t *Table) updateRecord(ctx context.Context, state entities.BlackjackGameState, result *Result) {
	if t.records == nil {
		return
	}
	record, err := t.records.GetByID(ctx, t.game.ID)
	if err != nil || record == nil {
		log.WithField("gameID", t.game.ID).Warnf("Blackjack record missing: %v", err)
		return
	}
	finished := t.now()
	record.State = state
	record.FinishedAt = &finished
	if result != nil {
		record.Winnings = result.Net
		record.DealerTotal = result.DealerTotal
	}
	if err := t.records.Update(ctx, record); err != nil {
		log.WithField("gameID", t.game.ID).Warnf("Failed to update blackjack record: %v", err)
	}
}

func (t *Table) render(ctx context.Context) {
	if t.view != nil {
		t.view.Update(ctx, t.game.Snapshot())
	}
}

func (t *Table) publish(event events.Event) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.Publish(event); err != nil {
		log.WithField("eventType", event.Type()).Warnf("Failed to publish event: %v", err)
	}
}
