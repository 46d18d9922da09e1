package blackjack

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"helios/domain/entities"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Phase is the stage a game is in
type Phase int

const (
	PhaseJoining Phase = iota
	PhasePlayerTurns
	PhaseDealerTurn
	PhaseSettled
	PhaseAborted
)

func (p Phase) String() string {
	return [...]string{"joining", "player_turns", "dealer_turn", "settled", "aborted"}[p]
}

// Action is a move a player can make on their turn
type Action string

const (
	ActionHit    Action = "hit"
	ActionStand  Action = "stand"
	ActionDouble Action = "double"
	ActionSplit  Action = "split"
)

const (
	// twoDeckPlayers is the seat count from which a second deck is shuffled in
	twoDeckPlayers = 5
	// maxSeats is the table size
	maxSeats    = 8
	dealerStand = 17
)

var (
	// ErrNoPlayers is returned when the join window closed empty
	ErrNoPlayers = errors.New("no players joined")

	// ErrNotYourTurn is returned for actions out of turn
	ErrNotYourTurn = fmt.Errorf("not your turn: %w", entities.ErrInvalidState)
)

// Ledger moves points between players and the house. Every call carries the
// game id so ledger entries can be traced back to the game.
type Ledger interface {
	Balance(ctx context.Context, memberID int64) (int64, error)
	// Bet debits a stake, failing with ErrInsufficientFunds and no side effect
	Bet(ctx context.Context, gameID uuid.UUID, memberID, amount int64) error
	Payout(ctx context.Context, gameID uuid.UUID, memberID, amount int64) error
	Refund(ctx context.Context, gameID uuid.UUID, memberID, amount int64) error
}

// Seat is one player at the table with their hands in split order
type Seat struct {
	PlayerID int64
	Hands    []*Hand
	acted    bool
}

// HandResult is the outcome of one hand
type HandResult struct {
	PlayerID int64
	Hand     int
	Bet      int64
	Payout   int64
	Total    int
}

// Result is the outcome of a settled game
type Result struct {
	GameID      uuid.UUID
	DealerTotal int
	Hands       []HandResult
	// Net is each player's payouts minus stakes
	Net map[int64]int64
}

// Game is the blackjack state machine. It is safe for concurrent use; in
// practice joins arrive from many goroutines and turns from the table runner.
type Game struct {
	ID     uuid.UUID
	ledger Ledger
	rng    *rand.Rand
	// newDeck builds the shoe at deal time
	newDeck func(decks int) *Deck

	mu      sync.Mutex
	phase   Phase
	seats   []*Seat
	dealer  Hand
	deck    *Deck
	seat    int
	hand    int
	staked  map[int64]int64
	settled bool
}

// NewGame creates a game in the joining phase
func NewGame(ledger Ledger, rng *rand.Rand) *Game {
	g := &Game{
		ID:     uuid.New(),
		ledger: ledger,
		rng:    rng,
		staked: make(map[int64]int64),
	}
	g.newDeck = func(decks int) *Deck { return NewDeck(decks, g.rng) }
	return g
}

// WithDeck makes the game deal from the given deck, for tests
func (g *Game) WithDeck(deck *Deck) *Game {
	g.newDeck = func(int) *Deck { return deck }
	return g
}

// Phase returns the current phase
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Join seats a player with a bet no larger than their points
func (g *Game) Join(ctx context.Context, playerID, bet int64) error {
	if bet <= 0 {
		return entities.ErrInvalidAmount
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseJoining {
		return fmt.Errorf("game already started: %w", entities.ErrInvalidState)
	}
	if g.seatOfLocked(playerID) != nil {
		return fmt.Errorf("player %d already joined: %w", playerID, entities.ErrInvalidState)
	}
	if len(g.seats) >= maxSeats {
		return fmt.Errorf("table is full: %w", entities.ErrInvalidState)
	}
	balance, err := g.ledger.Balance(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}
	if balance < bet {
		return fmt.Errorf("bet %d exceeds %d points: %w", bet, balance, entities.ErrInsufficientFunds)
	}

	g.seats = append(g.seats, &Seat{PlayerID: playerID, Hands: []*Hand{{Bet: bet}}})
	return nil
}

// Players returns the seated players in seat order
func (g *Game) Players() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]int64, len(g.seats))
	for i, s := range g.seats {
		out[i] = s.PlayerID
	}
	return out
}

// Deal takes every stake and deals the opening cards: dealer up, each
// player, dealer down, each player. Players who can no longer cover their
// bet are unseated. The game aborts with ErrNoPlayers when nobody is left.
func (g *Game) Deal(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseJoining {
		return fmt.Errorf("game already dealt: %w", entities.ErrInvalidState)
	}

	seated := g.seats[:0]
	for _, s := range g.seats {
		bet := s.Hands[0].Bet
		if err := g.ledger.Bet(ctx, g.ID, s.PlayerID, bet); err != nil {
			log.WithFields(log.Fields{
				"gameID":   g.ID,
				"playerID": s.PlayerID,
			}).Warnf("Unseating player, bet failed: %v", err)
			continue
		}
		g.staked[s.PlayerID] += bet
		seated = append(seated, s)
	}
	g.seats = seated

	if len(g.seats) == 0 {
		g.phase = PhaseAborted
		return ErrNoPlayers
	}

	decks := 1
	if len(g.seats) >= twoDeckPlayers {
		decks = 2
	}
	g.deck = g.newDeck(decks)

	g.dealer.Add(g.deck.Draw(false))
	for _, s := range g.seats {
		s.Hands[0].Add(g.deck.Draw(false))
	}
	g.dealer.Add(g.deck.Draw(true))
	for _, s := range g.seats {
		s.Hands[0].Add(g.deck.Draw(false))
	}

	g.phase = PhasePlayerTurns
	g.seat, g.hand = 0, 0
	g.skipFinishedLocked()
	return nil
}

// NeedsPeek reports whether the dealer's upcard could make a natural
func (g *Game) NeedsPeek() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.dealer.Cards) == 0 {
		return false
	}
	return g.dealer.Cards[0].Value() == 10 || g.dealer.Cards[0].Rank == Ace
}

// DealerNatural reveals the hole card and ends the player turns when the
// dealer holds a natural
func (g *Game) DealerNatural() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.dealer.Natural() {
		return false
	}
	g.dealer.Reveal()
	g.phase = PhaseDealerTurn
	return true
}

// Current returns whose turn it is and which of their hands is in play
func (g *Game) Current() (playerID int64, hand int, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhasePlayerTurns {
		return 0, 0, false
	}
	return g.seats[g.seat].PlayerID, g.hand, true
}

// Actions lists the moves open to the current player
func (g *Game) Actions(ctx context.Context) []Action {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhasePlayerTurns {
		return nil
	}

	seat := g.seats[g.seat]
	hand := seat.Hands[g.hand]
	actions := []Action{ActionStand}
	if hand.Total() < 21 {
		actions = append(actions, ActionHit)
	}

	balance, err := g.ledger.Balance(ctx, seat.PlayerID)
	if err != nil {
		return actions
	}
	if len(hand.Cards) == 2 && balance >= hand.Bet {
		actions = append(actions, ActionDouble)
	}
	if g.canSplitLocked(seat, hand) && balance >= hand.Bet {
		actions = append(actions, ActionSplit)
	}
	return actions
}

// Play performs an action for a player
func (g *Game) Play(ctx context.Context, playerID int64, action Action) error {
	switch action {
	case ActionHit:
		return g.Hit(playerID)
	case ActionStand:
		return g.Stand(playerID)
	case ActionDouble:
		return g.DoubleDown(ctx, playerID)
	case ActionSplit:
		return g.Split(ctx, playerID)
	}
	return fmt.Errorf("unknown action %q: %w", action, entities.ErrInvalidState)
}

// Hit draws a card. Reaching 21 or more ends the hand.
func (g *Game) Hit(playerID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat, hand, err := g.turnLocked(playerID)
	if err != nil {
		return err
	}
	if hand.Total() >= 21 {
		return fmt.Errorf("hand already at %d: %w", hand.Total(), entities.ErrInvalidState)
	}
	seat.acted = true
	hand.Add(g.deck.Draw(false))
	if hand.Total() >= 21 {
		g.standLocked()
	}
	return nil
}

// Stand ends the current hand
func (g *Game) Stand(playerID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat, _, err := g.turnLocked(playerID)
	if err != nil {
		return err
	}
	seat.acted = true
	g.standLocked()
	return nil
}

// DoubleDown doubles the bet on a two-card hand, draws one card and stands
func (g *Game) DoubleDown(ctx context.Context, playerID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat, hand, err := g.turnLocked(playerID)
	if err != nil {
		return err
	}
	if len(hand.Cards) != 2 {
		return fmt.Errorf("can only double on two cards: %w", entities.ErrInvalidState)
	}
	if err := g.ledger.Bet(ctx, g.ID, playerID, hand.Bet); err != nil {
		return fmt.Errorf("failed to double: %w", err)
	}
	g.staked[playerID] += hand.Bet

	seat.acted = true
	hand.Bet *= 2
	hand.Doubled = true
	hand.Add(g.deck.Draw(false))
	g.standLocked()
	return nil
}

// Split turns a pair into two hands, each with the original bet and a
// fresh second card. Only allowed as the seat's first move.
func (g *Game) Split(ctx context.Context, playerID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat, hand, err := g.turnLocked(playerID)
	if err != nil {
		return err
	}
	if !g.canSplitLocked(seat, hand) {
		return fmt.Errorf("hand cannot be split: %w", entities.ErrInvalidState)
	}
	if err := g.ledger.Bet(ctx, g.ID, playerID, hand.Bet); err != nil {
		return fmt.Errorf("failed to split: %w", err)
	}
	g.staked[playerID] += hand.Bet

	seat.acted = true
	second := &Hand{Cards: []Card{hand.Cards[1]}, Bet: hand.Bet, Split: true}
	hand.Cards = hand.Cards[:1]
	hand.Split = true
	hand.Add(g.deck.Draw(false))
	second.Add(g.deck.Draw(false))
	seat.Hands = slices.Insert(seat.Hands, g.hand+1, second)

	g.skipFinishedLocked()
	return nil
}

// PlayDealer reveals the hole card and draws while below 17 or on a soft 17
func (g *Game) PlayDealer() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseDealerTurn {
		return fmt.Errorf("dealer cannot play during %s: %w", g.phase, entities.ErrInvalidState)
	}
	g.dealer.Reveal()
	if g.dealer.Natural() {
		return nil
	}
	for g.dealer.Total() < dealerStand || (g.dealer.Total() == dealerStand && g.dealer.Soft()) {
		g.dealer.Add(g.deck.Draw(false))
	}
	return nil
}

// Settle pays out every hand against the dealer
func (g *Game) Settle(ctx context.Context) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseDealerTurn || g.settled {
		return nil, fmt.Errorf("cannot settle during %s: %w", g.phase, entities.ErrInvalidState)
	}
	g.dealer.Reveal()

	result := &Result{
		GameID:      g.ID,
		DealerTotal: g.dealer.Total(),
		Net:         make(map[int64]int64),
	}
	payouts := make(map[int64]int64)
	for _, s := range g.seats {
		for i, h := range s.Hands {
			payout := SettleHand(h, &g.dealer)
			payouts[s.PlayerID] += payout
			result.Hands = append(result.Hands, HandResult{
				PlayerID: s.PlayerID,
				Hand:     i,
				Bet:      h.Bet,
				Payout:   payout,
				Total:    h.Total(),
			})
		}
	}

	// settled before paying so a failed payout is never refunded on top
	g.settled = true
	var errs []error
	for _, s := range g.seats {
		if amount := payouts[s.PlayerID]; amount > 0 {
			if err := g.ledger.Payout(ctx, g.ID, s.PlayerID, amount); err != nil {
				errs = append(errs, fmt.Errorf("payout to %d: %w", s.PlayerID, err))
			}
		}
		result.Net[s.PlayerID] = payouts[s.PlayerID] - g.staked[s.PlayerID]
	}
	g.phase = PhaseSettled
	return result, errors.Join(errs...)
}

// Refund returns every stake taken so far. It is a no-op once the game has
// settled.
func (g *Game) Refund(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.settled {
		return nil
	}
	g.settled = true
	g.phase = PhaseAborted

	var errs []error
	for _, s := range g.seats {
		if amount := g.staked[s.PlayerID]; amount > 0 {
			if err := g.ledger.Refund(ctx, g.ID, s.PlayerID, amount); err != nil {
				errs = append(errs, fmt.Errorf("refund to %d: %w", s.PlayerID, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Snapshot is a read-only view of the table for rendering
type Snapshot struct {
	Phase   Phase
	Dealer  Hand
	Seats   []SeatView
	Current int64
	Hand    int
}

// SeatView is a copy of one seat
type SeatView struct {
	PlayerID int64
	Hands    []Hand
}

// Snapshot copies the table state
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	snap := Snapshot{
		Phase:  g.phase,
		Dealer: Hand{Cards: slices.Clone(g.dealer.Cards)},
		Hand:   g.hand,
	}
	if g.phase == PhasePlayerTurns {
		snap.Current = g.seats[g.seat].PlayerID
	}
	for _, s := range g.seats {
		view := SeatView{PlayerID: s.PlayerID}
		for _, h := range s.Hands {
			copied := *h
			copied.Cards = slices.Clone(h.Cards)
			view.Hands = append(view.Hands, copied)
		}
		snap.Seats = append(snap.Seats, view)
	}
	return snap
}

// SettleHand returns what a hand pays back: nothing for a loss, the bet for
// a push and twice the bet for a win. A dealer natural beats every hand.
func SettleHand(hand, dealer *Hand) int64 {
	player, house := hand.Total(), dealer.Total()
	switch {
	case dealer.Natural():
		return 0
	case player > 21:
		return 0
	case house > 21:
		return 2 * hand.Bet
	case player > house:
		return 2 * hand.Bet
	case player == house:
		return hand.Bet
	}
	return 0
}

func (g *Game) turnLocked(playerID int64) (*Seat, *Hand, error) {
	if g.phase != PhasePlayerTurns {
		return nil, nil, fmt.Errorf("no turns during %s: %w", g.phase, entities.ErrInvalidState)
	}
	seat := g.seats[g.seat]
	if seat.PlayerID != playerID {
		return nil, nil, ErrNotYourTurn
	}
	return seat, seat.Hands[g.hand], nil
}

func (g *Game) canSplitLocked(seat *Seat, hand *Hand) bool {
	return !seat.acted &&
		len(seat.Hands) == 1 &&
		len(hand.Cards) == 2 &&
		hand.Cards[0].SplitValue() == hand.Cards[1].SplitValue()
}

func (g *Game) standLocked() {
	g.seats[g.seat].Hands[g.hand].Stood = true
	g.skipFinishedLocked()
}

// skipFinishedLocked moves the turn to the next hand still in play, ending
// player turns when none is left
func (g *Game) skipFinishedLocked() {
	for g.seat < len(g.seats) {
		hands := g.seats[g.seat].Hands
		for g.hand < len(hands) {
			h := hands[g.hand]
			if h.Stood {
				g.hand++
				continue
			}
			if h.Total() >= 21 {
				h.Stood = true
				g.hand++
				continue
			}
			return
		}
		g.seat++
		g.hand = 0
	}
	g.seat, g.hand = 0, 0
	g.phase = PhaseDealerTurn
}

func (g *Game) seatOfLocked(playerID int64) *Seat {
	for _, s := range g.seats {
		if s.PlayerID == playerID {
			return s
		}
	}
	return nil
}
