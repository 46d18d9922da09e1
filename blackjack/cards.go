package blackjack

import (
	"math/rand/v2"
	"strings"
)

// Suit of a playing card
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

var suitSymbols = [...]string{"♥", "♦", "♣", "♠"}

func (s Suit) String() string {
	return suitSymbols[s]
}

// Rank of a playing card, Two through Ace
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

func (r Rank) String() string {
	switch r {
	case Ten:
		return "10"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	}
	return string(rune('0' + int(r)))
}

// Card is a playing card. Hidden cards are face down to everyone.
type Card struct {
	Rank   Rank
	Suit   Suit
	Hidden bool
}

// Value is the card's blackjack value with aces counted as one
func (c Card) Value() int {
	switch {
	case c.Rank == Ace:
		return 1
	case c.Rank >= Ten:
		return 10
	}
	return int(c.Rank)
}

// SplitValue is the value used to match pairs, with aces counted as eleven
func (c Card) SplitValue() int {
	if c.Rank == Ace {
		return 11
	}
	return c.Value()
}

func (c Card) String() string {
	if c.Hidden {
		return "??"
	}
	return c.Rank.String() + c.Suit.String()
}

// Deck is a shoe of one or more 52-card decks. Cards are drawn from the front.
type Deck struct {
	cards []Card
	decks int
	rng   *rand.Rand
}

// NewDeck builds a shuffled shoe of n decks
func NewDeck(n int, rng *rand.Rand) *Deck {
	d := &Deck{decks: max(n, 1), rng: rng}
	d.refill()
	return d
}

// NewStackedDeck returns a deck that deals cards in the given order, then
// falls back to a fresh single deck
func NewStackedDeck(cards ...Card) *Deck {
	return &Deck{
		cards: cards,
		decks: 1,
		rng:   rand.New(rand.NewPCG(1, 2)),
	}
}

// Len returns the number of cards left
func (d *Deck) Len() int {
	return len(d.cards)
}

// Draw takes the next card, refilling the shoe when it runs dry
func (d *Deck) Draw(hidden bool) Card {
	if len(d.cards) == 0 {
		d.refill()
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	card.Hidden = hidden
	return card
}

func (d *Deck) refill() {
	cards := make([]Card, 0, 52*d.decks)
	for range d.decks {
		for suit := Hearts; suit <= Spades; suit++ {
			for rank := Two; rank <= Ace; rank++ {
				cards = append(cards, Card{Rank: rank, Suit: suit})
			}
		}
	}
	d.rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	d.cards = cards
}

// Hand is a set of cards with the bet riding on it
type Hand struct {
	Cards   []Card
	Bet     int64
	Doubled bool
	Split   bool
	Stood   bool
}

// Add puts a card in the hand
func (h *Hand) Add(card Card) {
	h.Cards = append(h.Cards, card)
}

// Total returns the best total not above 21 where possible, counting one
// ace as eleven when that does not bust
func (h *Hand) Total() int {
	total, _ := h.total(true)
	return total
}

// VisibleTotal returns the total of the face up cards
func (h *Hand) VisibleTotal() int {
	total, _ := h.total(false)
	return total
}

// Soft reports whether an ace is being counted as eleven
func (h *Hand) Soft() bool {
	_, soft := h.total(true)
	return soft
}

// Natural reports a two-card 21 dealt directly, not reached after a split
func (h *Hand) Natural() bool {
	return len(h.Cards) == 2 && !h.Split && h.Total() == 21
}

// Busted reports a total over 21
func (h *Hand) Busted() bool {
	return h.Total() > 21
}

// Reveal turns every card face up
func (h *Hand) Reveal() {
	for i := range h.Cards {
		h.Cards[i].Hidden = false
	}
}

func (h *Hand) String() string {
	parts := make([]string, len(h.Cards))
	for i, c := range h.Cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func (h *Hand) total(includeHidden bool) (int, bool) {
	total, aces := 0, false
	for _, c := range h.Cards {
		if c.Hidden && !includeHidden {
			continue
		}
		total += c.Value()
		if c.Rank == Ace {
			aces = true
		}
	}
	if aces && total <= 11 {
		return total + 10, true
	}
	return total, false
}
