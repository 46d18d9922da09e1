package blackjack

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"helios/application"
	"helios/blackjack"
	"helios/bot/common"
	"helios/domain/interfaces"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// RecordSource hands out the blackjack record repository of a guild
type RecordSource interface {
	BlackjackRepository(guildID int64) interfaces.BlackjackRepository
}

// Feature runs blackjack tables, at most one per channel
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	records    RecordSource
	publisher  interfaces.EventPublisher

	mu     sync.Mutex
	tables map[int64]*blackjack.Table
}

// NewFeature creates a new blackjack feature instance
func NewFeature(
	session *discordgo.Session,
	uowFactory application.UnitOfWorkFactory,
	records RecordSource,
	publisher interfaces.EventPublisher,
) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		records:    records,
		publisher:  publisher,
		tables:     make(map[int64]*blackjack.Table),
	}
}

// HandleCommand handles /blackjack
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := common.NewOptions(i.ApplicationCommandData().Options)
	f.handleBet(s, i, opts.Int("bet", 0))
}

// HandleInteraction handles the action buttons of a running table
func (f *Feature) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	f.handleAction(s, i)
}

// tableFor returns the table in channelID that is still taking players,
// opening a new one when there is none
func (f *Feature) tableFor(guildID, channelID int64) (*blackjack.Table, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t, ok := f.tables[channelID]; ok && t.Game().Phase() == blackjack.PhaseJoining {
		return t, false
	}
	if _, ok := f.tables[channelID]; ok {
		return nil, false
	}

	game := blackjack.NewGame(
		application.NewBlackjackLedger(f.uowFactory, guildID),
		rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(channelID))),
	)
	view := newMessageView(f.session, channelID, game)
	table := blackjack.NewTable(game, guildID, channelID, f.records.BlackjackRepository(guildID), f.publisher, view)
	f.tables[channelID] = table
	return table, true
}

// run plays a table to the end and frees the channel
func (f *Feature) run(table *blackjack.Table, channelID int64) {
	defer func() {
		f.mu.Lock()
		if f.tables[channelID] == table {
			delete(f.tables, channelID)
		}
		f.mu.Unlock()
	}()

	if _, err := table.Run(context.Background()); err != nil {
		log.WithFields(log.Fields{
			"gameID":    table.Game().ID,
			"channelID": channelID,
		}).Warnf("Blackjack game ended early: %v", err)
	}
}

// table returns the running table in channelID
func (f *Feature) table(channelID int64) (*blackjack.Table, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[channelID]
	return t, ok
}
