package blackjack

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"helios/blackjack"
	"helios/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const customIDPrefix = "blackjack_"

// messageView keeps one channel message in sync with the table
type messageView struct {
	session   *discordgo.Session
	channelID string
	game      *blackjack.Game

	mu        sync.Mutex
	messageID string
}

func newMessageView(session *discordgo.Session, channelID int64, game *blackjack.Game) *messageView {
	return &messageView{
		session:   session,
		channelID: strconv.FormatInt(channelID, 10),
		game:      game,
	}
}

func (v *messageView) Update(ctx context.Context, snap blackjack.Snapshot) {
	v.show(renderTable(snap, nil), actionButtons(v.game.ID.String(), v.game.Actions(ctx)))
}

func (v *messageView) Finished(_ context.Context, snap blackjack.Snapshot, result *blackjack.Result) {
	v.show(renderTable(snap, result), []discordgo.MessageComponent{})
}

func (v *messageView) show(embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.messageID == "" {
		msg, err := v.session.ChannelMessageSendComplex(v.channelID, &discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		})
		if err != nil {
			log.WithField("channelID", v.channelID).Errorf("Failed to post blackjack table: %v", err)
			return
		}
		v.messageID = msg.ID
		return
	}

	_, err := v.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    v.channelID,
		ID:         v.messageID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if err != nil {
		log.WithField("messageID", v.messageID).Errorf("Failed to update blackjack table: %v", err)
	}
}

// renderTable draws the table. result is nil until the game settles.
func renderTable(snap blackjack.Snapshot, result *blackjack.Result) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🃏 Blackjack",
	}

	switch snap.Phase {
	case blackjack.PhaseJoining:
		embed.Color = common.ColorInfo
		embed.Description = "Place your bets with `/blackjack`."
	case blackjack.PhasePlayerTurns:
		embed.Color = common.ColorPrimary
		embed.Description = fmt.Sprintf("%s to act.", common.GetUserMention(snap.Current))
	case blackjack.PhaseDealerTurn:
		embed.Color = common.ColorPrimary
		embed.Description = "The dealer plays."
	case blackjack.PhaseSettled:
		embed.Color = common.ColorSuccess
		embed.Description = "The hand is over."
	case blackjack.PhaseAborted:
		embed.Color = common.ColorWarning
		embed.Description = "Nobody joined."
	}

	if len(snap.Dealer.Cards) > 0 {
		dealer := snap.Dealer
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Dealer",
			Value: fmt.Sprintf("`%s` (%d)", dealer.String(), dealer.VisibleTotal()),
		})
	}

	for n, seat := range snap.Seats {
		var lines []string
		for j := range seat.Hands {
			hand := &seat.Hands[j]
			line := fmt.Sprintf("bet %s", common.FormatPoints(hand.Bet))
			if len(hand.Cards) > 0 {
				line = fmt.Sprintf("`%s` (%d) · %s", hand.String(), hand.Total(), line)
			}
			if hand.Doubled {
				line += " · doubled"
			}
			if snap.Phase == blackjack.PhasePlayerTurns && seat.PlayerID == snap.Current && j == snap.Hand {
				line = "▶ " + line
			}
			lines = append(lines, line)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Seat %d", n+1),
			Value: common.GetUserMention(seat.PlayerID) + "\n" + strings.Join(lines, "\n"),
		})
	}

	if result != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Results",
			Value: formatNet(result.Net),
		})
	}
	return embed
}

// formatNet lists each player's winnings, biggest first
func formatNet(net map[int64]int64) string {
	ids := make([]int64, 0, len(net))
	for id := range net {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		if net[ids[a]] != net[ids[b]] {
			return net[ids[a]] > net[ids[b]]
		}
		return ids[a] < ids[b]
	})

	lines := make([]string, len(ids))
	for k, id := range ids {
		lines[k] = fmt.Sprintf("%s %+d", common.GetUserMention(id), net[id])
	}
	return strings.Join(lines, "\n")
}

var actionLabels = map[blackjack.Action]string{
	blackjack.ActionHit:    "Hit",
	blackjack.ActionStand:  "Stand",
	blackjack.ActionDouble: "Double",
	blackjack.ActionSplit:  "Split",
}

var actionOrder = []blackjack.Action{
	blackjack.ActionHit,
	blackjack.ActionStand,
	blackjack.ActionDouble,
	blackjack.ActionSplit,
}

// actionButtons renders the moves open to the current player in a fixed order
func actionButtons(gameID string, actions []blackjack.Action) []discordgo.MessageComponent {
	if len(actions) == 0 {
		return []discordgo.MessageComponent{}
	}
	open := make(map[blackjack.Action]bool, len(actions))
	for _, a := range actions {
		open[a] = true
	}

	var row []discordgo.MessageComponent
	for _, a := range actionOrder {
		if !open[a] {
			continue
		}
		style := discordgo.SecondaryButton
		if a == blackjack.ActionHit {
			style = discordgo.PrimaryButton
		}
		row = append(row, discordgo.Button{
			Label:    actionLabels[a],
			Style:    style,
			CustomID: fmt.Sprintf("%s%s_%s", customIDPrefix, a, gameID),
		})
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: row}}
}

// parseCustomID splits blackjack_<action>_<gameID>
func parseCustomID(customID string) (blackjack.Action, string, bool) {
	rest, ok := strings.CutPrefix(customID, customIDPrefix)
	if !ok {
		return "", "", false
	}
	action, gameID, ok := strings.Cut(rest, "_")
	if !ok || gameID == "" {
		return "", "", false
	}
	if _, known := actionLabels[blackjack.Action(action)]; !known {
		return "", "", false
	}
	return blackjack.Action(action), gameID, true
}
