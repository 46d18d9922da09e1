package blackjack

import (
	"testing"

	"helios/blackjack"
	"helios/bot/common"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCustomID(t *testing.T) {
	id := uuid.New().String()

	action, gameID, ok := parseCustomID("blackjack_hit_" + id)
	require.True(t, ok)
	assert.Equal(t, blackjack.ActionHit, action)
	assert.Equal(t, id, gameID)

	for _, bad := range []string{"blackjack_hit_", "blackjack_fold_" + id, "wager_hit_" + id, "blackjack_"} {
		_, _, ok := parseCustomID(bad)
		assert.False(t, ok, bad)
	}
}

func TestActionButtons(t *testing.T) {
	assert.Empty(t, actionButtons("g", nil))

	rows := actionButtons("g", []blackjack.Action{blackjack.ActionSplit, blackjack.ActionStand, blackjack.ActionHit})
	require.Len(t, rows, 1)
	buttons := rows[0].(discordgo.ActionsRow).Components
	require.Len(t, buttons, 3)

	var ids []string
	for _, b := range buttons {
		ids = append(ids, b.(discordgo.Button).CustomID)
	}
	assert.Equal(t, []string{"blackjack_hit_g", "blackjack_stand_g", "blackjack_split_g"}, ids)

	for _, id := range ids {
		_, gameID, ok := parseCustomID(id)
		assert.True(t, ok)
		assert.Equal(t, "g", gameID)
	}
}

func TestRenderTable(t *testing.T) {
	t.Run("joining", func(t *testing.T) {
		embed := renderTable(blackjack.Snapshot{
			Phase: blackjack.PhaseJoining,
			Seats: []blackjack.SeatView{{PlayerID: 7, Hands: []blackjack.Hand{{Bet: 100}}}},
		}, nil)

		assert.Equal(t, common.ColorInfo, embed.Color)
		require.Len(t, embed.Fields, 1)
		assert.Equal(t, "Seat 1", embed.Fields[0].Name)
		assert.Contains(t, embed.Fields[0].Value, "<@7>")
		assert.Contains(t, embed.Fields[0].Value, "**100** points")
	})

	t.Run("player turn hides the hole card", func(t *testing.T) {
		embed := renderTable(blackjack.Snapshot{
			Phase: blackjack.PhasePlayerTurns,
			Dealer: blackjack.Hand{Cards: []blackjack.Card{
				{Rank: blackjack.King, Suit: blackjack.Spades},
				{Rank: blackjack.Ace, Suit: blackjack.Hearts, Hidden: true},
			}},
			Seats: []blackjack.SeatView{{PlayerID: 7, Hands: []blackjack.Hand{{
				Bet:   100,
				Cards: []blackjack.Card{{Rank: 9, Suit: blackjack.Clubs}, {Rank: 8, Suit: blackjack.Clubs}},
			}}}},
			Current: 7,
		}, nil)

		assert.Contains(t, embed.Description, "<@7>")
		require.Len(t, embed.Fields, 2)
		assert.Contains(t, embed.Fields[0].Value, "??")
		assert.Contains(t, embed.Fields[0].Value, "(10)")
		assert.Contains(t, embed.Fields[1].Value, "▶")
		assert.Contains(t, embed.Fields[1].Value, "(17)")
	})

	t.Run("settled lists results", func(t *testing.T) {
		embed := renderTable(blackjack.Snapshot{Phase: blackjack.PhaseSettled}, &blackjack.Result{
			Net: map[int64]int64{1: -100, 2: 200},
		})
		assert.Equal(t, common.ColorSuccess, embed.Color)
		require.Len(t, embed.Fields, 1)
		assert.Equal(t, "<@2> +200\n<@1> -100", embed.Fields[0].Value)
	})
}
