package shop

import (
	"context"
	"testing"
	"time"

	"helios/application"
	"helios/bot/common"
	"helios/domain/entities"
	"helios/domain/interfaces"
	"helios/domain/services"
	"helios/domain/testhelpers"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func options(values map[string]any) common.Options {
	opts := common.Options{}
	for name, v := range values {
		opts[name] = &discordgo.ApplicationCommandInteractionDataOption{
			Name:  name,
			Type:  discordgo.ApplicationCommandOptionString,
			Value: v,
		}
	}
	return opts
}

func TestBuildOrder(t *testing.T) {
	ctx := context.Background()
	members := new(testhelpers.MockMemberPlatform)
	members.On("VoiceState", mock.Anything, int64(1), int64(7)).Return(&interfaces.VoiceState{ChannelID: 300}, nil)
	f := &Feature{deps: application.ServiceDeps{Members: members}}

	t.Run("harmful effects hit the chosen member", func(t *testing.T) {
		order, err := f.buildOrder(ctx, 1, 7, options(map[string]any{
			"kind": "mute", "duration": "30s", "user": "9",
		}))
		require.NoError(t, err)
		assert.Equal(t, entities.EffectMute, order.Kind)
		assert.Equal(t, int64(9), order.TargetID)
		assert.Equal(t, 30*time.Second, order.Duration)
	})

	t.Run("harmful effects need another member", func(t *testing.T) {
		_, err := f.buildOrder(ctx, 1, 7, options(map[string]any{
			"kind": "deafen", "duration": "10s",
		}))
		assert.Error(t, err)
	})

	t.Run("shields protect the buyer", func(t *testing.T) {
		order, err := f.buildOrder(ctx, 1, 7, options(map[string]any{
			"kind": "shield", "duration": "2h", "user": "9",
		}))
		require.NoError(t, err)
		assert.Equal(t, int64(7), order.TargetID)
	})

	t.Run("bubbles cover the buyer's channel", func(t *testing.T) {
		order, err := f.buildOrder(ctx, 1, 7, options(map[string]any{
			"kind": "channel_shield", "duration": "1h",
		}))
		require.NoError(t, err)
		assert.Equal(t, entities.TargetChannel, order.TargetType)
		assert.Equal(t, int64(300), order.TargetID)
	})

	t.Run("bad durations", func(t *testing.T) {
		_, err := f.buildOrder(ctx, 1, 7, options(map[string]any{
			"kind": "shield", "duration": "forever",
		}))
		var botErr *common.BotError
		assert.ErrorAs(t, err, &botErr)
	})
}

func TestBuildStoreEmbed(t *testing.T) {
	store := &entities.Store{Items: []*entities.StoreItem{
		{Name: "shield", DisplayName: "Shield", Price: 500, Quantity: 3},
		{Name: "bubble", DisplayName: "Bubble", Price: 1200, Quantity: 0},
	}}

	embed := buildStoreEmbed(store)
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "Shield (`shield`)", embed.Fields[0].Name)
	assert.Equal(t, "**500** points · 3 left", embed.Fields[0].Value)
	assert.Equal(t, "**1,200** points · sold out", embed.Fields[1].Value)
	assert.Empty(t, embed.Description)
}

func TestFormatPurchase(t *testing.T) {
	msg := formatPurchase(&services.PurchaseResult{
		Item:      &entities.StoreItem{DisplayName: "Shield"},
		Quantity:  2,
		TotalCost: 1000,
		Points:    250,
	})
	assert.Equal(t, "Bought 2× Shield for **1,000** points. You have **250** points left.", msg)
}
