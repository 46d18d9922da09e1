package bot

import (
	"sort"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandRoutes_CoverDefinitions(t *testing.T) {
	b := &Bot{}
	routes := b.commandRoutes()

	seen := map[string]bool{}
	for _, cmd := range commandDefinitions() {
		assert.False(t, seen[cmd.Name], "duplicate command %s", cmd.Name)
		seen[cmd.Name] = true
		_, ok := routes[cmd.Name]
		assert.True(t, ok, "command %s has no route", cmd.Name)
	}
	assert.Len(t, routes, len(seen))
}

func TestCommandDefinitions_Valid(t *testing.T) {
	for _, cmd := range commandDefinitions() {
		assert.NotEmpty(t, cmd.Description, cmd.Name)
		assert.LessOrEqual(t, len(cmd.Description), 100, cmd.Name)
		for _, opt := range cmd.Options {
			assert.NotEmpty(t, opt.Description, "%s %s", cmd.Name, opt.Name)
			// required options must come first
			optional := false
			for _, sub := range opt.Options {
				if !sub.Required {
					optional = true
				}
				assert.False(t, optional && sub.Required, "%s %s %s", cmd.Name, opt.Name, sub.Name)
			}
		}
	}
}

func TestUsedInvites(t *testing.T) {
	assert.Nil(t, usedInvites(nil, map[string]int{"a": 3}))

	used := usedInvites(
		map[string]int{"a": 1, "b": 2},
		map[string]int{"a": 2, "b": 2, "c": 1, "d": 0},
	)
	sort.Strings(used)
	assert.Equal(t, []string{"a", "c"}, used)
}

func TestJoinedVoice(t *testing.T) {
	join := &discordgo.VoiceStateUpdate{VoiceState: &discordgo.VoiceState{ChannelID: "1"}}
	assert.True(t, joinedVoice(join))

	move := &discordgo.VoiceStateUpdate{
		VoiceState:   &discordgo.VoiceState{ChannelID: "2"},
		BeforeUpdate: &discordgo.VoiceState{ChannelID: "1"},
	}
	assert.True(t, joinedVoice(move))

	mute := &discordgo.VoiceStateUpdate{
		VoiceState:   &discordgo.VoiceState{ChannelID: "1", SelfMute: true},
		BeforeUpdate: &discordgo.VoiceState{ChannelID: "1"},
	}
	assert.False(t, joinedVoice(mute))

	leave := &discordgo.VoiceStateUpdate{
		VoiceState:   &discordgo.VoiceState{},
		BeforeUpdate: &discordgo.VoiceState{ChannelID: "1"},
	}
	assert.False(t, joinedVoice(leave))
	require.False(t, joinedVoice(&discordgo.VoiceStateUpdate{}))
}
