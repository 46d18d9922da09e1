package economy

import (
	"strings"
	"testing"

	"helios/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatTitle(t *testing.T) {
	assert.Equal(t, "Limited Messages", statTitle(entities.StatLimitedMessages))
	assert.Equal(t, "Points", statTitle(entities.StatPoints))
}

func TestFormatStatValue(t *testing.T) {
	assert.Equal(t, "1h 30m", formatStatValue(entities.StatVoiceTime, 90))
	assert.Equal(t, "1,234", formatStatValue(entities.StatMessages, 1234))
}

func TestBuildLeaderboardEmbed(t *testing.T) {
	rows := []*entities.Statistic{
		{DiscordID: 1, Value: 10},
		{DiscordID: 2, Value: 30},
		{DiscordID: 3, Value: 20},
	}

	embed := buildLeaderboardEmbed(entities.StatMessages, rows)

	lines := strings.Split(strings.TrimSpace(embed.Description), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "🥇 <@2>"))
	assert.True(t, strings.HasPrefix(lines[1], "🥈 <@3>"))
	assert.True(t, strings.HasPrefix(lines[2], "🥉 <@1>"))
	assert.Equal(t, int64(10), rows[0].Value, "input order is left alone")
}

func TestBuildLeaderboardEmbed_Empty(t *testing.T) {
	embed := buildLeaderboardEmbed(entities.StatPoints, nil)
	assert.Equal(t, "Nobody is on the board yet.", embed.Description)
}

func TestBuildLeaderboardEmbed_Caps(t *testing.T) {
	var rows []*entities.Statistic
	for i := range 25 {
		rows = append(rows, &entities.Statistic{DiscordID: int64(i + 1), Value: int64(i)})
	}
	embed := buildLeaderboardEmbed(entities.StatPoints, rows)
	assert.Len(t, strings.Split(strings.TrimSpace(embed.Description), "\n"), 10)
}

func TestBuildStatsEmbed(t *testing.T) {
	embed := buildStatsEmbed(5, []statLine{
		{Name: entities.StatMessages, Value: 100, Change: 12},
		{Name: entities.StatVoiceTime, Value: 120, Change: -30},
		{Name: entities.StatGameTime, Value: 0},
	})

	require.Len(t, embed.Fields, 3)
	assert.Equal(t, "100 (+12 this week)", embed.Fields[0].Value)
	assert.Equal(t, "2h 0m (-30m this week)", embed.Fields[1].Value)
	assert.Equal(t, "0s", embed.Fields[2].Value)
}
