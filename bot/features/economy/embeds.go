package economy

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"helios/bot/common"
	"helios/domain/entities"
	"helios/domain/utils"

	"github.com/bwmarrin/discordgo"
)

// statLine is one row of the /stats embed
type statLine struct {
	Name   string
	Value  int64
	Change int64
}

// timeStats are counted in minutes
var timeStats = map[string]bool{
	entities.StatVoiceTime: true,
	entities.StatAloneTime: true,
	entities.StatAFKTime:   true,
	entities.StatGameTime:  true,
}

func formatStatValue(name string, value int64) string {
	if timeStats[name] {
		return utils.FormatDuration(time.Duration(value) * time.Minute)
	}
	return utils.FormatPoints(value)
}

func statTitle(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func buildLeaderboardEmbed(statistic string, rows []*entities.Statistic) *discordgo.MessageEmbed {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b *entities.Statistic) int { return cmp.Compare(b.Value, a.Value) })
	if len(sorted) > common.MaxLeaderboardRows {
		sorted = sorted[:common.MaxLeaderboardRows]
	}

	var sb strings.Builder
	for idx, row := range sorted {
		fmt.Fprintf(&sb, "%s %s %s\n", common.FormatRank(idx+1), common.GetUserMention(row.DiscordID), formatStatValue(statistic, row.Value))
	}
	description := sb.String()
	if description == "" {
		description = "Nobody is on the board yet."
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏆 %s Leaderboard", statTitle(statistic)),
		Description: description,
		Color:       common.ColorPrimary,
	}
}

func buildStatsEmbed(discordID int64, lines []statLine) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(lines))
	for _, line := range lines {
		value := formatStatValue(line.Name, line.Value)
		if line.Change != 0 {
			sign := "+"
			if line.Change < 0 {
				sign = "-"
			}
			change := line.Change
			if change < 0 {
				change = -change
			}
			value = fmt.Sprintf("%s (%s%s this week)", value, sign, formatStatValue(line.Name, change))
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   statTitle(line.Name),
			Value:  value,
			Inline: true,
		})
	}
	return &discordgo.MessageEmbed{
		Title:       "📊 Statistics",
		Description: common.GetUserMention(discordID),
		Color:       common.ColorInfo,
		Fields:      fields,
	}
}
