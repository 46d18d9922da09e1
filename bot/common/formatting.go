package common

import (
	"fmt"
	"time"

	"helios/domain/utils"
)

// FormatPoints formats points with thousand separators and the unit
func FormatPoints(points int64) string {
	return fmt.Sprintf("**%s** points", utils.FormatPoints(points))
}

// FormatTransferResult formats the result of a transfer
func FormatTransferResult(amount int64, recipientID int64) string {
	return fmt.Sprintf("✅ Sent %s to %s", FormatPoints(amount), GetUserMention(recipientID))
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// FormatRank renders a leaderboard position
func FormatRank(position int) string {
	switch position {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("`#%d`", position)
	}
}
