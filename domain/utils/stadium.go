package utils

import "time"

// StadiumEpoch anchors the day index used for once-per-day rewards
var StadiumEpoch = time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

// StadiumDay returns the number of whole UTC days between the epoch and t
func StadiumDay(t time.Time) int {
	return int(t.UTC().Sub(StadiumEpoch) / (24 * time.Hour))
}

// StartOfDay returns UTC midnight of the day containing t
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextDailyRun returns the next instant after now at the given UTC time of day
func NextDailyRun(now time.Time, hour, minute int) time.Time {
	next := StartOfDay(now).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
