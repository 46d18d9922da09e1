package services

import (
	"cmp"
	"slices"

	"helios/domain/entities"
)

// RankCandidate is a member considered by the theme sorter
type RankCandidate struct {
	DiscordID int64
	Bot       bool
	Score     int64
	RoleIDs   []int64
}

// RoleChange moves a member from one rank role to another. From is zero
// when the member held no rank role.
type RoleChange struct {
	DiscordID int64
	From      int64
	To        int64
	// Stale lists every other rank role the member holds and must lose
	Stale []int64
}

// SortTheme assigns every non-bot candidate to a rank and returns the
// changes needed to reach that assignment. Candidates are ranked by score
// descending with ties kept in input order; each rank fills up to its
// maximum and the last rank takes everyone left.
func SortTheme(theme *entities.Theme, candidates []RankCandidate) []RoleChange {
	if len(theme.Ranks) == 0 {
		return nil
	}

	ranked := make([]RankCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.Bot {
			ranked = append(ranked, c)
		}
	}
	slices.SortStableFunc(ranked, func(a, b RankCandidate) int {
		return cmp.Compare(b.Score, a.Score)
	})

	themeRoles := theme.RoleIDs()
	last := len(theme.Ranks) - 1
	rank, filled := 0, 0

	var changes []RoleChange
	for _, c := range ranked {
		for rank < last && filled >= theme.Ranks[rank].Maximum {
			rank++
			filled = 0
		}
		filled++
		target := theme.Ranks[rank].RoleID

		var held []int64
		for _, roleID := range c.RoleIDs {
			if slices.Contains(themeRoles, roleID) {
				held = append(held, roleID)
			}
		}
		if len(held) == 1 && held[0] == target {
			continue
		}

		change := RoleChange{DiscordID: c.DiscordID, To: target}
		for _, roleID := range held {
			if roleID == target {
				continue
			}
			if change.From == 0 {
				change.From = roleID
			}
			change.Stale = append(change.Stale, roleID)
		}
		changes = append(changes, change)
	}
	return changes
}
