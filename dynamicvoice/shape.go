package dynamicvoice

import (
	"cmp"
	"slices"

	"helios/domain/entities"
	"helios/domain/interfaces"
)

// ShapeDelta returns how many channels a group should gain (positive) or
// lose (negative) given its current total and empty channel counts. Below
// the minimum the group is topped up first; otherwise it moves towards
// min_empty empty channels, never leaving [min, max].
func ShapeDelta(group *entities.DynamicVoiceGroup, total, empty int) int {
	var delta int
	if total < group.Min {
		delta = group.Min - total
	} else {
		delta = group.MinEmpty - empty
	}
	return min(max(delta, group.Min-total), group.Max-total)
}

// NextNumber returns the smallest positive number not in used
func NextNumber(used []int) int {
	sorted := slices.Clone(used)
	slices.Sort(sorted)
	n := 1
	for _, u := range sorted {
		if u == n {
			n++
		} else if u > n {
			break
		}
	}
	return n
}

// MajorityGame returns the game played by most occupants, or "" when more
// occupants play nothing. No game wins ties with a game; ties between games
// go to the alphabetically first name so the result is stable.
func MajorityGame(occupants []interfaces.Occupant) string {
	counts := make(map[string]int)
	for _, o := range occupants {
		counts[o.Game]++
	}

	best, bestCount := "", counts[""]
	for game, count := range counts {
		if game == "" {
			continue
		}
		if count > bestCount || (count == bestCount && best != "" && game < best) {
			best, bestCount = game, count
		}
	}
	return best
}

// sortChannels orders channels by group position then number
func sortChannels(channels []*entities.DynamicVoiceChannel, groupOrder map[int64]int) {
	slices.SortFunc(channels, func(a, b *entities.DynamicVoiceChannel) int {
		if c := cmp.Compare(groupOrder[a.GroupID], groupOrder[b.GroupID]); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	})
}
