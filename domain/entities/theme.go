package entities

import "time"

// ThemeRank is one capacity-bound tier of a theme
type ThemeRank struct {
	Name   string `json:"name"`
	RoleID int64  `json:"role_id"`
	Color  int    `json:"color"`
	// Maximum is the rank capacity; it is ignored for the final rank
	Maximum int `json:"maximum"`
}

// Theme is an ordered set of ranks assigned from a scoring statistic
type Theme struct {
	ID             int64
	GuildID        int64
	OwnerID        int64
	Name           string
	ScoreStatistic string
	Ranks          []ThemeRank
	Current        bool
	Editable       bool
	CreatedAt      time.Time
}

// RoleIDs returns the role of every rank in order
func (t *Theme) RoleIDs() []int64 {
	ids := make([]int64, 0, len(t.Ranks))
	for _, r := range t.Ranks {
		ids = append(ids, r.RoleID)
	}
	return ids
}
