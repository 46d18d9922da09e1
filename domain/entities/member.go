package entities

import (
	"slices"
	"time"
)

// Member flags
const (
	FlagAdmin          = "admin"
	FlagNoDailyMessage = "no_daily_message"
	FlagVerified       = "verified"
)

// Member is a guild member's economy and preference record
type Member struct {
	ID             int64
	GuildID        int64
	DiscordID      int64
	Points         int64
	ActivityPoints int64
	APPaid         int64
	Templates      []VoiceTemplate
	Flags          []string
	DayClaimed     int
	DayLiked       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SetPoints assigns points, clamping negative values to zero
func (m *Member) SetPoints(points int64) {
	m.Points = max(points, 0)
}

// UnpaidActivityPoints returns activity points accrued since the last payout
func (m *Member) UnpaidActivityPoints() int64 {
	return max(m.ActivityPoints-m.APPaid, 0)
}

// HasFlag reports whether the member carries a flag
func (m *Member) HasFlag(flag string) bool {
	return slices.Contains(m.Flags, flag)
}

// SetFlag adds or removes a flag
func (m *Member) SetFlag(flag string, on bool) {
	idx := slices.Index(m.Flags, flag)
	switch {
	case on && idx < 0:
		m.Flags = append(m.Flags, flag)
	case !on && idx >= 0:
		m.Flags = slices.Delete(m.Flags, idx, idx+1)
	}
}

// Template returns the template with the given name, or nil
func (m *Member) Template(name string) *VoiceTemplate {
	for i := range m.Templates {
		if m.Templates[i].Name == name {
			return &m.Templates[i]
		}
	}
	return nil
}

// SaveTemplate inserts or replaces a template by name
func (m *Member) SaveTemplate(t VoiceTemplate) {
	if existing := m.Template(t.Name); existing != nil {
		*existing = t
		return
	}
	m.Templates = append(m.Templates, t)
}

// DeleteTemplate removes a template by name and reports whether it existed
func (m *Member) DeleteTemplate(name string) bool {
	for i := range m.Templates {
		if m.Templates[i].Name == name {
			m.Templates = slices.Delete(m.Templates, i, i+1)
			return true
		}
	}
	return false
}
