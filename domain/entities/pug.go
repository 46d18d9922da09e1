package entities

import (
	"slices"
	"time"
)

// PUG is a pick-up group bound to a voice channel, a role and an invite
type PUG struct {
	ID               int64
	GuildID          int64
	ChannelID        int64
	RoleID           int64
	InviteCode       string
	ServerMembers    []int64
	TemporaryMembers []int64
	EffectID         *int64
	CreatedAt        time.Time
}

// Roster returns every member of the group
func (p *PUG) Roster() []int64 {
	roster := make([]int64, 0, len(p.ServerMembers)+len(p.TemporaryMembers))
	roster = append(roster, p.ServerMembers...)
	return append(roster, p.TemporaryMembers...)
}

// InRoster reports whether a member belongs to the group
func (p *PUG) InRoster(discordID int64) bool {
	return slices.Contains(p.ServerMembers, discordID) || slices.Contains(p.TemporaryMembers, discordID)
}

// AddMember adds a member to the server or temporary roster
func (p *PUG) AddMember(discordID int64, temporary bool) {
	if p.InRoster(discordID) {
		return
	}
	if temporary {
		p.TemporaryMembers = append(p.TemporaryMembers, discordID)
		return
	}
	p.ServerMembers = append(p.ServerMembers, discordID)
}

// RemoveMember drops a member from both rosters
func (p *PUG) RemoveMember(discordID int64) {
	p.ServerMembers = slices.DeleteFunc(p.ServerMembers, func(id int64) bool { return id == discordID })
	p.TemporaryMembers = slices.DeleteFunc(p.TemporaryMembers, func(id int64) bool { return id == discordID })
}
