package entities

import "slices"

// VoiceTemplate is a reusable set of voice channel permissions owned by a member
type VoiceTemplate struct {
	Name    string  `json:"name"`
	Private bool    `json:"private"`
	Allowed []int64 `json:"allowed"`
	Denied  []int64 `json:"denied"`
}

// Allow moves a member into the allowed set
func (t *VoiceTemplate) Allow(discordID int64) {
	t.Denied = removeID(t.Denied, discordID)
	if !slices.Contains(t.Allowed, discordID) {
		t.Allowed = append(t.Allowed, discordID)
	}
}

// Deny moves a member into the denied set
func (t *VoiceTemplate) Deny(discordID int64) {
	t.Allowed = removeID(t.Allowed, discordID)
	if !slices.Contains(t.Denied, discordID) {
		t.Denied = append(t.Denied, discordID)
	}
}

// Clear removes a member from both sets
func (t *VoiceTemplate) Clear(discordID int64) {
	t.Allowed = removeID(t.Allowed, discordID)
	t.Denied = removeID(t.Denied, discordID)
}

func removeID(ids []int64, id int64) []int64 {
	return slices.DeleteFunc(ids, func(v int64) bool { return v == id })
}
