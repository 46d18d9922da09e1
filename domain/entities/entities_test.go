package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMember_SetPointsClamps(t *testing.T) {
	m := &Member{Points: 10}
	m.SetPoints(-5)
	assert.Equal(t, int64(0), m.Points)

	m.SetPoints(25)
	assert.Equal(t, int64(25), m.Points)
}

func TestMember_Flags(t *testing.T) {
	m := &Member{}
	m.SetFlag(FlagAdmin, true)
	m.SetFlag(FlagAdmin, true)
	assert.Equal(t, []string{FlagAdmin}, m.Flags)
	assert.True(t, m.HasFlag(FlagAdmin))

	m.SetFlag(FlagAdmin, false)
	assert.False(t, m.HasFlag(FlagAdmin))
	assert.Empty(t, m.Flags)
}

func TestMember_Templates(t *testing.T) {
	m := &Member{}
	m.SaveTemplate(VoiceTemplate{Name: "squad", Private: true})
	m.SaveTemplate(VoiceTemplate{Name: "squad", Private: false})
	require.Len(t, m.Templates, 1)
	assert.False(t, m.Template("squad").Private)

	assert.True(t, m.DeleteTemplate("squad"))
	assert.False(t, m.DeleteTemplate("squad"))
}

func TestVoiceTemplate_AllowDenyExclusive(t *testing.T) {
	tpl := VoiceTemplate{Name: "t"}
	tpl.Allow(1)
	tpl.Deny(1)
	assert.Empty(t, tpl.Allowed)
	assert.Equal(t, []int64{1}, tpl.Denied)

	tpl.Allow(1)
	assert.Equal(t, []int64{1}, tpl.Allowed)
	assert.Empty(t, tpl.Denied)
}

func TestDynamicVoiceGroup_Validate(t *testing.T) {
	valid := DynamicVoiceGroup{Min: 2, MinEmpty: 1, Max: 5, Template: "Voice {n}", GameTemplate: "{g} {n}"}
	require.NoError(t, valid.Validate())

	cases := map[string]func(g *DynamicVoiceGroup){
		"min above max":       func(g *DynamicVoiceGroup) { g.Min = 6 },
		"negative min":        func(g *DynamicVoiceGroup) { g.Min = -1 },
		"min empty above max": func(g *DynamicVoiceGroup) { g.MinEmpty = 6 },
		"template missing n":  func(g *DynamicVoiceGroup) { g.Template = "Voice" },
		"game missing g":      func(g *DynamicVoiceGroup) { g.GameTemplate = "Game {n}" },
		"game missing n":      func(g *DynamicVoiceGroup) { g.GameTemplate = "{g}" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			g := valid
			mutate(&g)
			assert.ErrorIs(t, g.Validate(), ErrInvalidGroup)
		})
	}
}

func TestDynamicVoiceGroup_ChannelName(t *testing.T) {
	g := DynamicVoiceGroup{Template: "Voice {n}", GameTemplate: "{g} #{n}"}
	assert.Equal(t, "Voice 3", g.ChannelName(3, ""))
	assert.Equal(t, "Minecraft #3", g.ChannelName(3, "Minecraft"))
}

func TestTimeSlot_OverlapsHalfOpen(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	slot := TimeSlot{Start: t0, End: t0.Add(time.Minute)}

	assert.True(t, slot.Overlaps(t0.Add(30*time.Second), t0.Add(90*time.Second)))
	assert.False(t, slot.Overlaps(t0.Add(time.Minute), t0.Add(2*time.Minute)))
	assert.False(t, slot.Overlaps(t0.Add(-time.Minute), t0))
	assert.True(t, slot.Overlaps(t0.Add(-time.Minute), t0.Add(2*time.Minute)))
}

func TestEffect_TimeLeft(t *testing.T) {
	t0 := time.Now()
	e := Effect{Duration: 30 * time.Second}
	assert.Equal(t, 30*time.Second, e.TimeLeft(t0))

	e.AppliedAt = t0
	assert.Equal(t, 20*time.Second, e.TimeLeft(t0.Add(10*time.Second)))
	assert.False(t, e.Expired(t0.Add(29*time.Second)))
	assert.True(t, e.Expired(t0.Add(30*time.Second)))
}

func TestEffectKind_Harmful(t *testing.T) {
	assert.True(t, EffectMute.Harmful())
	assert.True(t, EffectDeafen.Harmful())
	assert.False(t, EffectShield.Harmful())
	assert.False(t, EffectChannelShield.Harmful())
}

func TestStoreItem_Clamp(t *testing.T) {
	item := StoreItem{Price: 500, MinPrice: 50, MaxPrice: 200, Stock: 1, MinStock: 5, MaxStock: 30, Quantity: 9}
	item.Clamp()
	assert.Equal(t, int64(200), item.Price)
	assert.Equal(t, int64(5), item.Stock)
	assert.Equal(t, int64(5), item.Quantity)
}

func TestInventory_AddRemove(t *testing.T) {
	inv := &Inventory{}
	inv.Add(Item{Name: ItemShield, DisplayName: "Shield", Quantity: 2})
	inv.Add(Item{Name: ItemShield, DisplayName: "Shield", Quantity: 1})
	require.NotNil(t, inv.Get(ItemShield))
	assert.Equal(t, int64(3), inv.Get(ItemShield).Quantity)

	assert.False(t, inv.Remove(ItemShield, 4))
	assert.True(t, inv.Remove(ItemShield, 3))
	assert.Nil(t, inv.Get(ItemShield))
}

func TestViolation_Advance(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	v := &Violation{State: ViolationNew, DueDate: t0.Add(7 * 24 * time.Hour)}

	assert.False(t, v.Advance(t0.Add(6*24*time.Hour)))
	assert.True(t, v.Advance(t0.Add(7*24*time.Hour)))
	assert.Equal(t, ViolationDue, v.State)

	assert.False(t, v.Advance(t0.Add(8*24*time.Hour)))
	assert.True(t, v.Advance(t0.Add(9*24*time.Hour)))
	assert.Equal(t, ViolationIllegal, v.State)

	assert.False(t, v.Advance(t0.Add(30*24*time.Hour)))
	v.State = ViolationPaid
	assert.False(t, v.Advance(t0.Add(30*24*time.Hour)))
	assert.True(t, v.Settled())
}

func TestPUG_Roster(t *testing.T) {
	p := &PUG{}
	p.AddMember(1, false)
	p.AddMember(2, true)
	p.AddMember(1, true)
	assert.ElementsMatch(t, []int64{1, 2}, p.Roster())
	assert.True(t, p.InRoster(2))

	p.RemoveMember(2)
	assert.False(t, p.InRoster(2))
}

func TestGuildSettings_ID(t *testing.T) {
	s := &GuildSettings{}
	assert.Equal(t, int64(0), s.ID(SettingDynamicVoiceCategory))

	s.SetID(SettingDynamicVoiceCategory, 1234567890123)
	assert.Equal(t, int64(1234567890123), s.ID(SettingDynamicVoiceCategory))

	// JSON round trips turn numbers into float64
	s.Settings[SettingMusicChannel] = float64(42)
	assert.Equal(t, int64(42), s.ID(SettingMusicChannel))

	s.SetID(SettingDynamicVoiceCategory, 0)
	_, ok := s.Settings[SettingDynamicVoiceCategory]
	assert.False(t, ok)
}
