package testutil

import (
	"time"

	"helios/domain/entities"
)

// CreateTestViolation creates an unpaid violation due after the given delay
func CreateTestViolation(userID, cost int64, due time.Duration) *entities.Violation {
	return &entities.Violation{
		UserID:      userID,
		Kind:        entities.ViolationKindGeneric,
		Cost:        cost,
		Description: "test violation",
		DueDate:     time.Now().UTC().Add(due).Truncate(time.Microsecond),
		State:       entities.ViolationNew,
	}
}

// CreateTestGroup creates a valid dynamic voice group
func CreateTestGroup(name string, minChannels, minEmpty, maxChannels int) *entities.DynamicVoiceGroup {
	return &entities.DynamicVoiceGroup{
		Name:         name,
		Min:          minChannels,
		MinEmpty:     minEmpty,
		Max:          maxChannels,
		Template:     name + " {n}",
		GameTemplate: "{g} {n}",
	}
}

// CreateTestTheme creates a theme with two ranks
func CreateTestTheme(ownerID int64, name string) *entities.Theme {
	return &entities.Theme{
		OwnerID:        ownerID,
		Name:           name,
		ScoreStatistic: entities.StatPoints,
		Ranks: []entities.ThemeRank{
			{Name: "Gold", RoleID: 9001, Color: 0xFFD700, Maximum: 1},
			{Name: "Iron", RoleID: 9002, Color: 0x888888},
		},
		Editable: true,
	}
}
