package repository

import (
	"context"
	"testing"

	"helios/domain/entities"
	"helios/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicVoiceRepository_GroupsAndChannels(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewDynamicVoiceRepository(testDB.DB, testGuildID)
	ctx := context.Background()

	lobby := testutil.CreateTestGroup("Lobby", 1, 1, 5)
	lobby.Position = 2
	require.NoError(t, repo.CreateGroup(ctx, lobby))
	squads := testutil.CreateTestGroup("Squad", 0, 1, 3)
	squads.Position = 1
	require.NoError(t, repo.CreateGroup(ctx, squads))

	groups, err := repo.GetGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Squad", groups[0].Name)
	assert.Equal(t, "Lobby {n}", groups[1].Template)

	t.Run("schema rejects min above max", func(t *testing.T) {
		assert.Error(t, repo.CreateGroup(ctx, testutil.CreateTestGroup("Broken", 4, 0, 2)))
	})

	owner := int64(77)
	name := "raid night"
	require.NoError(t, repo.CreateChannel(ctx, &entities.DynamicVoiceChannel{ChannelID: 1001, GroupID: lobby.ID, Number: 1}))
	require.NoError(t, repo.CreateChannel(ctx, &entities.DynamicVoiceChannel{ChannelID: 1002, GroupID: lobby.ID, Number: 2}))
	require.NoError(t, repo.CreateChannel(ctx, &entities.DynamicVoiceChannel{ChannelID: 2001, GroupID: squads.ID, Number: 1}))

	t.Run("numbers are unique within a group", func(t *testing.T) {
		assert.Error(t, repo.CreateChannel(ctx, &entities.DynamicVoiceChannel{ChannelID: 1003, GroupID: lobby.ID, Number: 2}))
	})

	require.NoError(t, repo.UpdateChannel(ctx, &entities.DynamicVoiceChannel{
		ChannelID:  1002,
		GroupID:    lobby.ID,
		Number:     2,
		OwnerID:    &owner,
		Private:    true,
		CustomName: &name,
	}))

	channels, err := repo.GetChannels(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 3)
	var claimed *entities.DynamicVoiceChannel
	for _, c := range channels {
		if c.ChannelID == 1002 {
			claimed = c
		}
	}
	require.NotNil(t, claimed)
	require.NotNil(t, claimed.OwnerID)
	assert.Equal(t, owner, *claimed.OwnerID)
	assert.True(t, claimed.Private)
	assert.Equal(t, name, *claimed.CustomName)

	lobby.Max = 8
	require.NoError(t, repo.UpdateGroup(ctx, lobby))

	require.NoError(t, repo.DeleteGroup(ctx, lobby.ID))
	channels, err = repo.GetChannels(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 1, "deleting a group drops its channels")
	assert.Equal(t, int64(2001), channels[0].ChannelID)

	require.NoError(t, repo.DeleteAllChannels(ctx))
	channels, err = repo.GetChannels(ctx)
	require.NoError(t, err)
	assert.Empty(t, channels)

	assert.ErrorIs(t, repo.UpdateGroup(ctx, lobby), entities.ErrNotFound)
}
