package guilds

import (
	"context"
	"testing"
	"time"

	"helios/domain/entities"
	"helios/domain/interfaces"
	"helios/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopPlatform struct{}

func (nopPlatform) VoiceState(context.Context, int64, int64) (*interfaces.VoiceState, error) {
	return nil, nil
}
func (nopPlatform) SetServerMute(context.Context, int64, int64, bool) error { return nil }
func (nopPlatform) SetServerDeaf(context.Context, int64, int64, bool) error { return nil }
func (nopPlatform) AddRole(context.Context, int64, int64, int64) error { return nil }
func (nopPlatform) RemoveRole(context.Context, int64, int64, int64) error { return nil }
func (nopPlatform) Members(context.Context, int64) ([]interfaces.GuildMember, error) {
	return nil, nil
}
func (nopPlatform) CreateVoiceChannel(context.Context, int64, string, int64) (int64, error) {
	return 1, nil
}
func (nopPlatform) DeleteChannel(context.Context, int64) error { return nil }
func (nopPlatform) RenameChannel(context.Context, int64, string) error { return nil }
func (nopPlatform) SetChannelPositions(context.Context, int64, []int64) error { return nil }
func (nopPlatform) ChannelExists(context.Context, int64, int64) bool { return true }
func (nopPlatform) CreateRole(context.Context, int64, string) (int64, error) { return 1, nil }
func (nopPlatform) DeleteRole(context.Context, int64, int64) error { return nil }
func (nopPlatform) RoleMembers(context.Context, int64, int64) ([]int64, error) { return nil, nil }
func (nopPlatform) CreateInvite(context.Context, int64) (string, error) { return "code", nil }
func (nopPlatform) DeleteInvite(context.Context, string) error { return nil }
func (nopPlatform) JoinVoice(context.Context, int64, int64) error { return nil }
func (nopPlatform) LeaveVoice(context.Context, int64) error { return nil }
func (nopPlatform) ChannelOccupants(context.Context, int64, int64) ([]interfaces.Occupant, error) {
	return nil, nil
}
func (nopPlatform) SetChannelPermissions(context.Context, int64, int64, bool, []int64, []int64) error {
	return nil
}

type emptyVoiceRepo struct{}

func (emptyVoiceRepo) GetGroups(context.Context) ([]*entities.DynamicVoiceGroup, error) {
	return nil, nil
}
func (emptyVoiceRepo) CreateGroup(context.Context, *entities.DynamicVoiceGroup) error { return nil }
func (emptyVoiceRepo) UpdateGroup(context.Context, *entities.DynamicVoiceGroup) error { return nil }
func (emptyVoiceRepo) DeleteGroup(context.Context, int64) error { return nil }
func (emptyVoiceRepo) GetChannels(context.Context) ([]*entities.DynamicVoiceChannel, error) {
	return nil, nil
}
func (emptyVoiceRepo) CreateChannel(context.Context, *entities.DynamicVoiceChannel) error {
	return nil
}
func (emptyVoiceRepo) UpdateChannel(context.Context, *entities.DynamicVoiceChannel) error {
	return nil
}
func (emptyVoiceRepo) DeleteChannel(context.Context, int64) error { return nil }
func (emptyVoiceRepo) DeleteAllChannels(context.Context) error { return nil }

type emptyPugRepo struct{}

func (emptyPugRepo) GetByChannel(context.Context, int64) (*entities.PUG, error) { return nil, nil }
func (emptyPugRepo) GetAll(context.Context) ([]*entities.PUG, error) { return nil, nil }
func (emptyPugRepo) Create(context.Context, *entities.PUG) error { return nil }
func (emptyPugRepo) Update(context.Context, *entities.PUG) error { return nil }
func (emptyPugRepo) Delete(context.Context, int64) error { return nil }

type emptyRepos struct{}

func (emptyRepos) DynamicVoiceRepository(int64) interfaces.DynamicVoiceRepository {
	return emptyVoiceRepo{}
}
func (emptyRepos) PugRepository(int64) interfaces.PugRepository { return emptyPugRepo{} }

func newTestRegistry() *Registry {
	return NewRegistry(nopPlatform{}, emptyRepos{}, services.NewCooldowns(), nil, nil)
}

func TestRegistry_EnsureIsIdempotent(t *testing.T) {
	r := newTestRegistry()
	t.Cleanup(r.Close)
	ctx := context.Background()

	first, err := r.Ensure(ctx, 100, 7)
	require.NoError(t, err)
	second, err := r.Ensure(ctx, 100, 9)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(7), second.CategoryID)

	got, ok := r.Get(100)
	require.True(t, ok)
	assert.Same(t, first, got)

	_, ok = r.Get(200)
	assert.False(t, ok)
}

func TestRegistry_ReloadReplacesRuntime(t *testing.T) {
	r := newTestRegistry()
	t.Cleanup(r.Close)
	ctx := context.Background()

	first, err := r.Ensure(ctx, 100, 7)
	require.NoError(t, err)
	second, err := r.Reload(ctx, 100, 9)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, int64(9), second.CategoryID)
}

func TestRegistry_Close(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	_, err := r.Ensure(ctx, 100, 0)
	require.NoError(t, err)
	_, err = r.Ensure(ctx, 200, 0)
	require.NoError(t, err)

	r.Close()

	_, ok := r.Get(100)
	assert.False(t, ok)
	_, ok = r.Get(200)
	assert.False(t, ok)
}

func TestRegistry_MusicSlotBooking(t *testing.T) {
	r := newTestRegistry()
	t.Cleanup(r.Close)

	rt, err := r.Ensure(context.Background(), 100, 0)
	require.NoError(t, err)

	slot, err := rt.Music.Book(55, time.Minute, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(55), slot.Data["channel_id"])
}
