package effects

import (
	"context"
	"sync"
	"testing"
	"time"

	"helios/domain/entities"
	"helios/domain/interfaces"
	"helios/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const guildID = int64(1)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeVoice tracks member voice state the way the platform would
type fakeVoice struct {
	mu       sync.Mutex
	states   map[int64]*interfaces.VoiceState
	channels map[int64]bool
	unmutes  int
}

func newFakeVoice() *fakeVoice {
	return &fakeVoice{states: make(map[int64]*interfaces.VoiceState), channels: make(map[int64]bool)}
}

func (f *fakeVoice) join(memberID, channelID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[memberID] = &interfaces.VoiceState{ChannelID: channelID}
}

func (f *fakeVoice) leave(memberID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, memberID)
}

func (f *fakeVoice) muted(memberID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[memberID]
	return ok && s.Mute
}

func (f *fakeVoice) VoiceState(_ context.Context, _, memberID int64) (*interfaces.VoiceState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[memberID]
	if !ok {
		return nil, nil
	}
	out := *s
	return &out, nil
}

func (f *fakeVoice) SetServerMute(_ context.Context, _, memberID int64, mute bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !mute {
		f.unmutes++
	}
	f.states[memberID].Mute = mute
	return nil
}

func (f *fakeVoice) SetServerDeaf(_ context.Context, _, memberID int64, deaf bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[memberID].Deaf = deaf
	return nil
}

func (f *fakeVoice) AddRole(context.Context, int64, int64, int64) error { return nil }
func (f *fakeVoice) RemoveRole(context.Context, int64, int64, int64) error { return nil }
func (f *fakeVoice) Members(context.Context, int64) ([]interfaces.GuildMember, error) {
	return nil, nil
}

func (f *fakeVoice) CreateVoiceChannel(context.Context, int64, string, int64) (int64, error) {
	return 0, nil
}
func (f *fakeVoice) DeleteChannel(context.Context, int64) error { return nil }
func (f *fakeVoice) RenameChannel(context.Context, int64, string) error { return nil }
func (f *fakeVoice) SetChannelPositions(context.Context, int64, []int64) error { return nil }
func (f *fakeVoice) SetChannelPermissions(context.Context, int64, int64, bool, []int64, []int64) error {
	return nil
}
func (f *fakeVoice) ChannelOccupants(context.Context, int64, int64) ([]interfaces.Occupant, error) {
	return nil, nil
}

func (f *fakeVoice) ChannelExists(_ context.Context, _, channelID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels[channelID]
}

// memoryEffects is an in-memory effect table
type memoryEffects struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]entities.Effect
	pending map[int64]entities.Effect
}

func newMemoryEffects() *memoryEffects {
	return &memoryEffects{rows: make(map[int64]entities.Effect), pending: make(map[int64]entities.Effect)}
}

func (r *memoryEffects) Create(_ context.Context, effect *entities.Effect) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	effect.ID = r.nextID
	r.rows[effect.ID] = *effect
	return nil
}

func (r *memoryEffects) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *memoryEffects) GetAll(context.Context) ([]*entities.Effect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.Effect, 0, len(r.rows))
	for _, row := range r.rows {
		c := row
		out = append(out, &c)
	}
	return out, nil
}

func (r *memoryEffects) SavePending(_ context.Context, effect *entities.Effect) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[effect.ID] = *effect
	return nil
}

func (r *memoryEffects) DeletePending(_ context.Context, effectID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, effectID)
	return nil
}

func (r *memoryEffects) GetPending(context.Context) ([]*entities.Effect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.Effect, 0, len(r.pending))
	for _, row := range r.pending {
		c := row
		out = append(out, &c)
	}
	return out, nil
}

func newTestEngine(repo interfaces.EffectRepository, voice *fakeVoice, clock *fakeClock) *Engine {
	return NewEngine(repo, DefaultBehaviors(voice, voice), voice, nil).WithClock(clock.Now)
}

func mute(target int64, seconds int, source *int64) *entities.Effect {
	return &entities.Effect{
		GuildID:    guildID,
		Kind:       entities.EffectMute,
		TargetType: entities.TargetMember,
		TargetID:   target,
		SourceID:   source,
		Duration:   time.Duration(seconds) * time.Second,
	}
}

func TestEngine_MuteReconcile(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	voice := newFakeVoice()
	repo := newMemoryEffects()
	engine := newTestEngine(repo, voice, clock)
	voice.join(5, 900)

	_, err := engine.Add(ctx, mute(5, 30, nil))
	require.NoError(t, err)

	clock.Advance(time.Second)
	engine.Tick(ctx)
	assert.True(t, voice.muted(5), "muted at t+1")

	// an observer unmutes out of band
	clock.Advance(4 * time.Second)
	require.NoError(t, voice.SetServerMute(ctx, guildID, 5, false))
	assert.False(t, voice.muted(5))

	clock.Advance(time.Second)
	engine.Tick(ctx)
	assert.True(t, voice.muted(5), "re-muted at t+6")

	clock.Advance(25 * time.Second)
	engine.Tick(ctx)
	assert.False(t, voice.muted(5), "unmuted at t+31")
	assert.Empty(t, repo.rows)

	clock.Advance(time.Second)
	engine.Tick(ctx)
	assert.False(t, voice.muted(5), "stays unmuted")
}

func TestEngine_RemoveLiftsOnce(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	voice := newFakeVoice()
	engine := newTestEngine(newMemoryEffects(), voice, clock)
	voice.join(5, 900)

	effect, err := engine.Add(ctx, mute(5, 60, nil))
	require.NoError(t, err)

	removed, err := engine.Remove(ctx, effect.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = engine.Remove(ctx, effect.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	clock.Advance(2 * time.Minute)
	engine.Tick(ctx)
	assert.Equal(t, 1, voice.unmutes)
}

func TestEngine_OverlappingMutesKeepState(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	voice := newFakeVoice()
	engine := newTestEngine(newMemoryEffects(), voice, clock)
	voice.join(5, 900)

	_, err := engine.Add(ctx, mute(5, 10, nil))
	require.NoError(t, err)
	_, err = engine.Add(ctx, mute(5, 60, nil))
	require.NoError(t, err)

	clock.Advance(11 * time.Second)
	engine.Tick(ctx)
	assert.True(t, voice.muted(5), "the longer mute still holds")

	clock.Advance(50 * time.Second)
	engine.Tick(ctx)
	assert.False(t, voice.muted(5))
}

func TestEngine_ShieldRejectsHarmful(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	voice := newFakeVoice()
	engine := newTestEngine(newMemoryEffects(), voice, clock)
	voice.join(5, 900)

	_, err := engine.Add(ctx, &entities.Effect{
		GuildID: guildID, Kind: entities.EffectShield, TargetType: entities.TargetMember,
		TargetID: 5, Duration: time.Hour,
	})
	require.NoError(t, err)

	_, err = engine.Add(ctx, mute(5, 30, nil))
	assert.ErrorIs(t, err, entities.ErrShielded)
	assert.False(t, voice.muted(5))
}

func TestEngine_ChannelShieldProtectsOccupants(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	voice := newFakeVoice()
	engine := newTestEngine(newMemoryEffects(), voice, clock)
	voice.channels[900] = true
	voice.join(5, 900)
	voice.join(6, 901)

	_, err := engine.Add(ctx, &entities.Effect{
		GuildID: guildID, Kind: entities.EffectChannelShield, TargetType: entities.TargetChannel,
		TargetID: 900, Duration: 10 * time.Minute,
	})
	require.NoError(t, err)

	_, err = engine.Add(ctx, mute(5, 30, nil))
	assert.ErrorIs(t, err, entities.ErrShielded)

	_, err = engine.Add(ctx, mute(6, 30, nil))
	assert.NoError(t, err)
}

func TestEngine_ChannelShieldEndsWithChannel(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	voice := newFakeVoice()
	repo := newMemoryEffects()
	engine := newTestEngine(repo, voice, clock)
	voice.channels[900] = true

	_, err := engine.Add(ctx, &entities.Effect{
		GuildID: guildID, Kind: entities.EffectChannelShield, TargetType: entities.TargetChannel,
		TargetID: 900, Duration: 10 * time.Minute,
	})
	require.NoError(t, err)

	engine.Tick(ctx)
	assert.Len(t, engine.Effects(), 1)

	voice.channels[900] = false
	engine.Tick(ctx)
	assert.Empty(t, engine.Effects())
	assert.Empty(t, repo.rows)
}

func TestEngine_DeflectorBouncesToSource(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	voice := newFakeVoice()
	engine := newTestEngine(newMemoryEffects(), voice, clock)
	voice.join(5, 900)
	voice.join(6, 900)

	_, err := engine.Add(ctx, &entities.Effect{
		GuildID: guildID, Kind: entities.EffectDeflector, TargetType: entities.TargetMember,
		TargetID: 5, Duration: time.Hour,
	})
	require.NoError(t, err)

	attacker := int64(6)
	effect, err := engine.Add(ctx, mute(5, 30, &attacker))
	require.NoError(t, err)

	assert.Equal(t, int64(6), effect.TargetID)
	assert.True(t, effect.Extras.Deflected)
	assert.True(t, voice.muted(6))
	assert.False(t, voice.muted(5))
	assert.Empty(t, engine.ActiveOn(guildID, entities.TargetMember, 5), "deflector is consumed")

	_, err = engine.Add(ctx, mute(5, 30, &attacker))
	require.NoError(t, err)
	assert.True(t, voice.muted(5))
}

func TestEngine_FetchAllPreservesTimeLeft(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	voice := newFakeVoice()
	repo := newMemoryEffects()
	voice.join(5, 900)

	first := newTestEngine(repo, voice, clock)
	_, err := first.Add(ctx, mute(5, 60, nil))
	require.NoError(t, err)

	clock.Advance(20 * time.Second)

	restarted := newTestEngine(repo, voice, clock)
	loaded, err := restarted.FetchAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, loaded)
	assert.Equal(t, 40*time.Second, restarted.Effects()[0].TimeLeft(clock.Now()))

	clock.Advance(41 * time.Second)
	restarted.Tick(ctx)
	assert.False(t, voice.muted(5))
	assert.Empty(t, repo.rows)
}

func TestEngine_PendingRestoreOnJoin(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	voice := newFakeVoice()
	engine := newTestEngine(newMemoryEffects(), voice, clock)
	voice.join(5, 900)

	_, err := engine.Add(ctx, mute(5, 10, nil))
	require.NoError(t, err)
	require.True(t, voice.muted(5))

	// server mute sticks to the member while they are away
	voice.mu.Lock()
	stuck := voice.states[5]
	delete(voice.states, 5)
	voice.mu.Unlock()

	clock.Advance(11 * time.Second)
	engine.Tick(ctx)
	assert.Empty(t, engine.Effects())

	voice.mu.Lock()
	voice.states[5] = stuck
	voice.mu.Unlock()
	assert.True(t, voice.muted(5))

	engine.OnVoiceJoin(ctx, guildID, 5)
	assert.False(t, voice.muted(5))
}

func TestEngine_PendingRemovalSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	voice := newFakeVoice()
	repo := newMemoryEffects()
	voice.join(5, 900)

	first := newTestEngine(repo, voice, clock)
	_, err := first.Add(ctx, mute(5, 10, nil))
	require.NoError(t, err)

	voice.mu.Lock()
	stuck := voice.states[5]
	delete(voice.states, 5)
	voice.mu.Unlock()

	clock.Advance(11 * time.Second)
	first.Tick(ctx)
	assert.Empty(t, repo.rows)
	assert.Len(t, repo.pending, 1)

	// the process restarts before the member comes back
	restarted := newTestEngine(repo, voice, clock)
	loaded, err := restarted.FetchAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, loaded)

	voice.mu.Lock()
	voice.states[5] = stuck
	voice.mu.Unlock()
	require.True(t, voice.muted(5))

	restarted.OnVoiceJoin(ctx, guildID, 5)
	assert.False(t, voice.muted(5))
	assert.Empty(t, repo.pending)

	restarted.OnVoiceJoin(ctx, guildID, 5)
	assert.Equal(t, 1, voice.unmutes)
}

func TestEngine_PendingRemovalRequeuedWhileAway(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	voice := newFakeVoice()
	repo := newMemoryEffects()
	engine := newTestEngine(repo, voice, clock)
	voice.join(5, 900)

	_, err := engine.Add(ctx, mute(5, 10, nil))
	require.NoError(t, err)
	voice.leave(5)

	clock.Advance(11 * time.Second)
	engine.Tick(ctx)
	require.Len(t, repo.pending, 1)

	// a join event that arrives before the voice state is visible
	engine.OnVoiceJoin(ctx, guildID, 5)
	assert.Len(t, repo.pending, 1)
}

func TestEngine_AddRejectsUnknownKindAndZeroDuration(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(newMemoryEffects(), newFakeVoice(), newFakeClock())

	_, err := engine.Add(ctx, &entities.Effect{Kind: "teleport", Duration: time.Second})
	assert.Error(t, err)

	_, err = engine.Add(ctx, mute(5, 0, nil))
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)
}

func TestEngine_PublishesLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	voice := newFakeVoice()
	publisher := new(testhelpers.MockEventPublisher)
	engine := NewEngine(newMemoryEffects(), DefaultBehaviors(voice, voice), voice, publisher).WithClock(clock.Now)
	voice.join(5, 900)

	publisher.On("Publish", mock.AnythingOfType("events.EffectAppliedEvent")).Return(nil).Once()
	publisher.On("Publish", mock.AnythingOfType("events.EffectRemovedEvent")).Return(nil).Once()

	effect, err := engine.Add(ctx, mute(5, 5, nil))
	require.NoError(t, err)
	_, err = engine.Remove(ctx, effect.ID)
	require.NoError(t, err)

	publisher.AssertExpectations(t)
}
