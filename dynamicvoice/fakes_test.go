package dynamicvoice

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"helios/domain/entities"
	"helios/domain/interfaces"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

type fakeChannel struct {
	name      string
	occupants []interfaces.Occupant
	private   bool
	allowed   []int64
}

type rename struct {
	channelID int64
	name      string
	at        time.Time
}

// fakeGuild is an in-memory platform guild covering channels, roles and
// invites
type fakeGuild struct {
	mu            sync.Mutex
	clock         *fakeClock
	nextID        int64
	channels      map[int64]*fakeChannel
	positions     []int64
	positionCalls int
	renames       []rename
	roles         map[int64][]int64
	invites       map[string]int64
	failInvite    bool
}

func newFakeGuild(clock *fakeClock) *fakeGuild {
	return &fakeGuild{
		clock:    clock,
		nextID:   1000,
		channels: make(map[int64]*fakeChannel),
		roles:    make(map[int64][]int64),
		invites:  make(map[string]int64),
	}
}

func (g *fakeGuild) occupy(channelID, memberID int64, game string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := g.channels[channelID]
	ch.occupants = append(ch.occupants, interfaces.Occupant{DiscordID: memberID, Game: game})
}

func (g *fakeGuild) setGame(channelID int64, game string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.channels[channelID].occupants {
		g.channels[channelID].occupants[i].Game = game
	}
}

func (g *fakeGuild) vacate(channelID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[channelID].occupants = nil
}

func (g *fakeGuild) channel(channelID int64) *fakeChannel {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.channels[channelID]
}

func (g *fakeGuild) holders(roleID int64) []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.roles[roleID])
}

func (g *fakeGuild) CreateVoiceChannel(_ context.Context, _ int64, name string, _ int64) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	g.channels[g.nextID] = &fakeChannel{name: name}
	return g.nextID, nil
}

func (g *fakeGuild) DeleteChannel(_ context.Context, channelID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.channels, channelID)
	return nil
}

func (g *fakeGuild) RenameChannel(_ context.Context, channelID int64, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[channelID].name = name
	g.renames = append(g.renames, rename{channelID: channelID, name: name, at: g.clock.Now()})
	return nil
}

func (g *fakeGuild) SetChannelPositions(_ context.Context, _ int64, channelIDs []int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.positions = slices.Clone(channelIDs)
	g.positionCalls++
	return nil
}

func (g *fakeGuild) ChannelOccupants(_ context.Context, _, channelID int64) ([]interfaces.Occupant, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.channels[channelID]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	return slices.Clone(ch.occupants), nil
}

func (g *fakeGuild) ChannelExists(_ context.Context, _, channelID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.channels[channelID]
	return ok
}

func (g *fakeGuild) SetChannelPermissions(_ context.Context, _, channelID int64, private bool, allowed, _ []int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := g.channels[channelID]
	ch.private = private
	ch.allowed = slices.Clone(allowed)
	return nil
}

func (g *fakeGuild) CreateRole(context.Context, int64, string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	g.roles[g.nextID] = nil
	return g.nextID, nil
}

func (g *fakeGuild) DeleteRole(_ context.Context, _, roleID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.roles, roleID)
	return nil
}

func (g *fakeGuild) RoleMembers(_ context.Context, _, roleID int64) ([]int64, error) {
	return g.holders(roleID), nil
}

func (g *fakeGuild) CreateInvite(_ context.Context, channelID int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failInvite {
		return "", errors.New("missing permissions")
	}
	code := "inv" + strconv.FormatInt(channelID, 10)
	g.invites[code] = channelID
	return code, nil
}

func (g *fakeGuild) DeleteInvite(_ context.Context, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.invites, code)
	return nil
}

func (g *fakeGuild) VoiceState(context.Context, int64, int64) (*interfaces.VoiceState, error) {
	return nil, nil
}

func (g *fakeGuild) SetServerMute(context.Context, int64, int64, bool) error { return nil }
func (g *fakeGuild) SetServerDeaf(context.Context, int64, int64, bool) error { return nil }

func (g *fakeGuild) AddRole(_ context.Context, _, memberID, roleID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !slices.Contains(g.roles[roleID], memberID) {
		g.roles[roleID] = append(g.roles[roleID], memberID)
	}
	return nil
}

func (g *fakeGuild) RemoveRole(_ context.Context, _, memberID, roleID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roles[roleID] = slices.DeleteFunc(g.roles[roleID], func(id int64) bool { return id == memberID })
	return nil
}

func (g *fakeGuild) Members(context.Context, int64) ([]interfaces.GuildMember, error) {
	return nil, nil
}

// memoryVoiceRepo is an in-memory DynamicVoiceRepository
type memoryVoiceRepo struct {
	mu       sync.Mutex
	nextID   int64
	groups   []*entities.DynamicVoiceGroup
	channels map[int64]entities.DynamicVoiceChannel
}

func newMemoryVoiceRepo() *memoryVoiceRepo {
	return &memoryVoiceRepo{channels: make(map[int64]entities.DynamicVoiceChannel)}
}

func (r *memoryVoiceRepo) GetGroups(context.Context) ([]*entities.DynamicVoiceGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.DynamicVoiceGroup, 0, len(r.groups))
	for _, g := range r.groups {
		copied := *g
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memoryVoiceRepo) CreateGroup(_ context.Context, group *entities.DynamicVoiceGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	group.ID = r.nextID
	copied := *group
	r.groups = append(r.groups, &copied)
	return nil
}

func (r *memoryVoiceRepo) UpdateGroup(_ context.Context, group *entities.DynamicVoiceGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, g := range r.groups {
		if g.ID == group.ID {
			copied := *group
			r.groups[i] = &copied
		}
	}
	return nil
}

func (r *memoryVoiceRepo) DeleteGroup(_ context.Context, groupID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = slices.DeleteFunc(r.groups, func(g *entities.DynamicVoiceGroup) bool { return g.ID == groupID })
	return nil
}

func (r *memoryVoiceRepo) GetChannels(context.Context) ([]*entities.DynamicVoiceChannel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.DynamicVoiceChannel, 0, len(r.channels))
	for _, id := range slices.Sorted(maps.Keys(r.channels)) {
		copied := r.channels[id]
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memoryVoiceRepo) CreateChannel(_ context.Context, channel *entities.DynamicVoiceChannel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[channel.ChannelID] = *channel
	return nil
}

func (r *memoryVoiceRepo) UpdateChannel(_ context.Context, channel *entities.DynamicVoiceChannel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[channel.ChannelID] = *channel
	return nil
}

func (r *memoryVoiceRepo) DeleteChannel(_ context.Context, channelID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, channelID)
	return nil
}

func (r *memoryVoiceRepo) DeleteAllChannels(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.channels)
	return nil
}

// memoryPugs is an in-memory PugRepository storing copies
type memoryPugs struct {
	mu     sync.Mutex
	nextID int64
	pugs   map[int64]entities.PUG
}

func newMemoryPugs() *memoryPugs {
	return &memoryPugs{pugs: make(map[int64]entities.PUG)}
}

func clonePUG(p entities.PUG) *entities.PUG {
	p.ServerMembers = slices.Clone(p.ServerMembers)
	p.TemporaryMembers = slices.Clone(p.TemporaryMembers)
	return &p
}

func (r *memoryPugs) GetByChannel(_ context.Context, channelID int64) (*entities.PUG, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pugs {
		if p.ChannelID == channelID {
			return clonePUG(p), nil
		}
	}
	return nil, nil
}

func (r *memoryPugs) GetAll(context.Context) ([]*entities.PUG, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.PUG
	for _, id := range slices.Sorted(maps.Keys(r.pugs)) {
		out = append(out, clonePUG(r.pugs[id]))
	}
	return out, nil
}

func (r *memoryPugs) Create(_ context.Context, pug *entities.PUG) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	pug.ID = r.nextID
	r.pugs[pug.ID] = *clonePUG(*pug)
	return nil
}

func (r *memoryPugs) Update(_ context.Context, pug *entities.PUG) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pugs[pug.ID] = *clonePUG(*pug)
	return nil
}

func (r *memoryPugs) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pugs, id)
	return nil
}

func (r *memoryPugs) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pugs)
}
