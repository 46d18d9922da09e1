package dynamicvoice

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"strconv"
	"sync"
	"time"

	"helios/config"
	"helios/domain/entities"
	"helios/domain/interfaces"
	"helios/domain/services"
	"helios/events"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultPassInterval is how often the manager reshapes groups unprompted
	DefaultPassInterval = 30 * time.Second

	renameNamespace = "voice_rename"
)

// PassResult summarises one shape pass
type PassResult struct {
	Created  int
	Deleted  int
	Renamed  int
	Deferred int
}

// Manager keeps each dynamic voice group at its declared shape: enough
// channels for the minimum, some empty ones for newcomers, never more than
// the maximum. It also names, orders and locks channels and runs pick-up
// groups on top of them.
type Manager struct {
	guildID    int64
	categoryID int64
	repo       interfaces.DynamicVoiceRepository
	pugs       interfaces.PugRepository
	channels   interfaces.ChannelPlatform
	roles      interfaces.GroupPlatform
	members    interfaces.MemberPlatform
	cooldowns  *services.Cooldowns
	publisher  interfaces.EventPublisher
	now        func() time.Time
	interval   time.Duration
	trigger    chan struct{}

	mu        sync.Mutex
	groups    []*entities.DynamicVoiceGroup
	voices    map[int64]*entities.DynamicVoiceChannel
	names     map[int64]string
	lastOrder []int64
}

// NewManager creates a manager for one guild. New channels are created
// under categoryID.
func NewManager(
	guildID, categoryID int64,
	repo interfaces.DynamicVoiceRepository,
	pugs interfaces.PugRepository,
	channels interfaces.ChannelPlatform,
	roles interfaces.GroupPlatform,
	members interfaces.MemberPlatform,
	cooldowns *services.Cooldowns,
	publisher interfaces.EventPublisher,
) *Manager {
	if cooldowns == nil {
		cooldowns = services.NewCooldowns()
	}
	return &Manager{
		guildID:    guildID,
		categoryID: categoryID,
		repo:       repo,
		pugs:       pugs,
		channels:   channels,
		roles:      roles,
		members:    members,
		cooldowns:  cooldowns,
		publisher:  publisher,
		now:        time.Now,
		interval:   DefaultPassInterval,
		trigger:    make(chan struct{}, 1),
		voices:     make(map[int64]*entities.DynamicVoiceChannel),
		names:      make(map[int64]string),
	}
}

// WithClock replaces the time source, for tests
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Load reads groups and channels from storage. Channels that vanished from
// the platform or lost their group while the bot was down are forgotten.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups, err := m.repo.GetGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dynamic voice groups: %w", err)
	}
	slices.SortStableFunc(groups, func(a, b *entities.DynamicVoiceGroup) int { return a.Position - b.Position })
	m.groups = groups

	channels, err := m.repo.GetChannels(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dynamic voice channels: %w", err)
	}

	clear(m.voices)
	for _, ch := range channels {
		if m.groupLocked(ch.GroupID) == nil || !m.channels.ChannelExists(ctx, m.guildID, ch.ChannelID) {
			if err := m.repo.DeleteChannel(ctx, ch.ChannelID); err != nil {
				log.WithField("channelID", ch.ChannelID).Warnf("Failed to forget stale dynamic voice channel: %v", err)
			}
			continue
		}
		m.voices[ch.ChannelID] = ch
	}

	log.WithFields(log.Fields{
		"guildID":  m.guildID,
		"groups":   len(m.groups),
		"channels": len(m.voices),
	}).Info("Loaded dynamic voice")
	return nil
}

// Groups returns the groups in position order
func (m *Manager) Groups() []entities.DynamicVoiceGroup {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entities.DynamicVoiceGroup, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, *g)
	}
	return out
}

// Channels returns the managed channels ordered by group then number
func (m *Manager) Channels() []entities.DynamicVoiceChannel {
	m.mu.Lock()
	defer m.mu.Unlock()
	ordered := m.orderedLocked()
	out := make([]entities.DynamicVoiceChannel, 0, len(ordered))
	for _, ch := range ordered {
		out = append(out, *ch)
	}
	return out
}

// Channel returns a managed channel by platform id
func (m *Manager) Channel(channelID int64) (entities.DynamicVoiceChannel, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.voices[channelID]
	if !ok {
		return entities.DynamicVoiceChannel{}, false
	}
	return *ch, true
}

// IsManaged reports whether the channel belongs to a group
func (m *Manager) IsManaged(channelID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.voices[channelID]
	return ok
}

// CreateGroup validates and stores a new group after the existing ones
func (m *Manager) CreateGroup(ctx context.Context, group *entities.DynamicVoiceGroup) error {
	if err := group.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	group.GuildID = m.guildID
	group.Position = 0
	if n := len(m.groups); n > 0 {
		group.Position = m.groups[n-1].Position + 1
	}
	if err := m.repo.CreateGroup(ctx, group); err != nil {
		return fmt.Errorf("failed to create dynamic voice group: %w", err)
	}
	m.groups = append(m.groups, group)

	log.WithFields(log.Fields{
		"guildID": m.guildID,
		"groupID": group.ID,
		"name":    group.Name,
	}).Info("Created dynamic voice group")
	m.Trigger()
	return nil
}

// UpdateGroup replaces a group's bounds and templates
func (m *Manager) UpdateGroup(ctx context.Context, group *entities.DynamicVoiceGroup) error {
	if err := group.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.groupLocked(group.ID)
	if existing == nil {
		return fmt.Errorf("dynamic voice group %d: %w", group.ID, entities.ErrNotFound)
	}
	group.GuildID = m.guildID
	group.Position = existing.Position
	if err := m.repo.UpdateGroup(ctx, group); err != nil {
		return fmt.Errorf("failed to update dynamic voice group: %w", err)
	}
	*existing = *group
	m.Trigger()
	return nil
}

// DeleteGroup removes a group and deletes all of its channels
func (m *Manager) DeleteGroup(ctx context.Context, groupID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.groupLocked(groupID) == nil {
		return fmt.Errorf("dynamic voice group %d: %w", groupID, entities.ErrNotFound)
	}
	for id, ch := range m.voices {
		if ch.GroupID == groupID {
			m.deleteChannelLocked(ctx, id)
		}
	}
	if err := m.repo.DeleteGroup(ctx, groupID); err != nil {
		return fmt.Errorf("failed to delete dynamic voice group: %w", err)
	}
	m.groups = slices.DeleteFunc(m.groups, func(g *entities.DynamicVoiceGroup) bool { return g.ID == groupID })
	return nil
}

// Reset deletes every managed channel; the next pass rebuilds the groups
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range m.voices {
		if err := m.channels.DeleteChannel(ctx, id); err != nil {
			log.WithField("channelID", id).Warnf("Failed to delete dynamic voice channel: %v", err)
		}
	}
	if err := m.repo.DeleteAllChannels(ctx); err != nil {
		return fmt.Errorf("failed to clear dynamic voice channels: %w", err)
	}
	clear(m.voices)
	clear(m.names)
	m.lastOrder = nil

	log.WithField("guildID", m.guildID).Info("Reset dynamic voice channels")
	m.Trigger()
	return nil
}

// Pass runs one shape pass: all creates, then all deletes, then ordering,
// then renames. Renames on cooldown are deferred to a later pass.
func (m *Manager) Pass(ctx context.Context) PassResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result PassResult
	occupants := m.occupancyLocked(ctx)
	m.releaseEmptyLocked(ctx, occupants)

	deficits := make(map[int64]int)
	for _, group := range m.groups {
		total, empty := 0, 0
		for _, ch := range m.voices {
			if ch.GroupID != group.ID {
				continue
			}
			total++
			if len(occupants[ch.ChannelID]) == 0 {
				empty++
			}
		}
		delta := ShapeDelta(group, total, empty)
		if delta < 0 {
			deficits[group.ID] = -delta
		}
		for range max(delta, 0) {
			if err := m.createChannelLocked(ctx, group); err != nil {
				log.WithField("groupID", group.ID).Errorf("Failed to create dynamic voice channel: %v", err)
				break
			}
			result.Created++
		}
	}

	for _, group := range m.groups {
		surplus := deficits[group.ID]
		if surplus == 0 {
			continue
		}
		var empties []*entities.DynamicVoiceChannel
		for _, ch := range m.voices {
			if ch.GroupID == group.ID && len(occupants[ch.ChannelID]) == 0 && ch.OwnerID == nil {
				empties = append(empties, ch)
			}
		}
		slices.SortFunc(empties, func(a, b *entities.DynamicVoiceChannel) int { return b.Number - a.Number })
		for _, ch := range empties[:min(surplus, len(empties))] {
			if m.deleteChannelLocked(ctx, ch.ChannelID) {
				result.Deleted++
			}
		}
	}

	m.sortLocked(ctx)
	result.Renamed, result.Deferred = m.renameLocked(ctx, occupants)

	if result.Created > 0 || result.Deleted > 0 {
		log.WithFields(log.Fields{
			"guildID": m.guildID,
			"created": result.Created,
			"deleted": result.Deleted,
		}).Info("Reshaped dynamic voice")
		m.publish(events.DynamicVoiceReshapedEvent{
			GuildID: m.guildID,
			Created: result.Created,
			Deleted: result.Deleted,
		})
	}
	return result
}

// Lock gives ownership of a channel to a member in it
func (m *Manager) Lock(ctx context.Context, channelID, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.voices[channelID]
	if !ok {
		return fmt.Errorf("channel %d is not a dynamic voice channel: %w", channelID, entities.ErrNotFound)
	}
	if ch.OwnerID != nil && *ch.OwnerID != ownerID {
		return fmt.Errorf("channel %d is owned by %d: %w", channelID, *ch.OwnerID, entities.ErrInvalidState)
	}
	owner := ownerID
	ch.OwnerID = &owner
	if err := m.repo.UpdateChannel(ctx, ch); err != nil {
		return fmt.Errorf("failed to lock channel: %w", err)
	}
	return nil
}

// Unlock returns an owned channel to the pool
func (m *Manager) Unlock(ctx context.Context, channelID, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, err := m.ownedLocked(channelID, ownerID)
	if err != nil {
		return err
	}
	return m.unlockLocked(ctx, ch)
}

// ApplyTemplate puts an owner's template on their channel: its name, its
// privacy and its allowed and denied members
func (m *Manager) ApplyTemplate(ctx context.Context, channelID, ownerID int64, template entities.VoiceTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, err := m.ownedLocked(channelID, ownerID)
	if err != nil {
		return err
	}
	allowed := append(slices.Clone(template.Allowed), ownerID)
	if err := m.channels.SetChannelPermissions(ctx, m.guildID, channelID, template.Private, allowed, template.Denied); err != nil {
		return fmt.Errorf("failed to apply channel permissions: %w", err)
	}
	ch.ApplyTemplate(template)
	if err := m.repo.UpdateChannel(ctx, ch); err != nil {
		return fmt.Errorf("failed to save channel: %w", err)
	}
	m.Trigger()
	return nil
}

// Trigger asks the run loop for a pass without waiting for the interval
func (m *Manager) Trigger() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// Start runs shape passes on the interval and whenever triggered
func (m *Manager) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	ticker := time.NewTicker(m.interval)

	go func() {
		defer ticker.Stop()
		log.Info("Dynamic voice manager started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Dynamic voice manager shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Dynamic voice manager shutting down (stop requested)...")
				return
			case <-ticker.C:
				m.safePass(ctx)
			case <-m.trigger:
				m.safePass(ctx)
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

func (m *Manager) safePass(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Panic in dynamic voice pass: %v\n%s", r, debug.Stack())
		}
	}()
	m.Pass(ctx)
	if err := m.ReconcilePUGs(ctx); err != nil {
		log.Errorf("PUG reconcile failed: %v", err)
	}
}

// occupancyLocked reads the occupants of every managed channel. Channels
// the platform no longer knows are dropped; a failed read counts the channel
// as occupied so it is never deleted on a guess.
func (m *Manager) occupancyLocked(ctx context.Context) map[int64][]interfaces.Occupant {
	occupants := make(map[int64][]interfaces.Occupant, len(m.voices))
	for id := range m.voices {
		if !m.channels.ChannelExists(ctx, m.guildID, id) {
			log.WithField("channelID", id).Info("Dynamic voice channel disappeared")
			m.forgetLocked(ctx, id)
			continue
		}
		list, err := m.channels.ChannelOccupants(ctx, m.guildID, id)
		if err != nil {
			log.WithField("channelID", id).Warnf("Failed to read channel occupants: %v", err)
			list = []interfaces.Occupant{{}}
		}
		occupants[id] = list
	}
	return occupants
}

// releaseEmptyLocked unlocks empty owned channels and disbands the pick-up
// groups on them
func (m *Manager) releaseEmptyLocked(ctx context.Context, occupants map[int64][]interfaces.Occupant) {
	for id, ch := range m.voices {
		if len(occupants[id]) > 0 || ch.OwnerID == nil {
			continue
		}
		if err := m.disbandLocked(ctx, id); err != nil {
			log.WithField("channelID", id).Warnf("Failed to disband PUG: %v", err)
		}
		if err := m.unlockLocked(ctx, ch); err != nil {
			log.WithField("channelID", id).Warnf("Failed to unlock empty channel: %v", err)
		}
	}
}

func (m *Manager) createChannelLocked(ctx context.Context, group *entities.DynamicVoiceGroup) error {
	var used []int
	for _, ch := range m.voices {
		if ch.GroupID == group.ID {
			used = append(used, ch.Number)
		}
	}
	number := NextNumber(used)
	name := group.ChannelName(number, "")

	id, err := m.channels.CreateVoiceChannel(ctx, m.guildID, name, m.categoryID)
	if err != nil {
		return err
	}
	ch := &entities.DynamicVoiceChannel{
		ChannelID: id,
		GuildID:   m.guildID,
		GroupID:   group.ID,
		Number:    number,
	}
	if err := m.repo.CreateChannel(ctx, ch); err != nil {
		if delErr := m.channels.DeleteChannel(ctx, id); delErr != nil {
			log.WithField("channelID", id).Warnf("Failed to delete unsaved channel: %v", delErr)
		}
		return fmt.Errorf("failed to save channel: %w", err)
	}
	m.voices[id] = ch
	m.names[id] = name
	return nil
}

func (m *Manager) deleteChannelLocked(ctx context.Context, channelID int64) bool {
	if err := m.channels.DeleteChannel(ctx, channelID); err != nil {
		log.WithField("channelID", channelID).Errorf("Failed to delete dynamic voice channel: %v", err)
		return false
	}
	m.forgetLocked(ctx, channelID)
	return true
}

func (m *Manager) forgetLocked(ctx context.Context, channelID int64) {
	if err := m.repo.DeleteChannel(ctx, channelID); err != nil {
		log.WithField("channelID", channelID).Warnf("Failed to delete channel record: %v", err)
	}
	delete(m.voices, channelID)
	delete(m.names, channelID)
	m.cooldowns.Clear(renameNamespace, strconv.FormatInt(channelID, 10))
}

func (m *Manager) sortLocked(ctx context.Context) {
	ordered := m.orderedLocked()
	ids := make([]int64, len(ordered))
	for i, ch := range ordered {
		ids[i] = ch.ChannelID
	}
	if slices.Equal(ids, m.lastOrder) {
		return
	}
	if err := m.channels.SetChannelPositions(ctx, m.guildID, ids); err != nil {
		log.WithField("guildID", m.guildID).Warnf("Failed to order dynamic voice channels: %v", err)
		return
	}
	m.lastOrder = ids
}

func (m *Manager) renameLocked(ctx context.Context, occupants map[int64][]interfaces.Occupant) (renamed, deferred int) {
	cooldown := config.Get().RenameCooldown
	for _, ch := range m.orderedLocked() {
		group := m.groupLocked(ch.GroupID)
		name := group.ChannelName(ch.Number, MajorityGame(occupants[ch.ChannelID]))
		if ch.CustomName != nil {
			name = *ch.CustomName
		}
		if name == m.names[ch.ChannelID] {
			continue
		}

		key := strconv.FormatInt(ch.ChannelID, 10)
		if !m.cooldowns.TryAcquire(renameNamespace, key, cooldown) {
			deferred++
			continue
		}
		if err := m.channels.RenameChannel(ctx, ch.ChannelID, name); err != nil {
			log.WithField("channelID", ch.ChannelID).Warnf("Failed to rename channel: %v", err)
			m.cooldowns.Clear(renameNamespace, key)
			continue
		}
		m.names[ch.ChannelID] = name
		renamed++
	}
	return renamed, deferred
}

func (m *Manager) orderedLocked() []*entities.DynamicVoiceChannel {
	groupOrder := make(map[int64]int, len(m.groups))
	for i, g := range m.groups {
		groupOrder[g.ID] = i
	}
	ordered := make([]*entities.DynamicVoiceChannel, 0, len(m.voices))
	for _, ch := range m.voices {
		ordered = append(ordered, ch)
	}
	sortChannels(ordered, groupOrder)
	return ordered
}

func (m *Manager) groupLocked(groupID int64) *entities.DynamicVoiceGroup {
	for _, g := range m.groups {
		if g.ID == groupID {
			return g
		}
	}
	return nil
}

func (m *Manager) ownedLocked(channelID, ownerID int64) (*entities.DynamicVoiceChannel, error) {
	ch, ok := m.voices[channelID]
	if !ok {
		return nil, fmt.Errorf("channel %d is not a dynamic voice channel: %w", channelID, entities.ErrNotFound)
	}
	if ch.OwnerID == nil || *ch.OwnerID != ownerID {
		return nil, fmt.Errorf("member %d does not own channel %d: %w", ownerID, channelID, entities.ErrIDMismatch)
	}
	return ch, nil
}

func (m *Manager) unlockLocked(ctx context.Context, ch *entities.DynamicVoiceChannel) error {
	wasPrivate := ch.Private
	ch.Unlock()
	if wasPrivate {
		if err := m.channels.SetChannelPermissions(ctx, m.guildID, ch.ChannelID, false, nil, nil); err != nil {
			log.WithField("channelID", ch.ChannelID).Warnf("Failed to reset channel permissions: %v", err)
		}
	}
	if err := m.repo.UpdateChannel(ctx, ch); err != nil {
		return fmt.Errorf("failed to unlock channel: %w", err)
	}
	return nil
}

func (m *Manager) publish(event events.Event) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(event); err != nil {
		log.WithField("eventType", event.Type()).Warnf("Failed to publish event: %v", err)
	}
}
