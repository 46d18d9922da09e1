package guilds

import (
	"context"
	"fmt"
	"sync"

	"helios/domain/entities"
	"helios/domain/interfaces"
	"helios/domain/services"
	"helios/dynamicvoice"
	"helios/infrastructure/observability"
	"helios/scheduler"

	log "github.com/sirupsen/logrus"
)

// Platform is everything the per-guild engines need from Discord
type Platform interface {
	interfaces.MemberPlatform
	interfaces.ChannelPlatform
	interfaces.GroupPlatform
	interfaces.VoiceConnector
}

// RepositorySource hands out the repositories of long-lived guild engines
type RepositorySource interface {
	DynamicVoiceRepository(guildID int64) interfaces.DynamicVoiceRepository
	PugRepository(guildID int64) interfaces.PugRepository
}

// Runtime holds the stateful engines of one guild
type Runtime struct {
	GuildID    int64
	CategoryID int64
	Voice      *dynamicvoice.Manager
	Scheduler  *scheduler.Scheduler
	Music      *scheduler.VoiceController

	stops []func()
}

func (rt *Runtime) stop() {
	for _, stop := range rt.stops {
		stop()
	}
	rt.stops = nil
}

// Registry starts one runtime per guild and keeps it until shutdown
type Registry struct {
	platform  Platform
	repos     RepositorySource
	cooldowns *services.Cooldowns
	publisher interfaces.EventPublisher
	metrics   *observability.MetricsProvider

	mu       sync.Mutex
	runtimes map[int64]*Runtime
}

// NewRegistry creates an empty registry
func NewRegistry(
	platform Platform,
	repos RepositorySource,
	cooldowns *services.Cooldowns,
	publisher interfaces.EventPublisher,
	metrics *observability.MetricsProvider,
) *Registry {
	return &Registry{
		platform:  platform,
		repos:     repos,
		cooldowns: cooldowns,
		publisher: publisher,
		metrics:   metrics,
		runtimes:  make(map[int64]*Runtime),
	}
}

// Get returns the runtime of a guild
func (r *Registry) Get(guildID int64) (*Runtime, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.runtimes[guildID]
	return rt, ok
}

// Ensure returns the runtime of a guild, starting it on first use with new
// dynamic voice channels placed under categoryID
func (r *Registry) Ensure(ctx context.Context, guildID, categoryID int64) (*Runtime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rt, ok := r.runtimes[guildID]; ok {
		return rt, nil
	}
	rt, err := r.startLocked(ctx, guildID, categoryID)
	if err != nil {
		return nil, err
	}
	r.runtimes[guildID] = rt
	return rt, nil
}

// Reload restarts a guild runtime, for instance after its voice category
// changed. Booked music slots do not survive a reload.
func (r *Registry) Reload(ctx context.Context, guildID, categoryID int64) (*Runtime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.runtimes[guildID]; ok {
		old.stop()
		delete(r.runtimes, guildID)
	}
	rt, err := r.startLocked(ctx, guildID, categoryID)
	if err != nil {
		return nil, err
	}
	r.runtimes[guildID] = rt
	return rt, nil
}

// Close stops every runtime
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for guildID, rt := range r.runtimes {
		rt.stop()
		delete(r.runtimes, guildID)
	}
}

func (r *Registry) startLocked(ctx context.Context, guildID, categoryID int64) (*Runtime, error) {
	voice := dynamicvoice.NewManager(
		guildID, categoryID,
		r.repos.DynamicVoiceRepository(guildID),
		r.repos.PugRepository(guildID),
		r.platform, r.platform, r.platform,
		r.cooldowns,
		r.publisher,
	)
	if err := voice.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load dynamic voice for guild %d: %w", guildID, err)
	}
	if err := voice.ReconcilePUGs(ctx); err != nil {
		log.WithField("guildID", guildID).Warnf("Failed to reconcile PUGs: %v", err)
	}

	sched := scheduler.New()
	music := scheduler.NewVoiceController(sched, r.platform, guildID)
	sched.On(scheduler.SlotTypeMusic, func(_ context.Context, slot entities.TimeSlot) {
		r.metrics.RecordSlotFired(slot.Type)
	})

	rt := &Runtime{
		GuildID:    guildID,
		CategoryID: categoryID,
		Voice:      voice,
		Scheduler:  sched,
		Music:      music,
	}
	rt.stops = append(rt.stops, voice.Start(ctx), sched.Start(ctx))
	voice.Trigger()

	log.WithFields(log.Fields{
		"guildID":    guildID,
		"categoryID": categoryID,
	}).Info("Guild runtime started")
	return rt, nil
}
