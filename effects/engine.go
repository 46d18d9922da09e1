package effects

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"helios/domain/entities"
	"helios/domain/interfaces"
	"helios/events"

	log "github.com/sirupsen/logrus"
)

// DefaultTickInterval is how often live effects are reconciled
const DefaultTickInterval = time.Second

type memberKey struct {
	guildID  int64
	memberID int64
}

// Engine applies time-bounded effects and keeps their visible state in
// place until they expire. Effects are persisted so they survive restarts.
type Engine struct {
	repo      interfaces.EffectRepository
	behaviors map[entities.EffectKind]Behavior
	members   interfaces.MemberPlatform
	publisher interfaces.EventPublisher
	now       func() time.Time
	interval  time.Duration

	mu      sync.Mutex
	effects map[int64]*entities.Effect
	// pending holds removals the platform could not perform yet. They are
	// mirrored to the repository so a restart does not strand them.
	pending map[memberKey][]*entities.Effect
}

// NewEngine creates an effects engine. members is used to resolve the voice
// channel of a target when checking channel shields.
func NewEngine(
	repo interfaces.EffectRepository,
	behaviors map[entities.EffectKind]Behavior,
	members interfaces.MemberPlatform,
	publisher interfaces.EventPublisher,
) *Engine {
	return &Engine{
		repo:      repo,
		behaviors: behaviors,
		members:   members,
		publisher: publisher,
		now:       time.Now,
		interval:  DefaultTickInterval,
		effects:   make(map[int64]*entities.Effect),
		pending:   make(map[memberKey][]*entities.Effect),
	}
}

// WithClock replaces the time source, for tests
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Add checks protections, persists the effect, applies it and starts
// tracking it. A harmful effect aimed at a deflecting member is bounced
// back at its source and consumes the deflector.
func (e *Engine) Add(ctx context.Context, effect *entities.Effect) (*entities.Effect, error) {
	behavior, ok := e.behaviors[effect.Kind]
	if !ok {
		return nil, fmt.Errorf("no behavior registered for effect kind %q", effect.Kind)
	}
	if effect.Duration <= 0 {
		return nil, entities.ErrInvalidAmount
	}

	if effect.Kind.Harmful() && effect.TargetType == entities.TargetMember {
		if err := e.checkProtection(ctx, effect); err != nil {
			return nil, err
		}
	}

	effect.AppliedAt = e.now()
	if err := e.repo.Create(ctx, effect); err != nil {
		return nil, fmt.Errorf("failed to persist %s effect: %w", effect.Kind, err)
	}

	e.mu.Lock()
	e.effects[effect.ID] = effect
	e.mu.Unlock()

	if err := behavior.Apply(ctx, effect); err != nil {
		// enforce retries on the next tick
		log.WithFields(log.Fields{
			"effectID": effect.ID,
			"kind":     effect.Kind,
			"target":   effect.TargetID,
		}).Warnf("Failed to apply effect: %v", err)
	}

	e.publish(events.EffectAppliedEvent{
		GuildID:  effect.GuildID,
		EffectID: effect.ID,
		Kind:     effect.Kind,
		TargetID: effect.TargetID,
		Seconds:  int64(effect.Duration / time.Second),
	})
	return effect, nil
}

// checkProtection rejects effects on shielded members and redirects
// effects on deflecting members
func (e *Engine) checkProtection(ctx context.Context, effect *entities.Effect) error {
	if e.shielded(ctx, effect.GuildID, effect.TargetID) {
		return fmt.Errorf("member %d: %w", effect.TargetID, entities.ErrShielded)
	}
	if effect.Extras.Deflected || effect.SourceID == nil {
		return nil
	}

	deflector := e.find(effect.GuildID, entities.EffectDeflector, entities.TargetMember, effect.TargetID)
	if deflector == nil {
		return nil
	}
	if _, err := e.Remove(ctx, deflector.ID); err != nil {
		return err
	}

	original := effect.TargetID
	effect.TargetID = *effect.SourceID
	effect.SourceID = &original
	effect.Extras.Deflected = true

	if e.shielded(ctx, effect.GuildID, effect.TargetID) {
		return fmt.Errorf("member %d: %w", effect.TargetID, entities.ErrShielded)
	}
	return nil
}

func (e *Engine) shielded(ctx context.Context, guildID, memberID int64) bool {
	if e.find(guildID, entities.EffectShield, entities.TargetMember, memberID) != nil {
		return true
	}
	if e.members == nil {
		return false
	}
	state, err := e.members.VoiceState(ctx, guildID, memberID)
	if err != nil || state == nil {
		return false
	}
	return e.find(guildID, entities.EffectChannelShield, entities.TargetChannel, state.ChannelID) != nil
}

// find returns a live effect of the kind on the target
func (e *Engine) find(guildID int64, kind entities.EffectKind, targetType entities.EffectTargetType, targetID int64) *entities.Effect {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	for _, effect := range e.effects {
		if effect.GuildID == guildID &&
			effect.Kind == kind &&
			effect.TargetType == targetType &&
			effect.TargetID == targetID &&
			!effect.Expired(now) {
			return effect
		}
	}
	return nil
}

// Remove stops tracking an effect, deletes it and lifts it. It reports
// false when the effect was already removed, so each effect is lifted once.
func (e *Engine) Remove(ctx context.Context, effectID int64) (bool, error) {
	e.mu.Lock()
	effect, ok := e.effects[effectID]
	if ok {
		delete(e.effects, effectID)
	}
	e.mu.Unlock()
	if !ok {
		return false, nil
	}

	if err := e.repo.Delete(ctx, effectID); err != nil {
		log.Errorf("Failed to delete effect %d: %v", effectID, err)
	}

	// another live effect of the same kind keeps the state in place
	if e.find(effect.GuildID, effect.Kind, effect.TargetType, effect.TargetID) == nil {
		e.lift(ctx, effect)
	}

	e.publish(events.EffectRemovedEvent{
		GuildID:  effect.GuildID,
		EffectID: effect.ID,
		Kind:     effect.Kind,
		TargetID: effect.TargetID,
	})
	return true, nil
}

func (e *Engine) lift(ctx context.Context, effect *entities.Effect) {
	err := e.behaviors[effect.Kind].Remove(ctx, effect)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotInVoice):
		e.queuePending(effect)
		if err := e.repo.SavePending(ctx, effect); err != nil {
			log.WithField("effectID", effect.ID).Errorf("Failed to persist pending removal: %v", err)
		}
	default:
		log.WithFields(log.Fields{
			"effectID": effect.ID,
			"kind":     effect.Kind,
			"target":   effect.TargetID,
		}).Errorf("Failed to remove effect: %v", err)
	}
}

// OnVoiceJoin retries removals that failed because the member was offline
func (e *Engine) OnVoiceJoin(ctx context.Context, guildID, memberID int64) {
	key := memberKey{guildID: guildID, memberID: memberID}
	e.mu.Lock()
	pending := e.pending[key]
	delete(e.pending, key)
	e.mu.Unlock()

	for _, effect := range pending {
		if err := e.repo.DeletePending(ctx, effect.ID); err != nil {
			log.WithField("effectID", effect.ID).Errorf("Failed to clear pending removal: %v", err)
		}
		if e.find(effect.GuildID, effect.Kind, effect.TargetType, effect.TargetID) != nil {
			continue
		}
		e.lift(ctx, effect)
	}
}

func (e *Engine) queuePending(effect *entities.Effect) {
	key := memberKey{guildID: effect.GuildID, memberID: effect.TargetID}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, queued := range e.pending[key] {
		if queued.ID == effect.ID {
			return
		}
	}
	e.pending[key] = append(e.pending[key], effect)
}

// Tick removes expired effects and re-enforces the rest
func (e *Engine) Tick(ctx context.Context) {
	now := e.now()
	for _, effect := range e.Effects() {
		e.reconcile(ctx, effect, now)
	}
}

func (e *Engine) reconcile(ctx context.Context, effect *entities.Effect, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("effectID", effect.ID).Errorf("Panic while reconciling effect: %v\n%s", r, debug.Stack())
		}
	}()

	if effect.Expired(now) {
		if _, err := e.Remove(ctx, effect.ID); err != nil {
			log.Errorf("Failed to expire effect %d: %v", effect.ID, err)
		}
		return
	}

	err := e.behaviors[effect.Kind].Enforce(ctx, effect)
	switch {
	case err == nil:
	case errors.Is(err, ErrTargetGone):
		if _, err := e.Remove(ctx, effect.ID); err != nil {
			log.Errorf("Failed to remove effect %d with missing target: %v", effect.ID, err)
		}
	default:
		log.WithField("effectID", effect.ID).Warnf("Failed to enforce effect: %v", err)
	}
}

// FetchAll loads persisted effects and pending removals into the engine and
// returns how many effects were loaded. applied_at is kept, so remaining time
// carries over restarts.
func (e *Engine) FetchAll(ctx context.Context) (int, error) {
	stored, err := e.repo.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load effects: %w", err)
	}
	pending, err := e.repo.GetPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending removals: %w", err)
	}
	for _, effect := range pending {
		if _, ok := e.behaviors[effect.Kind]; ok {
			e.queuePending(effect)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	loaded := 0
	for _, effect := range stored {
		if _, ok := e.behaviors[effect.Kind]; !ok {
			log.Warnf("Skipping effect %d with unknown kind %q", effect.ID, effect.Kind)
			continue
		}
		e.effects[effect.ID] = effect
		loaded++
	}
	return loaded, nil
}

// Effects returns a snapshot of every tracked effect
func (e *Engine) Effects() []*entities.Effect {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*entities.Effect, 0, len(e.effects))
	for _, effect := range e.effects {
		out = append(out, effect)
	}
	return out
}

// ActiveOn returns the live effects aimed at a target
func (e *Engine) ActiveOn(guildID int64, targetType entities.EffectTargetType, targetID int64) []*entities.Effect {
	now := e.now()
	var out []*entities.Effect
	for _, effect := range e.Effects() {
		if effect.GuildID == guildID && effect.TargetType == targetType && effect.TargetID == targetID && !effect.Expired(now) {
			out = append(out, effect)
		}
	}
	return out
}

// Start runs the reconcile loop until ctx is cancelled or the returned stop
// function is called
func (e *Engine) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	ticker := time.NewTicker(e.interval)

	go func() {
		defer ticker.Stop()
		log.Info("Effects engine started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Effects engine shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Effects engine shutting down (stop requested)...")
				return
			case <-ticker.C:
				e.Tick(ctx)
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

func (e *Engine) publish(event events.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(event); err != nil {
		log.Errorf("Failed to publish %s: %v", event.Type(), err)
	}
}
