package effects

import (
	"context"
	"errors"
	"fmt"

	"helios/domain/entities"
	"helios/domain/interfaces"
)

var (
	// ErrTargetGone is returned by Enforce when the effect's target no longer
	// exists; the engine then removes the effect early
	ErrTargetGone = errors.New("effect target no longer exists")

	// ErrNotInVoice is returned by Remove when the member has to be connected
	// for the platform to lift the effect; the removal is retried on join
	ErrNotInVoice = errors.New("member is not connected to voice")
)

// Behavior is the per-kind lifecycle of an effect. Enforce must be
// idempotent: it is called every tick and re-asserts the effect's visible
// state after out-of-band changes.
type Behavior interface {
	Apply(ctx context.Context, effect *entities.Effect) error
	Enforce(ctx context.Context, effect *entities.Effect) error
	Remove(ctx context.Context, effect *entities.Effect) error
}

// voiceFlag selects which server voice flag a behavior controls
type voiceFlag int

const (
	flagMute voiceFlag = iota
	flagDeaf
)

// voiceBehavior server-mutes or server-deafens a member while it is active
type voiceBehavior struct {
	platform interfaces.MemberPlatform
	flag     voiceFlag
}

// NewMuteBehavior keeps the target member server-muted
func NewMuteBehavior(platform interfaces.MemberPlatform) Behavior {
	return &voiceBehavior{platform: platform, flag: flagMute}
}

// NewDeafenBehavior keeps the target member server-deafened
func NewDeafenBehavior(platform interfaces.MemberPlatform) Behavior {
	return &voiceBehavior{platform: platform, flag: flagDeaf}
}

func (b *voiceBehavior) Apply(ctx context.Context, effect *entities.Effect) error {
	return b.Enforce(ctx, effect)
}

func (b *voiceBehavior) Enforce(ctx context.Context, effect *entities.Effect) error {
	state, err := b.platform.VoiceState(ctx, effect.GuildID, effect.TargetID)
	if err != nil {
		return fmt.Errorf("failed to get voice state of %d: %w", effect.TargetID, err)
	}
	// Members outside voice cannot be muted; the next tick after they join catches up
	if state == nil || b.current(state) {
		return nil
	}
	return b.set(ctx, effect, true)
}

func (b *voiceBehavior) Remove(ctx context.Context, effect *entities.Effect) error {
	state, err := b.platform.VoiceState(ctx, effect.GuildID, effect.TargetID)
	if err != nil {
		return fmt.Errorf("failed to get voice state of %d: %w", effect.TargetID, err)
	}
	if state == nil {
		return ErrNotInVoice
	}
	if !b.current(state) {
		return nil
	}
	return b.set(ctx, effect, false)
}

func (b *voiceBehavior) current(state *interfaces.VoiceState) bool {
	if b.flag == flagDeaf {
		return state.Deaf
	}
	return state.Mute
}

func (b *voiceBehavior) set(ctx context.Context, effect *entities.Effect, on bool) error {
	if b.flag == flagDeaf {
		return b.platform.SetServerDeaf(ctx, effect.GuildID, effect.TargetID, on)
	}
	return b.platform.SetServerMute(ctx, effect.GuildID, effect.TargetID, on)
}

// passiveBehavior has no visible state. Shields and deflectors only matter
// when the engine checks them on Add.
type passiveBehavior struct{}

// NewPassiveBehavior returns a behavior with no platform side effects
func NewPassiveBehavior() Behavior {
	return passiveBehavior{}
}

func (passiveBehavior) Apply(context.Context, *entities.Effect) error { return nil }
func (passiveBehavior) Enforce(context.Context, *entities.Effect) error { return nil }
func (passiveBehavior) Remove(context.Context, *entities.Effect) error { return nil }

// channelShieldBehavior protects a voice channel for as long as it exists
type channelShieldBehavior struct {
	channels interfaces.ChannelPlatform
}

// NewChannelShieldBehavior ends the shield early once its channel is deleted
func NewChannelShieldBehavior(channels interfaces.ChannelPlatform) Behavior {
	return &channelShieldBehavior{channels: channels}
}

func (b *channelShieldBehavior) Apply(ctx context.Context, effect *entities.Effect) error {
	return b.Enforce(ctx, effect)
}

func (b *channelShieldBehavior) Enforce(ctx context.Context, effect *entities.Effect) error {
	if !b.channels.ChannelExists(ctx, effect.GuildID, effect.TargetID) {
		return ErrTargetGone
	}
	return nil
}

func (b *channelShieldBehavior) Remove(context.Context, *entities.Effect) error {
	return nil
}

// DefaultBehaviors maps every effect kind to its behavior
func DefaultBehaviors(members interfaces.MemberPlatform, channels interfaces.ChannelPlatform) map[entities.EffectKind]Behavior {
	return map[entities.EffectKind]Behavior{
		entities.EffectMute:          NewMuteBehavior(members),
		entities.EffectDeafen:        NewDeafenBehavior(members),
		entities.EffectShield:        NewPassiveBehavior(),
		entities.EffectDeflector:     NewPassiveBehavior(),
		entities.EffectChannelShield: NewChannelShieldBehavior(channels),
	}
}
