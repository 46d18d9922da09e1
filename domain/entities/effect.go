package entities

import "time"

// EffectKind tags the effect variant
type EffectKind string

const (
	EffectMute          EffectKind = "mute"
	EffectDeafen        EffectKind = "deafen"
	EffectShield        EffectKind = "shield"
	EffectDeflector     EffectKind = "deflector"
	EffectChannelShield EffectKind = "channel_shield"
)

// Harmful reports whether the kind is blocked by shields
func (k EffectKind) Harmful() bool {
	return k == EffectMute || k == EffectDeafen
}

// EffectTargetType distinguishes what an effect is attached to
type EffectTargetType string

const (
	TargetMember  EffectTargetType = "member"
	TargetChannel EffectTargetType = "channel"
	TargetGuild   EffectTargetType = "guild"
)

// EffectExtras is the variant payload stored alongside the effect tag
type EffectExtras struct {
	Cost   int64  `json:"cost,omitempty"`
	Reason string `json:"reason,omitempty"`
	// Deflected is set when the effect was bounced back at its source
	Deflected bool `json:"deflected,omitempty"`
}

// Effect is a time-bounded status applied to a member, channel or guild
type Effect struct {
	ID         int64
	GuildID    int64
	Kind       EffectKind
	TargetType EffectTargetType
	TargetID   int64
	SourceID   *int64
	Duration   time.Duration
	AppliedAt  time.Time
	Extras     EffectExtras
}

// TimeLeft returns the remaining duration at now
func (e *Effect) TimeLeft(now time.Time) time.Duration {
	if e.AppliedAt.IsZero() {
		return e.Duration
	}
	return e.Duration - now.Sub(e.AppliedAt)
}

// Expired reports whether the effect has run out at now
func (e *Effect) Expired(now time.Time) bool {
	return e.TimeLeft(now) <= 0
}
