package services

import (
	"fmt"
	"time"

	"helios/domain/entities"
)

// Effect purchase prices
const (
	MutePointsPerSecond        = 10
	DeafenPointsPerSecond      = 10
	ShieldPointsPerHour        = 500
	DeflectorPointsPerHour     = 1000
	ChannelShieldPointsPerHour = 750

	MaxHarmfulDuration    = 5 * time.Minute
	MaxProtectiveDuration = 24 * time.Hour
)

// ItemEffects maps consumable inventory items to the effect they apply
var ItemEffects = map[string]ItemEffect{
	entities.ItemMuteToken:   {Kind: entities.EffectMute, Duration: 30 * time.Second},
	entities.ItemDeafenToken: {Kind: entities.EffectDeafen, Duration: 30 * time.Second},
	entities.ItemShield:      {Kind: entities.EffectShield, Duration: time.Hour},
	entities.ItemDeflector:   {Kind: entities.EffectDeflector, Duration: time.Hour},
	entities.ItemBubble:      {Kind: entities.EffectChannelShield, Duration: time.Hour},
}

// ItemEffect is the effect a consumable item applies when used
type ItemEffect struct {
	Kind     entities.EffectKind
	Duration time.Duration
}

// EffectPrice returns the cost of buying an effect for d. Harmful effects
// are priced per second, protective ones per started hour.
func EffectPrice(kind entities.EffectKind, d time.Duration) (int64, error) {
	if d <= 0 {
		return 0, entities.ErrInvalidAmount
	}

	if kind.Harmful() {
		if d > MaxHarmfulDuration {
			return 0, fmt.Errorf("%s for %s exceeds %s: %w", kind, d, MaxHarmfulDuration, entities.ErrInvalidAmount)
		}
		seconds := int64((d + time.Second - 1) / time.Second)
		if kind == entities.EffectMute {
			return seconds * MutePointsPerSecond, nil
		}
		return seconds * DeafenPointsPerSecond, nil
	}

	if d > MaxProtectiveDuration {
		return 0, fmt.Errorf("%s for %s exceeds %s: %w", kind, d, MaxProtectiveDuration, entities.ErrInvalidAmount)
	}
	hours := int64((d + time.Hour - 1) / time.Hour)
	switch kind {
	case entities.EffectShield:
		return hours * ShieldPointsPerHour, nil
	case entities.EffectDeflector:
		return hours * DeflectorPointsPerHour, nil
	case entities.EffectChannelShield:
		return hours * ChannelShieldPointsPerHour, nil
	default:
		return 0, fmt.Errorf("effect %q is not for sale: %w", kind, entities.ErrNotFound)
	}
}
