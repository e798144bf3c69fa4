package abilities

import (
	"context"
	"time"

	"github.com/KirkDiggler/headsteal/internal/chat"
	apperr "github.com/KirkDiggler/headsteal/internal/errors"
	"github.com/KirkDiggler/headsteal/internal/services/ability"
)

// Lifesteal damages the aimed target and heals the wielder for part of it
type Lifesteal struct{}

func (a *Lifesteal) Key() string      { return "lifesteal" }
func (a *Lifesteal) Sound() string    { return "entity.player.attack.sweep" }
func (a *Lifesteal) Particle() string { return "heart" }

// Execute implements ability.Ability
func (a *Lifesteal) Execute(_ context.Context, ac *ability.Context) error {
	damage := ac.Params.Float("damage", 4)
	ratio := ac.Params.Float("heal_ratio", 0.25)
	reach := ac.Params.Float("range", 3)

	_, target, hit := ac.Aim(reach)
	if !hit {
		return apperr.FailedPreconditionf("No valid target found!")
	}
	if err := ac.World.Damage(target, damage, ac.Player.ID); err != nil {
		return apperr.FailedPreconditionf("No valid target found!")
	}

	healed := damage * ratio
	ac.World.Heal(ac.Player.ID, healed)
	ac.Message(chat.Success("+%.1f health from lifesteal!", healed))
	return nil
}

// SkyStrike calls lightning down on the aimed target
type SkyStrike struct{}

func (a *SkyStrike) Key() string      { return "sky_strike" }
func (a *SkyStrike) Sound() string    { return "entity.lightning_bolt.thunder" }
func (a *SkyStrike) Particle() string { return "electric_spark" }

// Execute implements ability.Ability
func (a *SkyStrike) Execute(_ context.Context, ac *ability.Context) error {
	damage := ac.Params.Float("damage", 6)
	reach := ac.Params.Float("range", 24)

	at, target, hit := ac.Aim(reach)
	if !hit {
		return apperr.FailedPreconditionf("No target in sight.")
	}

	bolt, err := ac.World.Spawn("lightning_bolt", at, ac.Player.ID)
	if err != nil {
		return err
	}
	ac.Track(bolt, time.Second)

	if err := ac.World.Damage(target, damage, ac.Player.ID); err != nil {
		return apperr.FailedPreconditionf("The strike missed.")
	}
	return nil
}
