package abilities

import (
	"context"
	"time"

	"github.com/KirkDiggler/headsteal/internal/chat"
	apperr "github.com/KirkDiggler/headsteal/internal/errors"
	"github.com/KirkDiggler/headsteal/internal/services/ability"
	"github.com/KirkDiggler/headsteal/internal/world"
)

// WingGust buffets everything around the wielder and lifts them off the ground
type WingGust struct{}

func (a *WingGust) Key() string      { return "wing_gust" }
func (a *WingGust) Sound() string    { return "entity.phantom.flap" }
func (a *WingGust) Particle() string { return "sweep_attack" }

// Execute implements ability.Ability
func (a *WingGust) Execute(_ context.Context, ac *ability.Context) error {
	radius := ac.Params.Float("radius", 5)
	force := ac.Params.Float("force", 1.5)

	hit := damageAll(ac, ac.Targets(radius), force, 0)
	if err := ac.World.ApplyEffect(ac.Player.ID, world.StatusEffect{
		Type:      world.EffectJumpBoost,
		Amplifier: int(force),
		Duration:  5 * time.Second,
	}); err != nil {
		return err
	}

	ac.Message(chat.Line(chat.Gray, "Gust struck %d", hit))
	return nil
}

// DragonBreath leaves a lingering damaging cloud where the wielder aims
type DragonBreath struct{}

func (a *DragonBreath) Key() string      { return "dragon_breath" }
func (a *DragonBreath) Sound() string    { return "entity.ender_dragon.shoot" }
func (a *DragonBreath) Particle() string { return "dragon_breath" }

const breathCloudLifetime = 5 * time.Second

// Execute implements ability.Ability
func (a *DragonBreath) Execute(_ context.Context, ac *ability.Context) error {
	radius := ac.Params.Float("radius", 4)
	damage := ac.Params.Float("damage", 2)
	reach := ac.Params.Float("range", 12)

	at, _, _ := ac.Aim(reach)
	cloud, err := ac.World.Spawn("area_effect_cloud", at, ac.Player.ID)
	if err != nil {
		return err
	}
	ac.Track(cloud, breathCloudLifetime)
	ac.Particles(at, a.Particle(), 40)

	hit := damageAll(ac, ac.TargetsAround(at, radius), damage, 0)
	ac.Message(chat.Line(chat.Gold, "Dragon breath engulfed %d", hit))
	return nil
}

// SelfExplode detonates around the wielder, leaving them weakened
type SelfExplode struct{}

func (a *SelfExplode) Key() string      { return "self_explode" }
func (a *SelfExplode) Sound() string    { return "entity.generic.explode" }
func (a *SelfExplode) Particle() string { return "explosion" }

// Execute implements ability.Ability
func (a *SelfExplode) Execute(_ context.Context, ac *ability.Context) error {
	radius := ac.Params.Float("radius", 3)
	damage := ac.Params.Float("damage", 6)
	exhaustion := ac.Params.Seconds("exhaustion", 5*time.Second)

	targets := ac.Targets(radius)
	if len(targets) == 0 {
		return apperr.FailedPreconditionf("Nothing nearby to blow up.")
	}
	hit := damageAll(ac, targets, damage, 0)

	if exhaustion > 0 {
		if err := ac.World.ApplyEffect(ac.Player.ID, world.StatusEffect{
			Type:     world.EffectWeakness,
			Duration: exhaustion,
		}); err != nil {
			return err
		}
	}

	ac.Message(chat.Error("BOOM! %d caught in the blast", hit))
	return nil
}
