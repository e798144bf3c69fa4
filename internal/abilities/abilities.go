// Package abilities holds the effect bodies behind the catalog's ability types.
// Each one reads its tuning from the descriptor params and talks to the world
// only through the ability context.
package abilities

import (
	"github.com/KirkDiggler/headsteal/internal/services/ability"
	"github.com/KirkDiggler/headsteal/internal/world"
)

// All returns one instance of every built-in ability
func All() []ability.Ability {
	return []ability.Ability{
		&Lifesteal{},
		&SkyStrike{},
		&SummonAllies{},
		&ArrowSpread{},
		&WingGust{},
		&DragonBreath{},
		&SelfExplode{},
		&SprintBoost{},
	}
}

// RegisterAll adds every built-in ability to the engine
func RegisterAll(svc ability.Service) {
	for _, a := range All() {
		svc.Register(a)
	}
}

// damageAll hits each target once and returns how many took damage.
// Items and vanished objects refuse damage and are skipped.
func damageAll(ac *ability.Context, targets []world.ObjectID, amount float64, limit int) int {
	hit := 0
	for _, id := range targets {
		if limit > 0 && hit >= limit {
			break
		}
		if err := ac.World.Damage(id, amount, ac.Player.ID); err != nil {
			continue
		}
		hit++
	}
	return hit
}
