package abilities

import (
	"context"
	"time"

	"github.com/KirkDiggler/headsteal/internal/chat"
	"github.com/KirkDiggler/headsteal/internal/services/ability"
	"github.com/KirkDiggler/headsteal/internal/world"
)

// SprintBoost grants speed, usually as a passive on equip
type SprintBoost struct{}

func (a *SprintBoost) Key() string { return "sprint_boost" }

// Execute implements ability.Ability
func (a *SprintBoost) Execute(_ context.Context, ac *ability.Context) error {
	duration := ac.Params.Seconds("duration", time.Minute)
	if err := ac.World.ApplyEffect(ac.Player.ID, world.StatusEffect{
		Type:      world.EffectSpeed,
		Amplifier: ac.Params.Int("amplifier", 1),
		Duration:  duration,
	}); err != nil {
		return err
	}
	ac.Message(chat.Success("Speed boost for %ds", int(duration.Seconds())))
	return nil
}
