package abilities

import (
	"context"
	"math"
	"time"

	"github.com/KirkDiggler/headsteal/internal/chat"
	apperr "github.com/KirkDiggler/headsteal/internal/errors"
	"github.com/KirkDiggler/headsteal/internal/services/ability"
)

// SummonAllies spawns short-lived creatures in a ring around the wielder
type SummonAllies struct{}

func (a *SummonAllies) Key() string      { return "summon_allies" }
func (a *SummonAllies) Sound() string    { return "entity.wolf.howl" }
func (a *SummonAllies) Particle() string { return "cloud" }

// Execute implements ability.Ability
func (a *SummonAllies) Execute(_ context.Context, ac *ability.Context) error {
	kind := ac.Params.String("kind", "wolf")
	count := ac.Params.Int("count", 2)
	ttl := ac.Params.Seconds("duration", 30*time.Second)
	if count <= 0 {
		return apperr.InvalidArgumentf("summon count must be positive, got %d", count)
	}

	center := ac.Location()
	for i := 0; i < count; i++ {
		angle := 2 * math.Pi * float64(i) / float64(count)
		at := center.Add(2*math.Cos(angle), 0, 2*math.Sin(angle))

		id, err := ac.World.Spawn(kind, at, ac.Player.ID)
		if err != nil {
			return err
		}
		ac.Track(id, ttl)
	}

	ac.Message(chat.Success("Summoned %d %s allies for %ds", count, kind, int(ttl.Seconds())))
	return nil
}

// ArrowSpread fires a fan of arrows, each hitting a different nearby target
type ArrowSpread struct{}

func (a *ArrowSpread) Key() string      { return "arrow_spread" }
func (a *ArrowSpread) Sound() string    { return "entity.arrow.shoot" }
func (a *ArrowSpread) Particle() string { return "crit" }

const arrowLifetime = 3 * time.Second

// Execute implements ability.Ability
func (a *ArrowSpread) Execute(_ context.Context, ac *ability.Context) error {
	arrows := ac.Params.Int("arrows", 5)
	damage := ac.Params.Float("damage", 3)
	reach := ac.Params.Float("range", 16)

	from := ac.Location().Add(0, 1.5, 0)
	for i := 0; i < arrows; i++ {
		id, err := ac.World.Spawn("arrow", from, ac.Player.ID)
		if err != nil {
			return err
		}
		ac.Track(id, arrowLifetime)
	}

	hit := damageAll(ac, ac.Targets(reach), damage, arrows)
	ac.Message(chat.Line(chat.Gray, "Fired %d arrows, %d hit", arrows, hit))
	return nil
}
