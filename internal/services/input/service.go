// Package input routes raw player gestures to the ability engine. Boss heads go
// through combo detection; regular heads run directly when the gesture matches
// their slot.
package input

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/headsteal/internal/catalog"
	"github.com/KirkDiggler/headsteal/internal/entities"
	"github.com/KirkDiggler/headsteal/internal/events"
	"github.com/KirkDiggler/headsteal/internal/logger"
	"github.com/KirkDiggler/headsteal/internal/services/ability"
	"github.com/KirkDiggler/headsteal/internal/services/combo"
	"github.com/KirkDiggler/headsteal/internal/world"
)

// Route says where a gesture went
type Route string

const (
	RouteNone    Route = "none"
	RouteRegular Route = "regular"
	RouteCombo   Route = "combo"
)

// Router dispatches gestures and helmet changes
type Router struct {
	catalog   catalog.Catalog
	world     world.Surface
	abilities ability.Service
	combos    combo.Service
}

// Config holds router dependencies
type Config struct {
	Catalog   catalog.Catalog
	World     world.Surface
	Abilities ability.Service
	Combos    combo.Service
}

// NewRouter creates an input router
func NewRouter(cfg *Config) *Router {
	if cfg == nil || cfg.Catalog == nil {
		panic("head catalog is required")
	}
	if cfg.World == nil {
		panic("world surface is required")
	}
	if cfg.Abilities == nil {
		panic("ability service is required")
	}
	if cfg.Combos == nil {
		panic("combo service is required")
	}
	return &Router{
		catalog:   cfg.Catalog,
		world:     cfg.World,
		abilities: cfg.Abilities,
		combos:    cfg.Combos,
	}
}

// worn returns the head the player is wearing, if the catalog knows it
func (r *Router) worn(playerID string) (*entities.HeadRecord, bool) {
	helmet := r.world.Helmet(playerID)
	if helmet == nil {
		return nil, false
	}
	return r.headFor(helmet)
}

func (r *Router) headFor(item *entities.Item) (*entities.HeadRecord, bool) {
	key, ok := r.catalog.KeyForItem(item)
	if !ok {
		return nil, false
	}
	return r.catalog.Get(key)
}

// HandleGesture routes one click. A modified click is a sneak click.
func (r *Router) HandleGesture(ctx context.Context, playerID string, modified bool) Route {
	head, ok := r.worn(playerID)
	if !ok {
		return RouteNone
	}
	modified = modified || r.world.IsSneaking(playerID)

	if head.IsBoss() {
		gesture := combo.GesturePlain
		if modified {
			gesture = combo.GestureModified
		}
		r.combos.HandleGesture(ctx, playerID, head.Key, gesture)
		return RouteCombo
	}

	if head.Ability == nil {
		return RouteNone
	}
	slot := entities.SlotLeftClick
	if modified {
		slot = entities.SlotShiftLeftClick
	}
	if head.Ability.ActivationSlot != slot {
		return RouteNone
	}

	outcome, err := r.abilities.ExecuteRegular(ctx, playerID, head.Ability)
	if err != nil {
		logger.ForPlayer(playerID).WithFields(logrus.Fields{
			"head":    head.Key,
			"ability": head.Ability.Type,
			"outcome": outcome,
		}).WithError(err).Debug("regular ability not executed")
	}
	return RouteRegular
}

// HandleHelmetChange drops any pending combo and runs a passive ability on equip
func (r *Router) HandleHelmetChange(ctx context.Context, playerID string, item *entities.Item) Route {
	r.combos.ClearPlayer(playerID)

	if item == nil {
		return RouteNone
	}
	head, ok := r.headFor(item)
	if !ok || head.Ability == nil || head.Ability.ActivationSlot != entities.SlotPassive {
		return RouteNone
	}

	if _, err := r.abilities.ExecuteRegular(ctx, playerID, head.Ability); err != nil {
		logger.ForPlayer(playerID).WithField("head", head.Key).WithError(err).Debug("passive ability not executed")
	}
	return RouteRegular
}

// Listener subscribes the router to gesture and helmet events
type Listener struct {
	router *Router
}

// NewListener creates the input listener
func NewListener(router *Router) *Listener {
	return &Listener{router: router}
}

func (l *Listener) ID() string    { return "input" }
func (l *Listener) Priority() int { return events.PriorityRouting }

// HandleEvent implements events.EventListener
func (l *Listener) HandleEvent(event events.Event) error {
	ctx := context.Background()
	switch e := event.(type) {
	case *events.GestureEvent:
		l.router.HandleGesture(ctx, e.PlayerID, e.Modified)
	case *events.HelmetChangeEvent:
		l.router.HandleHelmetChange(ctx, e.PlayerID, e.Item)
	}
	return nil
}
