// Package heads drops collectible heads when a charged creeper kills a mob.
package heads

import (
	"context"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/headsteal/internal/chat"
	"github.com/KirkDiggler/headsteal/internal/entities"
	"github.com/KirkDiggler/headsteal/internal/events"
	"github.com/KirkDiggler/headsteal/internal/logger"
	"github.com/KirkDiggler/headsteal/internal/notify"
	"github.com/KirkDiggler/headsteal/internal/world"
)

const (
	killerCreeper = "creeper"
	kindPlayer    = "player"
)

// HeadItems builds wearable head items by key
type HeadItems interface {
	HeadItem(key string) (entities.Item, error)
}

// Service decides head drops
type Service interface {
	// HandleEntityDeath drops the head for kind at the death spot when the kill
	// qualifies. It reports the dropped object.
	HandleEntityDeath(ctx context.Context, kind string, at entities.Location, killerKind string, charged bool) (world.ObjectID, bool)
}

// ServiceConfig holds configuration for head drops
type ServiceConfig struct {
	Heads    HeadItems
	World    world.Surface
	Notifier notify.Notifier
	Roller   Roller

	Enabled        bool
	DropChance     int
	DisabledWorlds []string
	EnabledWorlds  []string
	Broadcast      bool
	Particles      bool
}

type service struct {
	heads    HeadItems
	world    world.Surface
	notifier notify.Notifier
	roller   Roller
	cfg      ServiceConfig
}

// NewService creates the head drop service
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil {
		panic("heads service config is required")
	}
	if cfg.Heads == nil {
		panic("head items are required")
	}
	if cfg.World == nil {
		panic("world is required")
	}

	svc := &service{
		heads:    cfg.Heads,
		world:    cfg.World,
		notifier: cfg.Notifier,
		roller:   cfg.Roller,
		cfg:      *cfg,
	}
	if svc.roller == nil {
		svc.roller = NewRandomRoller()
	}
	return svc
}

// HandleEntityDeath implements Service
func (s *service) HandleEntityDeath(ctx context.Context, kind string, at entities.Location, killerKind string, charged bool) (world.ObjectID, bool) {
	if !s.cfg.Enabled || kind == "" || kind == kindPlayer {
		return "", false
	}

	log := logger.ForComponent("heads").WithFields(logrus.Fields{
		"entity": kind,
		"world":  at.World,
	})

	if killerKind != killerCreeper || !charged {
		return "", false
	}
	if !s.worldAllowed(at.World) {
		log.Debug("head drops disabled in world")
		return "", false
	}
	if s.cfg.DropChance < 100 && s.roller.Percent() > s.cfg.DropChance {
		log.WithField("chance", s.cfg.DropChance).Debug("head drop failed chance roll")
		return "", false
	}

	item, err := s.heads.HeadItem(kind)
	if err != nil {
		log.Debug("no head configured for entity")
		return "", false
	}

	id, err := s.world.DropItem(at, item)
	if err != nil {
		log.WithError(err).Warn("failed to drop head")
		return "", false
	}
	log.WithField("object_id", id).Info("charged creeper dropped a head")

	if s.cfg.Particles {
		above := at.Add(0, 1, 0)
		s.world.SpawnParticles(above, "firework", 20)
		s.world.SpawnParticles(above, "enchant", 30)
	}
	if s.cfg.Broadcast && s.notifier != nil {
		s.notifier.Broadcast(ctx, notify.CategoryHeadDrop, chat.Line(chat.Gold,
			"A charged creeper killed a %s and dropped %s!", strings.ReplaceAll(kind, "_", " "), item.DisplayName))
	}
	return id, true
}

func (s *service) worldAllowed(name string) bool {
	if slices.Contains(s.cfg.DisabledWorlds, name) {
		return false
	}
	return len(s.cfg.EnabledWorlds) == 0 || slices.Contains(s.cfg.EnabledWorlds, name)
}

// Listener drops heads on entity deaths
type Listener struct {
	svc Service
}

// NewListener creates the head drop listener
func NewListener(svc Service) *Listener {
	return &Listener{svc: svc}
}

func (l *Listener) ID() string    { return "heads" }
func (l *Listener) Priority() int { return events.PriorityLifecycle }

// HandleEvent implements events.EventListener
func (l *Listener) HandleEvent(event events.Event) error {
	if e, ok := event.(*events.EntityDeathEvent); ok {
		l.svc.HandleEntityDeath(context.Background(), e.Kind, e.Location, e.KillerKind, e.Charged)
	}
	return nil
}
