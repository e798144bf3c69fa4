package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/headsteal/internal/abilities"
	"github.com/KirkDiggler/headsteal/internal/catalog"
	"github.com/KirkDiggler/headsteal/internal/config"
	apperr "github.com/KirkDiggler/headsteal/internal/errors"
	"github.com/KirkDiggler/headsteal/internal/events"
	"github.com/KirkDiggler/headsteal/internal/gateway"
	"github.com/KirkDiggler/headsteal/internal/logger"
	"github.com/KirkDiggler/headsteal/internal/notify"
	"github.com/KirkDiggler/headsteal/internal/permissions"
	banboxrepo "github.com/KirkDiggler/headsteal/internal/repositories/banbox"
	"github.com/KirkDiggler/headsteal/internal/scheduler"
	"github.com/KirkDiggler/headsteal/internal/services/ability"
	"github.com/KirkDiggler/headsteal/internal/services/banbox"
	"github.com/KirkDiggler/headsteal/internal/services/combo"
	"github.com/KirkDiggler/headsteal/internal/services/heads"
	"github.com/KirkDiggler/headsteal/internal/services/input"
	"github.com/KirkDiggler/headsteal/internal/services/summon"
	"github.com/KirkDiggler/headsteal/internal/uuid"
	"github.com/KirkDiggler/headsteal/internal/world"
)

// Provider holds all service instances
type Provider struct {
	Config      *config.Config
	Catalog     *catalog.HeadCatalog
	World       *world.Memory
	Scheduler   *scheduler.Scheduler
	Bus         *events.Bus
	Permissions *permissions.Static

	Summons   *summon.Manager
	Abilities ability.Service
	Combos    combo.Service
	Router    *input.Router
	BanBox    banbox.Service
	Heads     heads.Service
	Gateway   *gateway.Gateway

	periodic []*scheduler.Task
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	Config *config.Config

	// Optional overrides; nil values are built from Config
	Catalog     *catalog.HeadCatalog
	World       *world.Memory
	Scheduler   *scheduler.Scheduler
	Permissions *permissions.Static
	Repository  banboxrepo.Repository
	TokenIDs    uuid.Generator
	Roller      heads.Roller

	// Sinks added to world chat for BanBox announcements
	Notifiers []notify.Notifier
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(cfg *ProviderConfig) (*Provider, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, apperr.InvalidArgument("provider config is required")
	}
	c := cfg.Config

	headCatalog := cfg.Catalog
	if headCatalog == nil {
		var err error
		headCatalog, err = catalog.New(&catalog.Config{Path: c.Host.CatalogPath})
		if err != nil {
			return nil, apperr.Wrap(err, "failed to load head catalog")
		}
	}

	surface := cfg.World
	if surface == nil {
		surface = world.NewMemory(&world.MemoryConfig{
			Worlds:       c.Host.Worlds,
			DefaultSpawn: c.Host.Spawn(),
		})
	}

	sched := cfg.Scheduler
	if sched == nil {
		sched = scheduler.New(nil)
	}

	perms := cfg.Permissions
	if perms == nil {
		perms = permissions.NewDefault()
	}

	// Use in-memory repository if none provided
	repo := cfg.Repository
	if repo == nil {
		repo = banboxrepo.NewInMemory()
	}

	bus := events.NewBus()

	summons := summon.NewManager(&summon.Config{
		World:        surface,
		Scheduler:    sched,
		MaxPerPlayer: c.Summon.MaxPerPlayer,
	})

	engine := ability.NewService(&ability.ServiceConfig{
		Catalog:            headCatalog,
		Permissions:        perms,
		World:              surface,
		Tracker:            summons,
		Clock:              sched.Clock(),
		MaxConcurrent:      c.Ability.MaxConcurrent,
		UseCooldowns:       c.Ability.UseCooldowns,
		GlobalCooldown:     c.Ability.GlobalCooldown,
		CooldownMultiplier: c.Ability.CooldownMultiplier,
		Sounds:             c.Ability.Sounds,
		Particles:          c.Ability.Particles,
	})
	abilities.RegisterAll(engine)

	combos := combo.NewService(&combo.ServiceConfig{
		Scheduler:         sched,
		Executor:          engine,
		Enabled:           c.Combo.Enabled,
		DoubleClickWindow: c.Combo.DoubleClickWindow,
		ResetWindow:       c.Combo.ResetWindow,
		History:           c.Combo.History,
	})
	engine.AddCache(combos)

	router := input.NewRouter(&input.Config{
		Catalog:   headCatalog,
		World:     surface,
		Abilities: engine,
		Combos:    combos,
	})

	sinks := notify.Multi{notify.NewWorldChat(surface)}
	sinks = append(sinks, cfg.Notifiers...)

	boxes := banbox.NewService(&banbox.ServiceConfig{
		Repository:        repo,
		World:             surface,
		Scheduler:         sched,
		Tokens:            catalog.NewIdentityTokens(cfg.TokenIDs),
		Permissions:       perms,
		Notifier:          sinks,
		Enabled:           c.BanBox.Enabled,
		TimerDays:         c.BanBox.TimerDays,
		DisabledWorlds:    c.BanBox.DisabledWorlds,
		EnabledWorlds:     c.BanBox.EnabledWorlds,
		BroadcastDeaths:   c.BanBox.BroadcastDeaths,
		BroadcastRevives:  c.BanBox.BroadcastRevives,
		BroadcastReleases: c.BanBox.BroadcastReleases,
		CrossWorldRevive:  c.BanBox.CrossWorldRevive,
		DefaultLocation:   c.BanBox.Location(),
		ReminderInterval:  c.BanBox.ReminderInterval,
		ReminderEvery:     c.BanBox.ReminderEvery,
		ReminderLimit:     c.BanBox.ReminderLimit,
		ReviverExperience: c.BanBox.ReviverExperience,
	})

	drops := heads.NewService(&heads.ServiceConfig{
		Heads:          headCatalog,
		World:          surface,
		Notifier:       sinks,
		Roller:         cfg.Roller,
		Enabled:        c.Heads.Enabled,
		DropChance:     c.Heads.DropChance,
		DisabledWorlds: c.Heads.DisabledWorlds,
		EnabledWorlds:  c.Heads.EnabledWorlds,
		Broadcast:      c.Heads.Broadcast,
		Particles:      c.Heads.Particles,
	})

	bus.Subscribe(combo.NewListener(combos), events.EventTypePlayerDeath, events.EventTypePlayerQuit)
	bus.Subscribe(summon.NewListener(summons, c.Summon.RestrictedWorlds),
		events.EventTypePlayerQuit, events.EventTypeWorldChange)
	bus.Subscribe(banbox.NewListener(boxes),
		events.EventTypePlayerDeath, events.EventTypePlayerJoin, events.EventTypePlayerQuit,
		events.EventTypeTokenInteract, events.EventTypeTokenDestroyed)
	bus.Subscribe(input.NewListener(router), events.EventTypePlayerGesture, events.EventTypeHelmetChange)
	bus.Subscribe(heads.NewListener(drops), events.EventTypeEntityDeath)

	surface.OnRemoved(func(obj world.Object, cause world.RemovalCause) {
		if obj.Item == nil || cause == world.RemovedByCore {
			return
		}
		if err := bus.Emit(events.NewTokenDestroyedEvent(obj.ID, *obj.Item, cause)); err != nil {
			logger.ForComponent("provider").WithError(err).Warn("token destroyed listeners failed")
		}
	})

	gw := gateway.New(&gateway.Config{
		World:    surface,
		Bus:      bus,
		Queue:    sched,
		Heads:    headCatalog,
		Operator: boxes,
		Addr:     c.Host.GatewayAddr,
	})

	return &Provider{
		Config:      c,
		Catalog:     headCatalog,
		World:       surface,
		Scheduler:   sched,
		Bus:         bus,
		Permissions: perms,
		Summons:     summons,
		Abilities:   engine,
		Combos:      combos,
		Router:      router,
		BanBox:      boxes,
		Heads:       drops,
		Gateway:     gw,
	}, nil
}

// Start loads persisted records, schedules periodic upkeep and opens the engine
func (p *Provider) Start(ctx context.Context) error {
	if err := p.BanBox.Start(ctx); err != nil {
		return err
	}

	c := p.Config
	p.periodic = append(p.periodic,
		p.Scheduler.Every(c.BanBox.SweepInterval, func() {
			if n := p.BanBox.Sweep(ctx); n > 0 {
				logger.ForComponent("banbox").WithField("released", n).Info("expired records released")
			}
		}),
		p.Scheduler.Every(c.Summon.SweepInterval, func() {
			if n := p.Summons.Sweep(); n > 0 {
				logger.ForComponent("summon").WithField("removed", n).Debug("dead summons swept")
			}
		}),
		p.Scheduler.Every(c.Ability.CleanupInterval, func() {
			logger.ForComponent("ability").WithFields(logrus.Fields{
				"cooldowns": p.Abilities.PurgeExpired(),
				"combos":    p.Combos.Sweep(),
			}).Debug("expired ability state purged")
		}),
	)

	p.Abilities.SetReady(true)
	logger.ForComponent("provider").WithFields(logrus.Fields{
		"abilities": len(p.Abilities.RegisteredTypes()),
		"heads":     len(p.Catalog.All()),
		"boxed":     p.BanBox.BoxedCount(),
	}).Info("services started")
	return nil
}

// Reload re-reads the head catalog and clears per-player ability state
func (p *Provider) Reload() error {
	if err := p.Catalog.Reload(); err != nil {
		return apperr.Wrap(err, "failed to reload head catalog")
	}
	p.Abilities.Reload()
	return nil
}

// Stop closes the engine, removes summons and flushes BanBox records
func (p *Provider) Stop(ctx context.Context) error {
	p.Abilities.SetReady(false)
	for _, t := range p.periodic {
		t.Cancel()
	}
	p.periodic = nil

	p.Abilities.Cleanup()
	return p.BanBox.Shutdown(ctx)
}

// Stats is a snapshot of host counters
type Stats struct {
	Abilities *ability.Stats
	Summoned  int
	Combos    int
	Boxed     int
}

// Stats reports host counters
func (p *Provider) Stats() Stats {
	return Stats{
		Abilities: p.Abilities.Stats(),
		Summoned:  p.Summons.Total(),
		Combos:    p.Combos.Tracked(),
		Boxed:     p.BanBox.BoxedCount(),
	}
}
