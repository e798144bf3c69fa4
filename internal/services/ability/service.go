package ability

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/KirkDiggler/headsteal/internal/catalog"
	"github.com/KirkDiggler/headsteal/internal/chat"
	"github.com/KirkDiggler/headsteal/internal/entities"
	apperr "github.com/KirkDiggler/headsteal/internal/errors"
	"github.com/KirkDiggler/headsteal/internal/logger"
	"github.com/KirkDiggler/headsteal/internal/permissions"
	"github.com/KirkDiggler/headsteal/internal/scheduler"
	"github.com/KirkDiggler/headsteal/internal/world"
)

const (
	defaultMaxConcurrent = 10
	cooldownParam        = "cooldown"
	particleCount        = 20
)

// service is the execution engine. Gates run in order: ready, permission,
// registry, cooldown, concurrency ceiling.
type service struct {
	registry    *Registry
	catalog     catalog.Catalog
	permissions permissions.Provider
	world       world.Surface
	tracker     Tracker
	clock       scheduler.Clock

	maxConcurrent      int32
	useCooldowns       bool
	globalCooldown     time.Duration
	cooldownMultiplier float64
	sounds             bool
	particles          bool

	ready    atomic.Bool
	active   atomic.Int32
	executed atomic.Int64
	rejected atomic.Int64
	failed   atomic.Int64

	cooldowns *cooldowns

	mu           sync.Mutex
	activeByUser map[string]string
	caches       []Cache
}

// ServiceConfig holds configuration for the ability engine
type ServiceConfig struct {
	Catalog     catalog.Catalog
	Permissions permissions.Provider
	World       world.Surface
	Tracker     Tracker
	Clock       scheduler.Clock

	MaxConcurrent      int
	UseCooldowns       bool
	GlobalCooldown     time.Duration
	CooldownMultiplier float64
	Sounds             bool
	Particles          bool
}

// NewService creates the ability engine. It starts not ready.
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil {
		panic("ability service config is required")
	}
	if cfg.Catalog == nil {
		panic("head catalog is required")
	}
	if cfg.Permissions == nil {
		panic("permission provider is required")
	}
	if cfg.World == nil {
		panic("world surface is required")
	}

	svc := &service{
		registry:           NewRegistry(),
		catalog:            cfg.Catalog,
		permissions:        cfg.Permissions,
		world:              cfg.World,
		tracker:            cfg.Tracker,
		clock:              cfg.Clock,
		maxConcurrent:      int32(cfg.MaxConcurrent),
		useCooldowns:       cfg.UseCooldowns,
		globalCooldown:     cfg.GlobalCooldown,
		cooldownMultiplier: cfg.CooldownMultiplier,
		sounds:             cfg.Sounds,
		particles:          cfg.Particles,
		cooldowns:          newCooldowns(),
		activeByUser:       make(map[string]string),
	}

	if svc.clock == nil {
		svc.clock = scheduler.RealClock{}
	}
	if svc.maxConcurrent <= 0 {
		svc.maxConcurrent = defaultMaxConcurrent
	}
	if svc.cooldownMultiplier <= 0 {
		svc.cooldownMultiplier = 1
	}

	return svc
}

// Register implements Service
func (s *service) Register(ability Ability) {
	s.registry.Register(ability)
}

func (s *service) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *service) Ready() bool {
	return s.ready.Load()
}

func (s *service) AddCache(cache Cache) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caches = append(s.caches, cache)
}

// ExecuteRegular implements Service
func (s *service) ExecuteRegular(ctx context.Context, playerID string, descriptor *entities.AbilityDescriptor) (Outcome, error) {
	if descriptor == nil {
		return s.reject(playerID, "", apperr.InvalidArgument("ability descriptor is required"), "")
	}
	return s.execute(ctx, playerID, descriptor, false)
}

// ExecuteBossSlot implements Service
func (s *service) ExecuteBossSlot(ctx context.Context, playerID, headKey string, slot entities.ActivationSlot) (Outcome, error) {
	head, ok := s.catalog.Get(headKey)
	if !ok {
		return s.reject(playerID, "", apperr.NotFoundf("unknown head %q", headKey), "")
	}

	descriptor, ok := head.BossAbility(slot)
	if !ok {
		logger.ForPlayer(playerID).WithFields(logrus.Fields{
			"head": headKey,
			"slot": slot,
		}).Debug("no boss ability bound to slot")
		return OutcomeNoOp, nil
	}

	return s.execute(ctx, playerID, descriptor, true)
}

func (s *service) execute(ctx context.Context, playerID string, descriptor *entities.AbilityDescriptor, boss bool) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.ForPlayer(playerID).WithField("ability", descriptor.Type).WithField("panic", r).Error("ability pipeline panicked")
			s.failed.Add(1)
			outcome, err = OutcomeFailed, apperr.Internalf("ability %s panicked", descriptor.Type)
		}
	}()

	if !s.Ready() {
		return s.reject(playerID, descriptor.Type, apperr.Unavailable("ability engine is not ready"), "")
	}

	capability := permissions.AbilityUse
	if boss {
		capability = permissions.AbilityBoss
	}
	if !s.permissions.HasCapability(playerID, capability) {
		return s.reject(playerID, descriptor.Type,
			apperr.PermissionDeniedf("player lacks %s", capability),
			chat.Error("You don't have permission to use that ability."))
	}

	ability, ok := s.registry.Get(descriptor.Type)
	if !ok {
		return s.reject(playerID, descriptor.Type, apperr.NotFoundf("unknown ability type %q", descriptor.Type), "")
	}

	now := s.clock.Now()
	if s.useCooldowns && !boss {
		if left := s.cooldowns.remaining(playerID, descriptor.Type, now); left > 0 {
			secs := int(math.Ceil(left.Seconds()))
			return s.reject(playerID, descriptor.Type,
				apperr.FailedPreconditionf("%s is on cooldown", descriptor.Type).WithMeta("remaining", left),
				chat.Error("%s is on cooldown for %ds", DisplayName(descriptor.Type), secs))
		}
	}

	if !s.acquire() {
		return s.reject(playerID, descriptor.Type,
			apperr.ResourceExhaustedf("concurrent ability limit %d reached", s.maxConcurrent),
			chat.Error("System busy, try again in a moment."))
	}
	defer s.release()

	s.setActive(playerID, descriptor.Type)
	defer s.clearActive(playerID)

	player, _ := s.world.Player(playerID)
	player.ID = playerID
	ac := &Context{
		Player:     player,
		Descriptor: descriptor,
		Params:     descriptor.Params.Clone(),
		Boss:       boss,
		At:         now,
		World:      s.world,
		tracker:    s.tracker,
		particles:  s.particles,
	}

	if err := s.runBody(ctx, ability, ac); err != nil {
		return s.fail(playerID, descriptor.Type, err)
	}

	if s.useCooldowns && !boss {
		if d := s.cooldownFor(descriptor); d > 0 {
			s.cooldowns.start(playerID, descriptor.Type, now.Add(d))
		}
	}

	s.acknowledge(ac, ability)
	s.executed.Add(1)

	logger.ForPlayer(playerID).WithFields(logrus.Fields{
		"ability": descriptor.Type,
		"boss":    boss,
	}).Debug("ability executed")
	return OutcomeExecuted, nil
}

// runBody is the failure boundary around an effect body
func (s *service) runBody(ctx context.Context, ability Ability, ac *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ability.Execute(ctx, ac)
}

func (s *service) acquire() bool {
	for {
		current := s.active.Load()
		if current >= s.maxConcurrent {
			return false
		}
		if s.active.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// release never takes the counter below zero, so a Cleanup during an
// in-flight invocation cannot leave it negative
func (s *service) release() {
	for {
		current := s.active.Load()
		if current <= 0 {
			return
		}
		if s.active.CompareAndSwap(current, current-1) {
			return
		}
	}
}

func (s *service) cooldownFor(descriptor *entities.AbilityDescriptor) time.Duration {
	if own := descriptor.Params.Seconds(cooldownParam, 0); own > 0 {
		return own
	}
	return time.Duration(float64(s.globalCooldown) * s.cooldownMultiplier)
}

func (s *service) acknowledge(ac *Context, ability Ability) {
	name := DisplayName(ac.Descriptor.Type)
	if ac.Boss {
		s.world.ShowActionBar(ac.Player.ID, chat.Line(chat.Gold, "Boss ability used: %s", name))
	} else {
		s.world.ShowActionBar(ac.Player.ID, chat.Success("%s activated", name))
	}

	cosmetic, ok := ability.(Cosmetic)
	if !ok {
		return
	}
	if s.sounds && cosmetic.Sound() != "" {
		s.world.PlaySound(ac.Player.ID, cosmetic.Sound())
	}
	ac.Particles(ac.Location(), cosmetic.Particle(), particleCount)
}

func (s *service) reject(playerID, abilityType string, err *apperr.Error, message string) (Outcome, error) {
	s.rejected.Add(1)
	logger.ForPlayer(playerID).WithFields(logrus.Fields(apperr.GetMeta(err))).WithFields(logrus.Fields{
		"ability": abilityType,
		"code":    err.Code,
	}).Debug(err.Message)

	if message != "" {
		s.world.ShowActionBar(playerID, message)
	}
	return OutcomeRejected, err
}

func (s *service) fail(playerID, abilityType string, cause error) (Outcome, error) {
	s.failed.Add(1)

	// Abilities report "nothing to do" as a precondition; that is not worth an error log
	if apperr.Is(cause, apperr.CodeFailedPrecondition) {
		logger.ForPlayer(playerID).WithField("ability", abilityType).WithError(cause).Debug("ability did not apply")
		s.world.ShowActionBar(playerID, chat.Error("%s", apperr.GetMessage(cause)))
	} else {
		logger.ForPlayer(playerID).WithField("ability", abilityType).WithError(cause).Error("ability execution failed")
		s.world.SendMessage(playerID, chat.Error("Something went wrong using %s.", DisplayName(abilityType)))
	}

	return OutcomeFailed, apperr.WrapWithCode(cause, apperr.CodeInternal, fmt.Sprintf("ability %s failed", abilityType))
}

func (s *service) setActive(playerID, abilityType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeByUser[playerID] = abilityType
}

func (s *service) clearActive(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeByUser, playerID)
}

// Reload implements Service
func (s *service) Reload() {
	s.cooldowns.clear()
	for _, cache := range s.cacheList() {
		cache.ResetAll()
	}
	logger.ForComponent("ability").Info("ability caches cleared for reload")
}

// Cleanup implements Service. Safe to call more than once.
func (s *service) Cleanup() {
	if s.tracker != nil {
		s.tracker.ReleaseEverything()
	}
	s.cooldowns.clear()
	for _, cache := range s.cacheList() {
		cache.ResetAll()
	}

	s.mu.Lock()
	s.activeByUser = make(map[string]string)
	s.mu.Unlock()

	s.active.Store(0)
	logger.ForComponent("ability").Info("ability engine cleaned up")
}

func (s *service) cacheList() []Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Cache(nil), s.caches...)
}

func (s *service) PurgeExpired() int {
	return s.cooldowns.purge(s.clock.Now())
}

func (s *service) CooldownRemaining(playerID, abilityType string) time.Duration {
	return s.cooldowns.remaining(playerID, abilityType, s.clock.Now())
}

func (s *service) ActiveCount() int {
	return int(s.active.Load())
}

func (s *service) ActiveAbility(playerID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.activeByUser[playerID]
	return t, ok
}

func (s *service) RegisteredTypes() []string {
	return s.registry.List()
}

func (s *service) Stats() *Stats {
	return &Stats{
		Registered: s.registry.Len(),
		Active:     s.ActiveCount(),
		Executed:   s.executed.Load(),
		Rejected:   s.rejected.Load(),
		Failed:     s.failed.Load(),
	}
}

// DisplayName turns an ability type like "dragon_breath" into "Dragon Breath"
func DisplayName(abilityType string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(abilityType, "_", " "))
}
