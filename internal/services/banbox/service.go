// Package banbox manages the restricted spectating state players enter on death
// and the four ways out of it: revival through the identity token, token
// destruction, timer expiry and operator release.
package banbox

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/headsteal/internal/catalog"
	"github.com/KirkDiggler/headsteal/internal/chat"
	"github.com/KirkDiggler/headsteal/internal/entities"
	apperr "github.com/KirkDiggler/headsteal/internal/errors"
	"github.com/KirkDiggler/headsteal/internal/logger"
	"github.com/KirkDiggler/headsteal/internal/notify"
	"github.com/KirkDiggler/headsteal/internal/permissions"
	banboxrepo "github.com/KirkDiggler/headsteal/internal/repositories/banbox"
	"github.com/KirkDiggler/headsteal/internal/scheduler"
	"github.com/KirkDiggler/headsteal/internal/world"
)

// ServiceConfig holds dependencies and options for the BanBox service
type ServiceConfig struct {
	Repository  banboxrepo.Repository
	World       world.Surface
	Scheduler   *scheduler.Scheduler
	Tokens      catalog.TokenProvider
	Permissions permissions.Provider
	Notifier    notify.Notifier

	Enabled           bool
	TimerDays         int
	DisabledWorlds    []string
	EnabledWorlds     []string
	BroadcastDeaths   bool
	BroadcastRevives  bool
	BroadcastReleases bool
	CrossWorldRevive  bool
	DefaultLocation   entities.Location

	// ReminderInterval of zero disables reminders
	ReminderInterval  time.Duration
	ReminderEvery     int
	ReminderLimit     int
	ReviverExperience int
}

type service struct {
	world       world.Surface
	scheduler   *scheduler.Scheduler
	tokens      catalog.TokenProvider
	permissions permissions.Provider
	notifier    notify.Notifier
	persister   *persister
	cfg         ServiceConfig

	disabled map[string]bool
	enabled  map[string]bool

	mu        sync.RWMutex
	records   map[string]*entities.BanBoxRecord
	tokenObjs map[string]world.ObjectID
	reminders map[string]*scheduler.Task
}

// NewService creates a BanBox service
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil || cfg.Repository == nil {
		panic("banbox repository is required")
	}
	if cfg.World == nil {
		panic("world surface is required")
	}
	if cfg.Scheduler == nil {
		panic("scheduler is required")
	}
	if cfg.Tokens == nil {
		panic("token provider is required")
	}
	if cfg.Permissions == nil {
		panic("permission provider is required")
	}

	s := &service{
		world:       cfg.World,
		scheduler:   cfg.Scheduler,
		tokens:      cfg.Tokens,
		permissions: cfg.Permissions,
		notifier:    cfg.Notifier,
		persister:   newPersister(cfg.Repository),
		cfg:         *cfg,
		disabled:    toSet(cfg.DisabledWorlds),
		enabled:     toSet(cfg.EnabledWorlds),
		records:     make(map[string]*entities.BanBoxRecord),
		tokenObjs:   make(map[string]world.ObjectID),
		reminders:   make(map[string]*scheduler.Task),
	}
	if s.cfg.TimerDays == 0 {
		s.cfg.TimerDays = defaultTimerDays
	}
	if s.cfg.ReminderEvery <= 0 {
		s.cfg.ReminderEvery = defaultReminderEvery
	}
	if s.cfg.ReminderLimit <= 0 {
		s.cfg.ReminderLimit = defaultReminderLimit
	}
	if s.cfg.ReviverExperience <= 0 {
		s.cfg.ReviverExperience = defaultReviverExperience
	}
	return s
}

func toSet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out[v] = true
		}
	}
	return out
}

func guard(op, playerID string) {
	if r := recover(); r != nil {
		logger.ForPlayer(playerID).WithFields(logrus.Fields{
			"op":    op,
			"panic": r,
		}).Error("banbox handler panicked")
	}
}

// Start implements Service
func (s *service) Start(ctx context.Context) error {
	loaded, err := s.persister.repo.LoadAll(ctx)
	if err != nil {
		return apperr.Wrap(err, "failed to load banbox records")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range loaded {
		if rec == nil || rec.PlayerID == "" {
			continue
		}
		s.records[rec.PlayerID] = rec.Clone()
	}

	logger.ForComponent("banbox").WithField("records", len(s.records)).Info("banbox records loaded")
	return nil
}

// HandleDeath implements Service
func (s *service) HandleDeath(ctx context.Context, playerID string, at entities.Location, killerID string) bool {
	defer guard("death", playerID)

	if !s.qualifies(playerID, &at) {
		return false
	}

	player, ok := s.world.Player(playerID)
	if !ok {
		player = entities.Player{ID: playerID, Name: playerID}
	}

	token := s.tokens.NewToken(player)
	objectID, err := s.world.DropItem(at, token)
	if err != nil {
		logger.ForPlayer(playerID).WithError(err).WithField("location", at.String()).
			Error("could not drop identity token, player not boxed")
		return false
	}
	_, tokenID, _ := s.tokens.TokenOwner(&token)

	rec := &entities.BanBoxRecord{
		PlayerID:      playerID,
		PlayerName:    player.Name,
		DeathLocation: at,
		BannedAt:      s.scheduler.Now(),
		TimerDays:     s.cfg.TimerDays,
		KillerID:      killerID,
		TokenID:       tokenID,
		Status:        entities.BanBoxStatusBoxed,
	}

	s.mu.Lock()
	s.records[playerID] = rec
	s.tokenObjs[playerID] = objectID
	s.mu.Unlock()
	s.persist()

	s.applyRestriction(rec)
	s.world.SendMessage(playerID, s.entryLines()...)
	s.world.PlaySound(playerID, soundBoxed)

	if s.cfg.BroadcastDeaths {
		s.broadcast(ctx, notify.CategoryDeath,
			chat.Error("%s has been banboxed! Find their head to revive them.", player.Name))
	}

	logger.ForPlayer(playerID).WithFields(logrus.Fields{
		"record":   tokenID,
		"location": at.String(),
		"killer":   killerID,
	}).Info("player entered banbox")
	return true
}

func (s *service) qualifies(playerID string, at *entities.Location) bool {
	if !s.cfg.Enabled {
		return false
	}

	switch s.world.GameMode(playerID) {
	case entities.GameModeCreative, entities.GameModeSpectator:
		return false
	}

	s.mu.RLock()
	_, exists := s.records[playerID]
	s.mu.RUnlock()
	if exists {
		return false
	}

	if at.World == "" {
		loc, ok := s.world.PlayerLocation(playerID)
		if !ok {
			return false
		}
		*at = loc
	}
	if s.disabled[at.World] {
		return false
	}
	if len(s.enabled) > 0 && !s.enabled[at.World] {
		return false
	}

	if s.permissions.HasCapability(playerID, permissions.AdminBypass) {
		return false
	}
	return s.permissions.HasCapability(playerID, permissions.BanBoxEnter)
}

func (s *service) entryLines() []string {
	rule := chat.Line(chat.Red, "═══════════════════════════════")
	lines := []string{
		rule,
		chat.Line(chat.DarkRed, "        YOU HAVE DIED!"),
		chat.Notice("You are now in BanBox mode."),
		chat.Line(chat.Gray, "Another player must find and interact with"),
		chat.Line(chat.Gray, "your head to revive you at this location."),
	}
	if s.cfg.TimerDays > 0 {
		lines = append(lines, chat.Error("Otherwise you are released in %d days.", s.cfg.TimerDays))
	}
	return append(lines, rule)
}

// applyRestriction puts an online player into the spectating state above the death spot
func (s *service) applyRestriction(rec *entities.BanBoxRecord) {
	log := logger.ForPlayer(rec.PlayerID)
	if err := s.world.SetGameMode(rec.PlayerID, entities.GameModeSpectator); err != nil {
		log.WithError(err).Warn("could not switch boxed player to spectator")
	}
	if err := s.world.Teleport(rec.PlayerID, s.resolve(rec.DeathLocation).Add(0, spectatorLift, 0)); err != nil {
		log.WithError(err).Warn("could not move boxed player to death location")
	}
	s.startReminders(rec.PlayerID)
}

func (s *service) startReminders(playerID string) {
	if s.cfg.ReminderInterval <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old := s.reminders[playerID]; old != nil {
		old.Cancel()
	}

	count := 0
	var task *scheduler.Task
	task = s.scheduler.Every(s.cfg.ReminderInterval, func() {
		if !s.world.IsOnline(playerID) || !s.IsBoxed(playerID) {
			s.stopReminders(playerID, task)
			return
		}
		count++
		if count%s.cfg.ReminderEvery == 0 {
			s.world.SendMessage(playerID, chat.Notice("You are still banboxed. Waiting for revival..."))
		}
		if count >= s.cfg.ReminderLimit {
			s.stopReminders(playerID, task)
		}
	})
	s.reminders[playerID] = task
}

// stopReminders cancels the player's reminder task, or only the given task when it is non-nil
func (s *service) stopReminders(playerID string, only *scheduler.Task) {
	s.mu.Lock()
	task := s.reminders[playerID]
	if task != nil && (only == nil || only == task) {
		delete(s.reminders, playerID)
	}
	s.mu.Unlock()

	if only != nil {
		only.Cancel()
	} else if task != nil {
		task.Cancel()
	}
}

// HandleTokenInteract implements Service
func (s *service) HandleTokenInteract(ctx context.Context, interactorID string, objectID world.ObjectID, item entities.Item) bool {
	defer guard("token_interact", interactorID)

	ownerID, tokenID, ok := s.tokens.TokenOwner(&item)
	if !ok {
		return false
	}

	rec, live := s.activeRecord(ownerID, tokenID)
	if !live {
		// The record is gone, so the token is just litter
		s.world.Despawn(objectID)
		logger.ForPlayer(ownerID).WithField("object", objectID).Debug("removed stale identity token")
		return false
	}

	if interactorID == ownerID {
		s.world.SendMessage(interactorID, chat.Error("You cannot revive yourself."))
		return false
	}
	if s.IsBoxed(interactorID) {
		return false
	}

	at, ok := s.world.ObjectLocation(objectID)
	if !ok {
		at = rec.DeathLocation
	}

	if !s.cfg.CrossWorldRevive {
		if here, ok := s.world.PlayerLocation(interactorID); ok && here.World != at.World {
			s.world.SendMessage(interactorID, chat.Error("You must be in the same world to revive %s.", rec.PlayerName))
			return false
		}
	}

	reviver, ok := s.world.Player(interactorID)
	if !ok {
		reviver = entities.Player{ID: interactorID, Name: interactorID}
	}

	s.world.Despawn(objectID)
	s.release(ctx, rec, entities.ReleaseRevived, at, reviver.Name)

	if s.cfg.ReviverExperience > 0 {
		if err := s.world.GiveExperience(interactorID, s.cfg.ReviverExperience); err != nil {
			logger.ForPlayer(interactorID).WithError(err).Warn("could not reward reviver")
		}
	}
	s.world.PlaySound(interactorID, soundReward)
	s.world.SendMessage(interactorID, chat.Success("You revived %s! (+%d XP)", rec.PlayerName, s.cfg.ReviverExperience))
	return true
}

// HandleTokenDestroyed implements Service
func (s *service) HandleTokenDestroyed(ctx context.Context, objectID world.ObjectID, item entities.Item, cause world.RemovalCause) bool {
	if cause == world.RemovedByCore {
		return false
	}

	ownerID, tokenID, ok := s.tokens.TokenOwner(&item)
	if !ok {
		return false
	}
	defer guard("token_destroyed", ownerID)

	rec, live := s.activeRecord(ownerID, tokenID)
	if !live {
		return false
	}

	s.mu.Lock()
	if s.tokenObjs[ownerID] == objectID {
		delete(s.tokenObjs, ownerID)
	}
	s.mu.Unlock()

	logger.ForPlayer(ownerID).WithFields(logrus.Fields{
		"object": objectID,
		"cause":  cause,
	}).Info("identity token destroyed")

	s.release(ctx, rec, entities.ReleaseDestroyed, rec.DeathLocation, "")
	return true
}

// activeRecord returns a copy of the owner's boxed record if the token id matches it
func (s *service) activeRecord(ownerID, tokenID string) (*entities.BanBoxRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.records[ownerID]
	if !rec.IsBoxed() {
		return nil, false
	}
	if rec.TokenID != "" && tokenID != "" && rec.TokenID != tokenID {
		return nil, false
	}
	return rec.Clone(), true
}

// HandleJoin implements Service
func (s *service) HandleJoin(ctx context.Context, playerID string) {
	defer guard("join", playerID)

	s.mu.RLock()
	rec := s.records[playerID].Clone()
	s.mu.RUnlock()
	if rec == nil {
		return
	}

	log := logger.ForPlayer(playerID).WithField("status", rec.Status)

	if rec.IsBoxed() {
		if rec.Expired(s.scheduler.Now()) {
			s.release(ctx, rec, entities.ReleaseExpired, s.cfg.DefaultLocation, "")
			return
		}
		s.applyRestriction(rec)
		s.world.SendMessage(playerID, chat.Notice("You are still in the BanBox. Waiting for revival..."))
		log.Info("re-applied banbox restriction on login")
		return
	}

	at := rec.DeathLocation
	if rec.RestoreLocation != nil {
		at = *rec.RestoreLocation
	}
	if err := s.restore(playerID, at); err != nil {
		log.WithError(err).Error("pending restoration failed, keeping record")
		return
	}

	s.mu.Lock()
	delete(s.records, playerID)
	s.mu.Unlock()
	s.persist()

	s.world.SendMessage(playerID, releaseMessage(rec.ReleaseReason, rec.ReviverName))
	log.Info("completed pending restoration on login")
}

// HandleQuit implements Service
func (s *service) HandleQuit(playerID string) {
	s.stopReminders(playerID, nil)
}

// Sweep implements Service
func (s *service) Sweep(ctx context.Context) int {
	defer guard("sweep", "")

	now := s.scheduler.Now()
	var expired []*entities.BanBoxRecord

	s.mu.RLock()
	for _, rec := range s.records {
		if rec.IsBoxed() && rec.Expired(now) {
			expired = append(expired, rec.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(expired, func(i, j int) bool { return expired[i].PlayerID < expired[j].PlayerID })
	for _, rec := range expired {
		s.release(ctx, rec, entities.ReleaseExpired, s.cfg.DefaultLocation, "")
	}
	if len(expired) > 0 {
		logger.ForComponent("banbox").WithField("released", len(expired)).Info("banbox timers expired")
	}
	return len(expired)
}

// Release implements Service
func (s *service) Release(ctx context.Context, playerID string) bool {
	defer guard("release", playerID)

	s.mu.RLock()
	rec := s.records[playerID].Clone()
	s.mu.RUnlock()
	if !rec.IsBoxed() {
		return false
	}

	s.release(ctx, rec, entities.ReleaseManual, s.cfg.DefaultLocation, "")
	return true
}

// ReleaseByName implements Service
func (s *service) ReleaseByName(ctx context.Context, name string) (string, bool) {
	s.mu.RLock()
	var playerID string
	for id, rec := range s.records {
		if rec.IsBoxed() && strings.EqualFold(rec.PlayerName, name) {
			playerID = id
			break
		}
	}
	s.mu.RUnlock()

	if playerID == "" {
		return "", false
	}
	return playerID, s.Release(ctx, playerID)
}

// release is the single exit from the boxed state. An online player is restored
// before the record goes away; an offline player keeps a pending record that
// HandleJoin finishes.
func (s *service) release(ctx context.Context, rec *entities.BanBoxRecord, reason entities.ReleaseReason, at entities.Location, reviverName string) {
	playerID := rec.PlayerID
	s.stopReminders(playerID, nil)

	s.mu.Lock()
	objectID, hasToken := s.tokenObjs[playerID]
	delete(s.tokenObjs, playerID)
	s.mu.Unlock()
	if hasToken && reason != entities.ReleaseDestroyed {
		s.world.Despawn(objectID)
	}

	log := logger.ForPlayer(playerID).WithFields(logrus.Fields{
		"reason": reason,
		"record": rec.TokenID,
	})

	restored := false
	if s.world.IsOnline(playerID) {
		if err := s.restore(playerID, at); err != nil {
			log.WithError(err).Warn("restore failed, deferring to next login")
		} else {
			restored = true
		}
	}

	s.mu.Lock()
	if restored {
		delete(s.records, playerID)
	} else {
		pending := rec.Clone()
		pending.Status = entities.BanBoxStatusPendingRestore
		pending.RestoreLocation = &at
		pending.ReleaseReason = reason
		pending.ReviverName = reviverName
		s.records[playerID] = pending
	}
	s.mu.Unlock()
	s.persist()

	if restored {
		s.world.SendMessage(playerID, releaseMessage(reason, reviverName))
		if reason == entities.ReleaseRevived {
			s.world.PlaySound(playerID, soundRevived)
		}
	}
	s.announce(ctx, rec.PlayerName, reason, reviverName)
	log.WithField("restored", restored).Info("player left banbox")
}

// restore returns an online player to normal play at the given location
func (s *service) restore(playerID string, at entities.Location) error {
	if err := s.world.SetGameMode(playerID, entities.GameModeSurvival); err != nil {
		return err
	}
	if err := s.world.Teleport(playerID, s.resolve(at)); err != nil {
		logger.ForPlayer(playerID).WithError(err).Warn("could not teleport restored player")
	}
	if err := s.world.RestoreVitals(playerID); err != nil {
		logger.ForPlayer(playerID).WithError(err).Warn("could not restore vitals")
	}
	if err := s.world.RemoveEffects(playerID, world.NegativeEffects...); err != nil {
		logger.ForPlayer(playerID).WithError(err).Warn("could not clear negative effects")
	}
	return nil
}

// resolve falls back to the configured default and then to world spawn when a world is gone
func (s *service) resolve(at entities.Location) entities.Location {
	if at.World != "" && s.world.WorldExists(at.World) {
		return at
	}
	if d := s.cfg.DefaultLocation; d.World != "" && s.world.WorldExists(d.World) {
		logger.ForComponent("banbox").WithField("location", at.String()).Warn("location no longer resolves, using default location")
		return d
	}
	logger.ForComponent("banbox").WithField("location", at.String()).Warn("location no longer resolves, using world spawn")
	return s.world.DefaultSpawn()
}

func releaseMessage(reason entities.ReleaseReason, reviverName string) string {
	switch reason {
	case entities.ReleaseRevived:
		if reviverName == "" {
			return chat.Success("You have been revived!")
		}
		return chat.Success("You have been revived by %s!", reviverName)
	case entities.ReleaseDestroyed:
		return chat.Error("Your soul token was destroyed. You have been released from the BanBox.")
	case entities.ReleaseExpired:
		return chat.Notice("Your BanBox timer expired. You are free.")
	default:
		return chat.Notice("An operator released you from the BanBox.")
	}
}

func (s *service) announce(ctx context.Context, name string, reason entities.ReleaseReason, reviverName string) {
	switch reason {
	case entities.ReleaseRevived:
		if s.cfg.BroadcastRevives {
			s.broadcast(ctx, notify.CategoryRevive, chat.Success("%s was revived by %s.", name, reviverName))
		}
	case entities.ReleaseDestroyed:
		if s.cfg.BroadcastReleases {
			s.broadcast(ctx, notify.CategoryRelease, chat.Error("%s's soul token was destroyed. They are free.", name))
		}
	default:
		if s.cfg.BroadcastReleases {
			s.broadcast(ctx, notify.CategoryRelease, chat.Notice("%s was released from the BanBox (%s).", name, reason))
		}
	}
}

func (s *service) broadcast(ctx context.Context, category notify.Category, message string) {
	if s.notifier != nil {
		s.notifier.Broadcast(ctx, category, message)
	}
}

// persist hands the current snapshot to the background writer
func (s *service) persist() {
	s.persister.submit(s.snapshot())
}

func (s *service) snapshot() []*entities.BanBoxRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entities.BanBoxRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// IsBoxed implements Service
func (s *service) IsBoxed(playerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[playerID].IsBoxed()
}

// Record implements Service
func (s *service) Record(playerID string) (*entities.BanBoxRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[playerID]
	return rec.Clone(), ok
}

// Records implements Service
func (s *service) Records() []*entities.BanBoxRecord {
	return s.snapshot()
}

// BoxedCount implements Service
func (s *service) BoxedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.records {
		if rec.IsBoxed() {
			n++
		}
	}
	return n
}

// RunPersister implements Service
func (s *service) RunPersister(ctx context.Context) error {
	return s.persister.run(ctx)
}

// Flush implements Service
func (s *service) Flush(ctx context.Context) error {
	return s.persister.flush(ctx)
}

// Shutdown implements Service
func (s *service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	tasks := s.reminders
	s.reminders = make(map[string]*scheduler.Task)
	s.mu.Unlock()
	for _, t := range tasks {
		t.Cancel()
	}

	if err := s.persister.flush(ctx); err != nil {
		return fmt.Errorf("banbox shutdown: %w", err)
	}
	return nil
}
