package combo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/headsteal/internal/entities"
	"github.com/KirkDiggler/headsteal/internal/events"
	"github.com/KirkDiggler/headsteal/internal/logger"
	"github.com/KirkDiggler/headsteal/internal/scheduler"
)

// tracker is the per-player combo state
type tracker struct {
	machine     *fsm.FSM
	history     []Gesture
	lastGesture time.Time
	headKey     string
	pending     *scheduler.Task
	generation  uint64
}

func newTracker() *tracker {
	return &tracker{
		machine: fsm.NewFSM(
			StateIdle,
			fsm.Events{
				{Name: eventFirstClick, Src: []string{StateIdle}, Dst: StateAwaitingSecond},
				{Name: eventSecondClick, Src: []string{StateAwaitingSecond}, Dst: StateIdle},
				{Name: eventSingleTimeout, Src: []string{StateAwaitingSecond}, Dst: StateIdle},
			},
			fsm.Callbacks{},
		),
	}
}

func (t *tracker) fire(ctx context.Context, event string) {
	if err := t.machine.Event(ctx, event); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			logger.ForComponent("combo").WithError(err).WithField("event", event).Warn("unexpected combo transition")
		}
	}
}

func (t *tracker) cancelPending() {
	if t.pending != nil {
		t.pending.Cancel()
		t.pending = nil
	}
}

func (t *tracker) reset() {
	t.cancelPending()
	t.machine.SetState(StateIdle)
	t.history = t.history[:0]
	t.headKey = ""
}

// service owns every player's tracker. All methods run on the main loop.
type service struct {
	scheduler *scheduler.Scheduler
	executor  Executor

	enabled     bool
	window      time.Duration
	resetWindow time.Duration
	maxHistory  int

	mu       sync.Mutex
	trackers map[string]*tracker
}

// ServiceConfig holds configuration for the combo detector
type ServiceConfig struct {
	Scheduler *scheduler.Scheduler
	Executor  Executor

	Enabled           bool
	DoubleClickWindow time.Duration
	ResetWindow       time.Duration
	History           int
}

// NewService creates the combo detector
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil {
		panic("combo service config is required")
	}
	if cfg.Scheduler == nil {
		panic("scheduler is required")
	}
	if cfg.Executor == nil {
		panic("executor is required")
	}

	svc := &service{
		scheduler:   cfg.Scheduler,
		executor:    cfg.Executor,
		enabled:     cfg.Enabled,
		window:      cfg.DoubleClickWindow,
		resetWindow: cfg.ResetWindow,
		maxHistory:  cfg.History,
		trackers:    make(map[string]*tracker),
	}

	if svc.window <= 0 {
		svc.window = defaultWindowMillis * time.Millisecond
	}
	if svc.resetWindow <= 0 {
		svc.resetWindow = defaultResetMillis * time.Millisecond
	}
	if svc.resetWindow < svc.window {
		logger.ForComponent("combo").WithFields(logrus.Fields{
			"window":       svc.window,
			"reset_window": svc.resetWindow,
		}).Warn("combo reset window shorter than double-click window, raising it")
		svc.resetWindow = svc.window
	}
	if svc.maxHistory <= 0 {
		svc.maxHistory = defaultHistory
	}

	return svc
}

// HandleGesture implements Service
func (s *service) HandleGesture(ctx context.Context, playerID, headKey string, gesture Gesture) (entities.ActivationSlot, bool) {
	if !s.enabled {
		slot := entities.SlotLeftClick
		if gesture == GestureModified {
			slot = entities.SlotShiftLeftClick
		}
		s.dispatch(ctx, playerID, headKey, slot)
		return slot, true
	}

	now := s.scheduler.Now()

	s.mu.Lock()
	t, ok := s.trackers[playerID]
	if !ok {
		t = newTracker()
		s.trackers[playerID] = t
	} else if now.Sub(t.lastGesture) > s.resetWindow {
		t.reset()
	}

	t.lastGesture = now
	t.history = append(t.history, gesture)
	if len(t.history) > s.maxHistory {
		t.history = append(t.history[:0], t.history[len(t.history)-s.maxHistory:]...)
	}
	s.mu.Unlock()

	if gesture == GestureModified {
		s.dispatch(ctx, playerID, headKey, entities.SlotShiftLeftClick)
		return entities.SlotShiftLeftClick, true
	}

	// An unfired single-click check loses to the second click even when the
	// tick that processes the click lands after the window closed
	if t.machine.Current() == StateAwaitingSecond && t.pending != nil && !t.pending.Fired() {
		t.cancelPending()
		t.fire(ctx, eventSecondClick)
		s.dispatch(ctx, playerID, headKey, entities.SlotDoubleLeftClick)
		return entities.SlotDoubleLeftClick, true
	}

	s.startWindow(ctx, playerID, headKey, t)
	return "", false
}

func (s *service) startWindow(ctx context.Context, playerID, headKey string, t *tracker) {
	t.fire(ctx, eventFirstClick)
	t.headKey = headKey
	t.generation++
	generation := t.generation

	t.pending = s.scheduler.After(s.window, func() {
		s.resolveSingle(playerID, generation)
	})
}

func (s *service) resolveSingle(playerID string, generation uint64) {
	s.mu.Lock()
	t, ok := s.trackers[playerID]
	s.mu.Unlock()

	if !ok || t.generation != generation || t.machine.Current() != StateAwaitingSecond {
		return
	}

	ctx := context.Background()
	t.pending = nil
	t.fire(ctx, eventSingleTimeout)
	s.dispatch(ctx, playerID, t.headKey, entities.SlotLeftClick)
}

func (s *service) dispatch(ctx context.Context, playerID, headKey string, slot entities.ActivationSlot) {
	logger.ForPlayer(playerID).WithFields(logrus.Fields{
		"head": headKey,
		"slot": slot,
	}).Debug("combo resolved")

	// Outcome and error are reported to the player by the engine
	_, _ = s.executor.ExecuteBossSlot(ctx, playerID, headKey, slot)
}

// ClearPlayer implements Service
func (s *service) ClearPlayer(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.trackers[playerID]; ok {
		t.cancelPending()
		delete(s.trackers, playerID)
	}
}

// ResetAll implements Service and ability.Cache
func (s *service) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.trackers {
		t.cancelPending()
	}
	s.trackers = make(map[string]*tracker)
}

// Sweep implements Service
func (s *service) Sweep() int {
	now := s.scheduler.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for playerID, t := range s.trackers {
		if t.machine.Current() == StateIdle && now.Sub(t.lastGesture) > s.resetWindow {
			delete(s.trackers, playerID)
			removed++
		}
	}
	return removed
}

func (s *service) State(playerID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.trackers[playerID]; ok {
		return t.machine.Current()
	}
	return StateIdle
}

func (s *service) History(playerID string) []Gesture {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.trackers[playerID]; ok {
		return append([]Gesture(nil), t.history...)
	}
	return nil
}

func (s *service) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trackers)
}

// Listener clears combo state on death and disconnect
type Listener struct {
	svc Service
}

// NewListener creates the event listener for a combo service
func NewListener(svc Service) *Listener {
	return &Listener{svc: svc}
}

func (l *Listener) ID() string    { return "combo" }
func (l *Listener) Priority() int { return events.PriorityCleanup }

// HandleEvent implements events.EventListener
func (l *Listener) HandleEvent(event events.Event) error {
	switch event.GetType() {
	case events.EventTypePlayerDeath, events.EventTypePlayerQuit:
		l.svc.ClearPlayer(event.GetPlayerID())
	}
	return nil
}
