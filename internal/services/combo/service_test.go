package combo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/headsteal/internal/entities"
	"github.com/KirkDiggler/headsteal/internal/events"
	"github.com/KirkDiggler/headsteal/internal/scheduler"
	"github.com/KirkDiggler/headsteal/internal/services/ability"
)

type dispatched struct {
	playerID string
	headKey  string
	slot     entities.ActivationSlot
}

type recordingExecutor struct {
	calls []dispatched
}

func (r *recordingExecutor) ExecuteBossSlot(_ context.Context, playerID, headKey string, slot entities.ActivationSlot) (ability.Outcome, error) {
	r.calls = append(r.calls, dispatched{playerID: playerID, headKey: headKey, slot: slot})
	return ability.OutcomeExecuted, nil
}

func (r *recordingExecutor) slots() []entities.ActivationSlot {
	out := make([]entities.ActivationSlot, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.slot)
	}
	return out
}

type ComboTestSuite struct {
	suite.Suite
	clock    *scheduler.ManualClock
	sched    *scheduler.Scheduler
	executor *recordingExecutor
	svc      Service
	ctx      context.Context
}

func (s *ComboTestSuite) SetupTest() {
	s.clock = scheduler.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s.sched = scheduler.New(&scheduler.Config{Clock: s.clock})
	s.executor = &recordingExecutor{}
	s.ctx = context.Background()
	s.svc = NewService(&ServiceConfig{
		Scheduler:         s.sched,
		Executor:          s.executor,
		Enabled:           true,
		DoubleClickWindow: 500 * time.Millisecond,
		ResetWindow:       2 * time.Second,
		History:           5,
	})
}

func TestComboTestSuite(t *testing.T) {
	suite.Run(t, new(ComboTestSuite))
}

func (s *ComboTestSuite) advance(d time.Duration) {
	s.clock.Advance(d)
	s.sched.Tick()
}

func (s *ComboTestSuite) click(gesture Gesture) (entities.ActivationSlot, bool) {
	return s.svc.HandleGesture(s.ctx, "p1", "dragon", gesture)
}

func (s *ComboTestSuite) TestSingleClickResolvesAfterWindow() {
	_, resolved := s.click(GesturePlain)
	s.False(resolved)
	s.Equal(StateAwaitingSecond, s.svc.State("p1"))

	s.advance(499 * time.Millisecond)
	s.Empty(s.executor.calls)

	s.advance(1 * time.Millisecond)
	s.Equal([]entities.ActivationSlot{entities.SlotLeftClick}, s.executor.slots())
	s.Equal("dragon", s.executor.calls[0].headKey)
	s.Equal(StateIdle, s.svc.State("p1"))
}

func (s *ComboTestSuite) TestDoubleClickWithinWindow() {
	s.click(GesturePlain)
	s.advance(200 * time.Millisecond)

	slot, resolved := s.click(GesturePlain)
	s.True(resolved)
	s.Equal(entities.SlotDoubleLeftClick, slot)

	s.advance(2 * time.Second)
	s.Equal([]entities.ActivationSlot{entities.SlotDoubleLeftClick}, s.executor.slots(), "no single click after a double")
}

func (s *ComboTestSuite) TestModifiedClickResolvesImmediately() {
	slot, resolved := s.click(GestureModified)
	s.True(resolved)
	s.Equal(entities.SlotShiftLeftClick, slot)
	s.Equal(StateIdle, s.svc.State("p1"))

	// Also while a single-click check is pending
	s.click(GesturePlain)
	slot, resolved = s.click(GestureModified)
	s.True(resolved)
	s.Equal(entities.SlotShiftLeftClick, slot)
	s.Equal([]entities.ActivationSlot{entities.SlotShiftLeftClick, entities.SlotShiftLeftClick}, s.executor.slots())

	s.advance(500 * time.Millisecond)
	s.Equal(entities.SlotLeftClick, s.executor.slots()[2])
}

func (s *ComboTestSuite) TestSecondClickWinsInSameTick() {
	s.click(GesturePlain)

	// The second click and the deferred check land in the same tick
	s.clock.Advance(500 * time.Millisecond)
	s.sched.Post(func() {
		s.click(GesturePlain)
	})
	s.sched.Tick()

	s.Equal([]entities.ActivationSlot{entities.SlotDoubleLeftClick}, s.executor.slots())
	s.advance(time.Second)
	s.Len(s.executor.calls, 1)
}

func (s *ComboTestSuite) TestSecondClickWinsWhenTickLandsAfterWindow() {
	s.click(GesturePlain)

	// A 50ms loop processes the click in the first tick past the deadline
	s.clock.Advance(520 * time.Millisecond)
	s.sched.Post(func() {
		slot, resolved := s.click(GesturePlain)
		s.True(resolved)
		s.Equal(entities.SlotDoubleLeftClick, slot)
	})
	s.sched.Tick()
	s.advance(time.Second)

	s.Equal([]entities.ActivationSlot{entities.SlotDoubleLeftClick}, s.executor.slots())
	s.Equal(StateIdle, s.svc.State("p1"))
}

func (s *ComboTestSuite) TestClickAfterSingleResolvedStartsNewWindow() {
	s.click(GesturePlain)
	s.advance(600 * time.Millisecond)
	s.Equal([]entities.ActivationSlot{entities.SlotLeftClick}, s.executor.slots())

	_, resolved := s.click(GesturePlain)
	s.False(resolved)
	s.Equal(StateAwaitingSecond, s.svc.State("p1"))

	s.advance(500 * time.Millisecond)
	s.Equal([]entities.ActivationSlot{entities.SlotLeftClick, entities.SlotLeftClick}, s.executor.slots())
}

func (s *ComboTestSuite) TestStaleStateResets() {
	for i := 0; i < 4; i++ {
		s.click(GestureModified)
	}
	s.Len(s.svc.History("p1"), 4)

	s.advance(2*time.Second + time.Millisecond)
	_, resolved := s.click(GesturePlain)

	s.False(resolved)
	s.Equal([]Gesture{GesturePlain}, s.svc.History("p1"))
	s.Equal(StateAwaitingSecond, s.svc.State("p1"))
}

func (s *ComboTestSuite) TestHistoryIsBounded() {
	for i := 0; i < 8; i++ {
		s.click(GestureModified)
	}
	s.Len(s.svc.History("p1"), 5)
}

func (s *ComboTestSuite) TestClearPlayerCancelsPendingCheck() {
	s.click(GesturePlain)
	s.svc.ClearPlayer("p1")

	s.advance(time.Second)
	s.Empty(s.executor.calls)
	s.Equal(0, s.svc.Tracked())
}

func (s *ComboTestSuite) TestListenerClearsOnDeathAndQuit() {
	bus := events.NewBus()
	bus.Subscribe(NewListener(s.svc), events.EventTypePlayerDeath, events.EventTypePlayerQuit)

	s.click(GesturePlain)
	s.Require().NoError(bus.Emit(events.NewDeathEvent("p1", entities.Location{}, "")))
	s.advance(time.Second)
	s.Empty(s.executor.calls)

	s.click(GesturePlain)
	s.Require().NoError(bus.Emit(events.NewQuitEvent("p1")))
	s.advance(time.Second)
	s.Empty(s.executor.calls)
}

func (s *ComboTestSuite) TestResetAllAndSweep() {
	s.svc.HandleGesture(s.ctx, "p1", "dragon", GestureModified)
	s.svc.HandleGesture(s.ctx, "p2", "dragon", GesturePlain)
	s.Equal(2, s.svc.Tracked())

	s.advance(3 * time.Second)
	s.Equal(2, s.svc.Sweep(), "both idle and older than the reset window")

	s.svc.HandleGesture(s.ctx, "p1", "dragon", GesturePlain)
	s.svc.ResetAll()
	s.advance(time.Second)
	s.Equal(0, s.svc.Tracked())
	s.Len(s.executor.calls, 2)
}

func (s *ComboTestSuite) TestPlayersAreIndependent() {
	s.svc.HandleGesture(s.ctx, "p1", "dragon", GesturePlain)
	s.advance(100 * time.Millisecond)
	s.svc.HandleGesture(s.ctx, "p2", "wither", GesturePlain)
	s.advance(100 * time.Millisecond)
	s.svc.HandleGesture(s.ctx, "p2", "wither", GesturePlain)

	s.advance(time.Second)
	s.Require().Len(s.executor.calls, 2)
	s.Equal(dispatched{"p2", "wither", entities.SlotDoubleLeftClick}, s.executor.calls[0])
	s.Equal(dispatched{"p1", "dragon", entities.SlotLeftClick}, s.executor.calls[1])
}

func TestDisabledCombosResolveImmediately(t *testing.T) {
	sched := scheduler.New(nil)
	executor := &recordingExecutor{}
	svc := NewService(&ServiceConfig{Scheduler: sched, Executor: executor})

	slot, resolved := svc.HandleGesture(context.Background(), "p1", "dragon", GesturePlain)
	require.True(t, resolved)
	assert.Equal(t, entities.SlotLeftClick, slot)

	slot, _ = svc.HandleGesture(context.Background(), "p1", "dragon", GestureModified)
	assert.Equal(t, entities.SlotShiftLeftClick, slot)
	assert.Zero(t, sched.Pending())
}

func TestNewService_RaisesShortResetWindow(t *testing.T) {
	clock := scheduler.NewManualClock(time.Unix(0, 0))
	sched := scheduler.New(&scheduler.Config{Clock: clock})
	executor := &recordingExecutor{}
	svc := NewService(&ServiceConfig{
		Scheduler:         sched,
		Executor:          executor,
		Enabled:           true,
		DoubleClickWindow: 500 * time.Millisecond,
		ResetWindow:       100 * time.Millisecond,
	})

	svc.HandleGesture(context.Background(), "p1", "dragon", GesturePlain)
	clock.Advance(300 * time.Millisecond)
	slot, _ := svc.HandleGesture(context.Background(), "p1", "dragon", GesturePlain)

	assert.Equal(t, entities.SlotDoubleLeftClick, slot)
}
