package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/KirkDiggler/headsteal/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newScheduler() (*scheduler.Scheduler, *scheduler.ManualClock) {
	clock := scheduler.NewManualClock(epoch)
	return scheduler.New(&scheduler.Config{Clock: clock}), clock
}

func TestAfter_FiresOnlyWhenDue(t *testing.T) {
	s, clock := newScheduler()
	fired := 0
	task := s.After(500*time.Millisecond, func() { fired++ })

	s.Tick()
	assert.Equal(t, 0, fired)

	clock.Advance(499 * time.Millisecond)
	s.Tick()
	assert.Equal(t, 0, fired)

	clock.Advance(time.Millisecond)
	s.Tick()
	assert.Equal(t, 1, fired)
	assert.True(t, task.Fired())

	clock.Advance(time.Second)
	s.Tick()
	assert.Equal(t, 1, fired, "one-shot task must not repeat")
}

func TestCancel_BeforeAndAfterFire(t *testing.T) {
	s, clock := newScheduler()

	fired := false
	task := s.After(time.Second, func() { fired = true })
	assert.True(t, task.Cancel())
	assert.False(t, task.Cancel(), "second cancel is a no-op")

	clock.Advance(2 * time.Second)
	s.Tick()
	assert.False(t, fired)

	ran := false
	late := s.After(time.Second, func() { ran = true })
	clock.Advance(time.Second)
	s.Tick()
	require.True(t, ran)
	assert.False(t, late.Cancel(), "cancel after fire reports nothing prevented")
}

func TestTick_PostedWorkRunsBeforeDueTimers(t *testing.T) {
	s, clock := newScheduler()

	var order []string
	var timer *scheduler.Task
	timer = s.After(100*time.Millisecond, func() { order = append(order, "timer") })

	clock.Advance(100 * time.Millisecond)
	s.Post(func() {
		order = append(order, "post")
		timer.Cancel()
	})
	s.Tick()

	assert.Equal(t, []string{"post"}, order)
}

func TestEvery_RepeatsUntilCancelled(t *testing.T) {
	s, clock := newScheduler()
	count := 0
	task := s.Every(time.Minute, func() { count++ })

	for i := 0; i < 3; i++ {
		clock.Advance(time.Minute)
		s.Tick()
	}
	assert.Equal(t, 3, count)

	task.Cancel()
	clock.Advance(time.Minute)
	s.Tick()
	assert.Equal(t, 3, count)
	assert.Equal(t, 0, s.Pending())
}

func TestTick_RecoversFromPanics(t *testing.T) {
	s, _ := newScheduler()
	after := false
	s.Post(func() { panic("boom") })
	s.Post(func() { after = true })

	assert.NotPanics(t, s.Tick)
	assert.True(t, after)
}

func TestPost_FromManyGoroutines(t *testing.T) {
	s, _ := newScheduler()
	var mu sync.Mutex
	total := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Post(func() {
				mu.Lock()
				total++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	s.Tick()

	assert.Equal(t, 50, total)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := scheduler.New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.Post(func() { close(done) })

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx, time.Millisecond) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("posted work never ran")
	}
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestClear(t *testing.T) {
	s, clock := newScheduler()
	task := s.After(time.Second, func() { t.Fatal("cleared task ran") })
	s.Post(func() { t.Fatal("cleared post ran") })

	s.Clear()
	clock.Advance(time.Hour)
	s.Tick()
	assert.True(t, task.Cancelled())
}
