// Package scheduler is the single-threaded main loop: work posted from any
// goroutine and timers both run on the goroutine that calls Tick.
package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KirkDiggler/headsteal/internal/logger"
)

// Scheduler owns the main-thread queue and the timer heap
type Scheduler struct {
	clock Clock

	mu     sync.Mutex
	posted []func()
	timers taskHeap
	seq    uint64
}

// Config holds scheduler dependencies
type Config struct {
	Clock Clock
}

// New creates a scheduler. A nil config or clock uses the wall clock.
func New(cfg *Config) *Scheduler {
	s := &Scheduler{}
	if cfg != nil {
		s.clock = cfg.Clock
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	return s
}

// Clock returns the scheduler's clock
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Now is shorthand for Clock().Now()
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Post queues fn for the next tick. Safe from any goroutine.
func (s *Scheduler) Post(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.posted = append(s.posted, fn)
	s.mu.Unlock()
}

// After runs fn once, on the main loop, no earlier than d from now
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	return s.schedule(d, 0, fn)
}

// Every runs fn on the main loop every interval until cancelled
func (s *Scheduler) Every(interval time.Duration, fn func()) *Task {
	if interval <= 0 {
		panic(fmt.Sprintf("scheduler: non-positive interval %v", interval))
	}
	return s.schedule(interval, interval, fn)
}

func (s *Scheduler) schedule(delay, interval time.Duration, fn func()) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	task := &Task{
		seq:      s.seq,
		due:      s.clock.Now().Add(delay),
		interval: interval,
		fn:       fn,
	}
	heap.Push(&s.timers, task)
	return task
}

// Pending returns the number of queued posts and live timers
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := 0
	for _, t := range s.timers {
		if !t.Cancelled() {
			live++
		}
	}
	return len(s.posted) + live
}

// Tick runs one loop iteration: posted work first, then timers due at the
// current clock time. Posted work running first is what lets an input that
// cancels a timer win over that timer when both land in the same tick.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	posted := s.posted
	s.posted = nil
	s.mu.Unlock()

	for _, fn := range posted {
		s.run(fn)
	}

	now := s.clock.Now()
	for {
		task := s.popDue(now)
		if task == nil {
			return
		}
		if task.Cancelled() {
			continue
		}

		task.fired.Store(true)
		s.run(task.fn)

		if task.interval > 0 && !task.Cancelled() {
			s.mu.Lock()
			task.due = task.due.Add(task.interval)
			if !task.due.After(now) {
				task.due = now.Add(task.interval)
			}
			heap.Push(&s.timers, task)
			s.mu.Unlock()
		}
	}
}

func (s *Scheduler) popDue(now time.Time) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.timers) == 0 || s.timers[0].due.After(now) {
		return nil
	}
	return heap.Pop(&s.timers).(*Task)
}

func (s *Scheduler) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.ForComponent("scheduler").WithField("panic", r).Error("scheduled task panicked")
		}
	}()
	fn()
}

// Run ticks every interval until ctx is done
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.ForComponent("scheduler").WithField("interval", interval).Info("main loop started")
	for {
		select {
		case <-ctx.Done():
			logger.ForComponent("scheduler").Info("main loop stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Clear drops every queued post and timer
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.timers {
		t.cancelled.Store(true)
	}
	s.timers = nil
	s.posted = nil
}
