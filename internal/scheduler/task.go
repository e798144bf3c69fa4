package scheduler

import (
	"sync/atomic"
	"time"
)

// Task is a handle to a scheduled callback. Cancel is safe from any goroutine and
// is a no-op once the task has fired.
type Task struct {
	seq      uint64
	due      time.Time
	interval time.Duration
	fn       func()
	index    int

	cancelled atomic.Bool
	fired     atomic.Bool
}

// Cancel stops the task from running. It reports whether the cancel prevented a
// pending run; cancelling an already fired one-shot task returns false.
func (t *Task) Cancel() bool {
	if t == nil {
		return false
	}
	if t.cancelled.Swap(true) {
		return false
	}
	return t.interval > 0 || !t.fired.Load()
}

// Cancelled reports whether Cancel was called
func (t *Task) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}

// Fired reports whether the task has run at least once
func (t *Task) Fired() bool {
	return t != nil && t.fired.Load()
}

// Due is the next instant the task will run
func (t *Task) Due() time.Time {
	return t.due
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	task := x.(*Task)
	task.index = len(*h)
	*h = append(*h, task)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*h = old[:n-1]
	return task
}
