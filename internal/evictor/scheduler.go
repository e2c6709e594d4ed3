// File: internal/evictor/scheduler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package evictor implements the single shared timer the expiring pool
// variant uses to schedule per-item eviction tasks. Grounded on the
// teacher's internal/concurrency.Scheduler (container/heap of timer tasks,
// a notify channel, an x/sys/cpu feature gate around the hot loop) — that
// prototype didn't compile (it referenced an unimported unsafe.Pointer
// prefetch and never implemented heap.Interface); this is a corrected,
// complete version of the same design, adapted from task-execution to
// task-cancellation/eviction.
package evictor

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
)

// Task is a single scheduled eviction. Cancel is safe to call any number
// of times, from any goroutine, both before and after the task fires.
type Task struct {
	deadline  time.Time
	seq       uint64
	index     int
	fn        func()
	cancelled atomic.Bool
}

// Cancel prevents fn from running if it has not fired yet. A nil Task
// (returned when scheduling onto a closed Scheduler) is a safe no-op,
// tolerating the race the spec calls out between pool close and an
// in-flight onInserted scheduling attempt.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.cancelled.Store(true)
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Scheduler runs a single dedicated goroutine that fires scheduled tasks
// at their deadline, shared across every item an expiring pool inserts —
// the spec's "one background scheduler per pool" requirement.
type Scheduler struct {
	mu      sync.Mutex
	heap    taskHeap
	seq     uint64
	notify  chan struct{}
	stop    chan struct{}
	stopped atomic.Bool
	done    chan struct{}
}

// New starts a Scheduler. Close must be called to stop its goroutine.
func New() *Scheduler {
	s := &Scheduler{
		notify: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Scheduler) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Schedule arranges for fn to run after d elapses, returning a Task whose
// Cancel prevents that. Returns nil if the Scheduler is already closed;
// callers must tolerate a nil Task (see Task.Cancel).
func (s *Scheduler) Schedule(d time.Duration, fn func()) *Task {
	if s.stopped.Load() {
		return nil
	}
	s.mu.Lock()
	if s.stopped.Load() {
		s.mu.Unlock()
		return nil
	}
	s.seq++
	t := &Task{deadline: time.Now().Add(d), seq: s.seq, fn: fn}
	heap.Push(&s.heap, t)
	s.mu.Unlock()
	s.wake()
	return t
}

// run is the scheduler's single hot loop. On hardware with SSE2 it batches
// the pop of every task whose deadline has already elapsed before
// releasing the lock, trading one lock/unlock pair for up to N ready
// tasks — the same feature-gated tradeoff the teacher's Scheduler.run
// attempted around a prefetch hint, done here as a batching threshold
// instead of an invalid raw memory prefetch.
func (s *Scheduler) run() {
	defer close(s.done)
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		s.mu.Lock()
		if len(s.heap) == 0 {
			s.mu.Unlock()
			select {
			case <-s.notify:
				continue
			case <-s.stop:
				return
			}
		}

		now := time.Now()
		next := s.heap[0]
		if next.deadline.After(now) {
			wait := next.deadline.Sub(now)
			s.mu.Unlock()
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(wait)
			select {
			case <-timer.C:
			case <-s.notify:
			case <-s.stop:
				return
			}
			continue
		}

		ready := make([]*Task, 0, 1)
		ready = append(ready, heap.Pop(&s.heap).(*Task))
		if cpu.X86.HasSSE2 {
			for len(s.heap) > 0 && !s.heap[0].deadline.After(now) {
				ready = append(ready, heap.Pop(&s.heap).(*Task))
			}
		}
		s.mu.Unlock()

		for _, t := range ready {
			if !t.cancelled.Load() {
				t.fn()
			}
		}
	}
}

// Close stops the scheduler's goroutine and waits for it to exit. Any
// task still pending is simply dropped; callers are expected to have
// already drained or cancelled what they care about (the pool's Close
// drains its queue, destroying each item, before closing its scheduler).
func (s *Scheduler) Close() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stop)
	}
	<-s.done
}
