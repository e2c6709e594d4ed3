// File: pool/item.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package pool

import (
	"sync"
	"time"

	"github.com/momentics/objpool/internal/evictor"
	"github.com/momentics/objpool/internal/live"
	"github.com/momentics/objpool/internal/refcell"
)

// itemHooks bundles the callbacks and shared state every item needs,
// built once per Pool and shared by every item it wraps.
type itemHooks[A any] struct {
	healthCheck func(A) bool
	// dispose is always the pool's panic-safe wrapper: it recovers and
	// logs rather than letting a user Dispose panic escape destroy().
	dispose func(A)
	live    *live.Counter
}

// item is the unit stored in the idle queue. The spec describes two
// variants (plain, expiring) as an inheritance hierarchy; this follows
// §9's redesign note and implements both as one struct parameterized by
// two strategy closures (onInsertedFn, consumeFn) instead — capability
// composition rather than a type hierarchy. A plain item's closures are
// no-ops; an expiring item's schedule/cancel a single evictor.Task.
type item[A any] struct {
	cell  refcell.Cell[A]
	hooks *itemHooks[A]

	onInsertedFn func()
	consumeFn    func()
}

func newPlainItem[A any](cell refcell.Cell[A], hooks *itemHooks[A]) *item[A] {
	return &item[A]{
		cell:         cell,
		hooks:        hooks,
		onInsertedFn: func() {},
		consumeFn:    func() {},
	}
}

// newExpiringItem wires onInsertedFn to schedule a single eviction task at
// now+maxIdle keyed on this item's identity (not the value it holds, per
// spec §4.2/§4.7 — the pointer identity of the *item[A] itself, freshly
// allocated on every insertion, distinguishes two successive insertions of
// the same recycled value without needing a separate id field), and
// consumeFn to cancel that task at most once. removeSelf must remove this
// exact item from the queue by identity (typically
// queue.Queue[*item[A]].Remove).
func newExpiringItem[A any](
	cell refcell.Cell[A],
	hooks *itemHooks[A],
	sched *evictor.Scheduler,
	maxIdle time.Duration,
	removeSelf func(*item[A]) bool,
	onLostRace func(),
) *item[A] {
	it := &item[A]{cell: cell, hooks: hooks}

	var task *evictor.Task
	it.onInsertedFn = func() {
		task = sched.Schedule(maxIdle, func() {
			if removeSelf(it) {
				it.destroy()
			} else if onLostRace != nil {
				onLostRace()
			}
		})
	}

	var once sync.Once
	it.consumeFn = func() {
		once.Do(func() {
			task.Cancel()
		})
	}
	return it
}

// isViable is side-effect-free: true iff the underlying reference is
// still reachable and the pool's HealthCheck accepts it.
func (it *item[A]) isViable() bool {
	v, ok := it.cell.Get()
	if !ok {
		return false
	}
	return it.hooks.healthCheck(v)
}

// take returns the held value and consumes the item. Precondition:
// isViable() observed true in the same goroutine.
func (it *item[A]) take() A {
	v, _ := it.cell.Get()
	it.consumeFn()
	return v
}

// destroy disposes the value (if still reachable — a GC-reclaimed Soft/
// Weak cell has nothing to dispose), releases the live counter, and
// consumes the item.
func (it *item[A]) destroy() {
	if v, ok := it.cell.Get(); ok {
		it.hooks.dispose(v)
	}
	it.hooks.live.Release()
	it.consumeFn()
}

// onInserted fires the item's insertion-time hook exactly once. The pool
// calls it immediately before the queue Offer, so the hook's effects are
// in place before any consumer can dequeue the item.
func (it *item[A]) onInserted() {
	it.onInsertedFn()
}
