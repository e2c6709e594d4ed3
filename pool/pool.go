// File: pool/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool implements a generic, thread-safe object pool: a bounded population
// of lazily constructed, leaseable objects with optional idle-time eviction
// and GC-aware (soft/weak) retention.
package pool

import (
	"sync/atomic"
	"time"

	"github.com/momentics/objpool/internal/evictor"
	"github.com/momentics/objpool/internal/live"
	"github.com/momentics/objpool/internal/queue"
	"github.com/momentics/objpool/internal/refcell"
	"github.com/rs/zerolog"
)

// Pool manages a bounded population of reusable objects of type A.
// Construct one with New; a Pool is safe for concurrent use by any
// number of goroutines.
type Pool[A any] struct {
	capacity    int
	factory     func() (A, error)
	reset       func(A)
	healthCheck func(A) bool
	retention   Retention
	maxIdle     time.Duration

	items queue.Queue[*item[A]]
	live  *live.Counter
	hooks *itemHooks[A]

	closed atomic.Bool

	sched    *evictor.Scheduler    // non-nil iff the expiring variant
	pressure *refcell.PressureSignal // non-nil iff Retention == Soft

	log zerolog.Logger
}

// New constructs a Pool per the given Options. It selects the expiring
// variant iff opts.MaxIdleTime is finite (> 0), the simple variant
// otherwise — the spec's public factory (§4.8), expressed as a single
// constructor rather than two named ones, since Go has no overloading and
// the variant only ever differs in which internal collaborators are
// wired up.
func New[A any](opts Options[A]) (*Pool[A], error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	p := &Pool[A]{
		capacity:    opts.Capacity,
		factory:     opts.Factory,
		reset:       orNoop(opts.Reset),
		healthCheck: orAlwaysTrue(opts.HealthCheck),
		retention:   opts.Retention,
		maxIdle:     opts.MaxIdleTime,
		items:       queue.NewBounded[*item[A]](opts.Capacity),
		live:        live.New(opts.Capacity),
		log:         logger,
	}

	disposeUser := orNoop(opts.Dispose)
	p.hooks = &itemHooks[A]{
		healthCheck: func(v A) bool {
			healthy := false
			p.safeCallback("healthCheck", func() { healthy = p.healthCheck(v) })
			return healthy
		},
		dispose: func(v A) { p.safeCallback("dispose", func() { disposeUser(v) }) },
		live:    p.live,
	}

	if opts.Retention == Soft {
		p.pressure = refcell.NewPressureSignal(opts.PressureInterval, opts.PressureRatio)
	}
	if opts.MaxIdleTime > 0 {
		p.sched = evictor.New()
	}

	return p, nil
}

func (p *Pool[A]) safeCallback(name string, f func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn().
				Str("callback", name).
				Interface("panic", r).
				Msg("pool: user callback panicked, recovered")
		}
	}()
	f()
}

func (p *Pool[A]) newItem(v A) *item[A] {
	cell := refcell.New(p.retention, v, p.pressure)
	if p.sched == nil {
		return newPlainItem(cell, p.hooks)
	}
	return newExpiringItem(cell, p.hooks, p.sched, p.maxIdle, p.items.Remove, func() {
		p.log.Debug().Msg("pool: eviction task lost race against concurrent take")
	})
}

// acquireFast runs the non-blocking preamble shared by Acquire,
// TryAcquire and TryAcquireTimeout: poll the queue (looping past any
// unviable item per §4.5.1's fast-path unwrap policy), then attempt a
// fresh construction under capacity. done is true when the caller should
// use (lease, err) as-is; false means the caller must fall back to its
// own blocking strategy.
func (p *Pool[A]) acquireFast() (lease *Lease[A], done bool, err error) {
	if p.closed.Load() {
		return nil, true, ErrClosed
	}
	for {
		it, ok := p.items.Poll()
		if !ok {
			break
		}
		if it.isViable() {
			return newLease(p, it.take()), true, nil
		}
		it.destroy()
	}
	if p.live.TryReserve() {
		v, ferr := p.factory()
		if ferr != nil {
			p.live.Release()
			return nil, true, ferr
		}
		return newLease(p, v), true, nil
	}
	return nil, false, nil
}

// Acquire blocks indefinitely (but never past what the queue's own
// policy allows) until a lease is available, or fails with ErrClosed.
// An unviable item obtained from the blocking Take is destroyed, which
// frees its slot, and Acquire starts over from the non-blocking preamble.
func (p *Pool[A]) Acquire() (*Lease[A], error) {
	for {
		lease, done, err := p.acquireFast()
		if done {
			return lease, err
		}
		it, ok := p.items.Take()
		if !ok {
			return nil, ErrClosed
		}
		if it.isViable() {
			return newLease(p, it.take()), nil
		}
		it.destroy()
	}
}

// TryAcquire is Acquire without blocking: a nil, nil result means the
// pool is at capacity with nothing idle (CapacityExhausted, never raised
// as an error per §7).
func (p *Pool[A]) TryAcquire() (*Lease[A], error) {
	lease, done, err := p.acquireFast()
	if done {
		return lease, err
	}
	return nil, nil
}

// TryAcquireTimeout is Acquire, but the blocking wait is bounded by d; a
// nil, nil result means the timeout elapsed, or the one item received
// within it was unviable (destroyed, not retried). d applies only to the
// blocking wait, never to the non-blocking preamble.
func (p *Pool[A]) TryAcquireTimeout(d time.Duration) (*Lease[A], error) {
	lease, done, err := p.acquireFast()
	if done {
		return lease, err
	}
	it, ok := p.items.PollWithin(d)
	if !ok {
		return nil, nil
	}
	return p.unwrapBlocking(it)
}

// unwrapBlocking applies §4.5.1's no-retry policy for the timed blocking
// path: exactly one unwrap attempt. An unviable item consumes its slot
// (destroy) and is reported as exhaustion, not retried.
func (p *Pool[A]) unwrapBlocking(it *item[A]) (*Lease[A], error) {
	if it.isViable() {
		return newLease(p, it.take()), nil
	}
	it.destroy()
	return nil, nil
}

// returnOrDestroy implements a released Lease's routing: reset-then-
// requeue on an open pool, dispose on a closed one or on a queue-full
// race. A panic from Reset is recovered, destroys the object, and is
// surfaced to the caller as an error.
func (p *Pool[A]) returnOrDestroy(v A) (err error) {
	if p.closed.Load() {
		p.destroyValue(v)
		return nil
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = &resetPanicError{recovered: r}
			}
		}()
		p.reset(v)
	}()
	if err != nil {
		p.destroyValue(v)
		return err
	}

	// onInserted (which schedules the expiring variant's eviction task)
	// must run before Offer makes the item visible to a concurrently
	// blocked Take/PollWithin caller — otherwise a consumer could dequeue
	// the item and race item.take()'s consumeFn against this goroutine's
	// write of the scheduled task, per spec §5's insertion-happens-before-
	// observation ordering guarantee. A task scheduled on an item that
	// then fails to Offer is harmless: destroy() cancels it immediately
	// and removeSelf would simply never find the (never-queued) item.
	it := p.newItem(v)
	it.onInserted()
	if !p.items.Offer(it) {
		it.destroy()
		return nil
	}
	return nil
}

// destroyValue disposes v and releases its live-counter reservation. Used
// both by Invalidate and by any release path that must not re-queue.
func (p *Pool[A]) destroyValue(v A) {
	p.hooks.dispose(v)
	p.live.Release()
}

// Fill tops the pool up to capacity: repeatedly reserves a slot,
// constructs, resets and enqueues an object, stopping at the first
// failed reservation. After a successful Fill returns, live == capacity.
// A panicking Reset destroys the just-constructed object rather than
// enqueuing a half-reset value, and stops Fill — the same policy
// returnOrDestroy applies to a panicking Reset during release.
func (p *Pool[A]) Fill() error {
	if p.closed.Load() {
		return ErrClosed
	}
	for p.live.TryReserve() {
		v, err := p.factory()
		if err != nil {
			p.live.Release()
			return err
		}

		var resetErr error
		func() {
			defer func() {
				if r := recover(); r != nil {
					resetErr = &resetPanicError{recovered: r}
				}
			}()
			p.reset(v)
		}()
		if resetErr != nil {
			p.destroyValue(v)
			return resetErr
		}

		it := p.newItem(v)
		it.onInserted()
		if !p.items.Offer(it) {
			it.destroy()
			break
		}
	}
	return nil
}

// Drain disposes every idle object currently queued, without touching
// anything out on lease.
func (p *Pool[A]) Drain() error {
	if p.closed.Load() {
		return ErrClosed
	}
	for {
		it, ok := p.items.Poll()
		if !ok {
			return nil
		}
		it.destroy()
	}
}

// Close transitions the pool to closed exactly once, draining every idle
// object and tearing down the expiring variant's scheduler (if any).
// Subsequent acquire/fill/drain calls fail with ErrClosed; a Lease
// released afterward is disposed instead of requeued.
func (p *Pool[A]) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	for {
		it, ok := p.items.Poll()
		if !ok {
			break
		}
		it.destroy()
	}
	p.items.Close()
	if p.sched != nil {
		p.sched.Close()
	}
	if p.pressure != nil {
		p.pressure.Close()
	}
	return nil
}

// Size returns the current idle-queue length (a snapshot).
func (p *Pool[A]) Size() int { return p.items.Len() }

// Capacity returns the configured ceiling on live objects.
func (p *Pool[A]) Capacity() int { return p.capacity }

// Live returns the current count of objects in existence (idle + leased).
func (p *Pool[A]) Live() int { return p.live.Load() }

// Leased returns Live - Size, the number of objects currently out on
// lease.
func (p *Pool[A]) Leased() int { return p.live.Load() - p.items.Len() }

// resetPanicError wraps a recovered Reset panic as the error Release or
// Fill surfaces to its caller.
type resetPanicError struct {
	recovered any
}

func (e *resetPanicError) Error() string {
	return "pool: reset callback panicked"
}
