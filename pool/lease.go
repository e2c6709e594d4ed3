// File: pool/lease.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package pool

import "sync/atomic"

type leaseState int32

const (
	leaseActive leaseState = iota
	leaseReleased
	leaseInvalidated
)

// Lease is a one-shot handle granting exclusive use of one pooled object.
// Its state machine is Active -> {Released, Invalidated}; whichever of
// Release/Invalidate is called first wins, and every later call (of
// either) is a silent no-op.
type Lease[A any] struct {
	p     *Pool[A]
	value A
	state atomic.Int32
}

func newLease[A any](p *Pool[A], v A) *Lease[A] {
	return &Lease[A]{p: p, value: v}
}

// Get returns the held value, or ErrLeaseConsumed once the lease has been
// released or invalidated.
func (l *Lease[A]) Get() (A, error) {
	if leaseState(l.state.Load()) != leaseActive {
		var zero A
		return zero, ErrLeaseConsumed
	}
	return l.value, nil
}

// Release returns the object to the pool for reuse (after Reset), unless
// the pool has since closed, in which case it is disposed instead. A
// panic from Reset destroys the object rather than re-queuing it; the
// panic is recovered and surfaced as the returned error, per spec §7 —
// the lease has already transitioned by the time that happens, so the
// pool is left consistent either way. Idempotent: a second call, whether
// to Release or Invalidate, is a no-op returning nil.
func (l *Lease[A]) Release() error {
	if !l.state.CompareAndSwap(int32(leaseActive), int32(leaseReleased)) {
		return nil
	}
	return l.p.returnOrDestroy(l.value)
}

// Invalidate unconditionally disposes the held object rather than
// returning it to the pool. Idempotent, same as Release.
func (l *Lease[A]) Invalidate() {
	if !l.state.CompareAndSwap(int32(leaseActive), int32(leaseInvalidated)) {
		return
	}
	l.p.destroyValue(l.value)
}

// Use calls f with the leased value and guarantees a terminal transition
// on every exit path: a normal return releases the lease; a panic
// invalidates it first and then re-panics, since a panic mid-use is
// treated as evidence the object's invariants may now be broken (see
// SPEC_FULL.md's decision on the spec's open question about use(f)).
//
// Use is a package-level function, not a method, because Go methods
// cannot introduce a type parameter the receiver doesn't already have —
// B has to live on the function.
func Use[A, B any](l *Lease[A], f func(A) (B, error)) (result B, err error) {
	defer func() {
		if r := recover(); r != nil {
			l.Invalidate()
			panic(r)
		}
	}()
	v, err := l.Get()
	if err != nil {
		var zero B
		return zero, err
	}
	result, err = f(v)
	if relErr := l.Release(); relErr != nil && err == nil {
		err = relErr
	}
	return result, err
}
