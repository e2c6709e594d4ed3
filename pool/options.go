// File: pool/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package pool

import (
	"time"

	"github.com/momentics/objpool/internal/refcell"
	"github.com/rs/zerolog"
)

// Retention selects how strongly the pool holds onto an idle object's
// underlying reference cell. It re-exports refcell.Mode so callers never
// need to import the internal package directly.
type Retention = refcell.Mode

const (
	// Strong pins every idle object; the runtime never reclaims it.
	Strong = refcell.Strong
	// Soft permits reclamation once the pool observes memory pressure.
	Soft = refcell.Soft
	// Weak permits reclamation as soon as nothing else references it.
	Weak = refcell.Weak
)

// NoIdleTimeout is the MaxIdleTime value selecting the simple (never
// expiring) pool variant. It is also the Options zero value, so an
// Options literal that doesn't set MaxIdleTime behaves as the spec's
// default of an infinite idle bound.
const NoIdleTimeout time.Duration = 0

// Options configures a Pool. Capacity and Factory are mandatory; every
// other field has the default spec.md §4.8 specifies.
type Options[A any] struct {
	// Capacity bounds the number of live objects. Required, > 0.
	Capacity int

	// Factory constructs a new pooled object. Required. An error return
	// propagates to the acquire() caller; any live-counter reservation
	// spent attempting the call is rolled back first.
	Factory func() (A, error)

	// Retention controls reference strength for idle objects. Defaults
	// to Strong.
	Retention Retention

	// MaxIdleTime bounds how long an object may sit idle before the
	// expiring variant evicts it. NoIdleTimeout (the zero value) selects
	// the simple variant instead.
	MaxIdleTime time.Duration

	// Reset is invoked on an object immediately before it (re)enters the
	// idle queue. Defaults to a no-op.
	Reset func(A)

	// Dispose is invoked exactly once per object, when it permanently
	// leaves the pool. Defaults to a no-op.
	Dispose func(A)

	// HealthCheck is invoked when extracting an idle object; a false
	// result disposes that object and the caller's acquire continues
	// looking (fast paths) or is treated as exhausted (timed path).
	// Defaults to always-true.
	HealthCheck func(A) bool

	// Logger receives ambient diagnostics this module cannot surface as
	// a return value: a recovered panic from Dispose/HealthCheck, or an
	// eviction task losing its race against a concurrent take. Nil
	// (the default) disables logging (zerolog.Nop()). A pointer, not a
	// value, because zerolog.Logger's zero value holds a nil writer and
	// is unsafe to log through.
	Logger *zerolog.Logger

	// PressureInterval and PressureRatio tune the Soft retention mode's
	// memory-pressure sampling; see refcell.NewPressureSignal. Ignored
	// unless Retention is Soft. Zero values take refcell's defaults.
	PressureInterval time.Duration
	PressureRatio    float64
}

func (o Options[A]) validate() error {
	if o.Capacity <= 0 || o.Factory == nil {
		return ErrInvalidOptions
	}
	return nil
}

func orNoop[A any](f func(A)) func(A) {
	if f == nil {
		return func(A) {}
	}
	return f
}

func orAlwaysTrue[A any](f func(A) bool) func(A) bool {
	if f == nil {
		return func(A) bool { return true }
	}
	return f
}
