// File: internal/refcell/refcell.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package refcell implements the pool's reference-cell abstraction: a
// holder for a pooled value under one of three retention modes. Go has no
// notion of a soft reference, and its weak.Pointer (added in Go 1.24)
// backs only Weak directly; Soft is approximated with an external
// memory-pressure signal, as the spec's design notes anticipate
// ("Soft/Weak retention modes may be stubbed... or backed by an external
// size-pressure signal; specify in documentation").
package refcell

import (
	"sync"
	"weak"
)

// Mode selects a cell's retention behavior.
type Mode int

const (
	// Strong cells are always reachable: the cell itself holds the value.
	Strong Mode = iota
	// Soft cells hold the value strongly until a PressureSignal reports
	// memory pressure, after which they degrade to Weak behavior.
	Soft
	// Weak cells never hold a strong reference; the runtime may reclaim
	// the value as soon as nothing else references it.
	Weak
)

// Cell holds one pooled value and reports whether it is still reachable.
type Cell[T any] interface {
	// Get returns the value and true if still reachable, or the zero
	// value and false if the runtime has reclaimed it (Soft/Weak only).
	Get() (T, bool)
}

// New constructs a Cell in the given mode. pressure is consulted only for
// Soft cells and may be nil for Strong/Weak.
func New[T any](mode Mode, v T, pressure *PressureSignal) Cell[T] {
	switch mode {
	case Weak:
		return newWeakCell(v)
	case Soft:
		return newSoftCell(v, pressure)
	default:
		return strongCell[T]{v: v}
	}
}

type strongCell[T any] struct {
	v T
}

func (c strongCell[T]) Get() (T, bool) { return c.v, true }

type weakCell[T any] struct {
	ptr weak.Pointer[T]
}

func newWeakCell[T any](v T) *weakCell[T] {
	box := new(T)
	*box = v
	return &weakCell[T]{ptr: weak.Make(box)}
}

func (c *weakCell[T]) Get() (T, bool) {
	p := c.ptr.Value()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// softCell holds a strong reference to box until PressureSignal reports
// pressure at least once, at which point it drops the strong hold and
// falls back to the weak pointer created alongside it. Once dropped, the
// strong hold cannot be reacquired by this cell — mirroring a real JVM
// soft reference, which is also only ever cleared, never re-pinned,
// during its lifetime.
type softCell[T any] struct {
	mu       sync.Mutex
	box      *T
	ptr      weak.Pointer[T]
	pressure *PressureSignal
}

func newSoftCell[T any](v T, pressure *PressureSignal) *softCell[T] {
	box := new(T)
	*box = v
	return &softCell[T]{
		box:      box,
		ptr:      weak.Make(box),
		pressure: pressure,
	}
}

func (c *softCell[T]) Get() (T, bool) {
	c.mu.Lock()
	if c.pressure != nil && c.pressure.Active() {
		c.box = nil
	}
	box := c.box
	c.mu.Unlock()

	if box != nil {
		return *box, true
	}
	p := c.ptr.Value()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}
