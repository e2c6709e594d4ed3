package refcell

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrongCellAlwaysReachable(t *testing.T) {
	c := New[int](Strong, 42, nil)
	runtime.GC()
	v, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestWeakCellReachableWhileHeld(t *testing.T) {
	c := New[int](Weak, 7, nil)
	v, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestSoftCellStrongUntilPressure(t *testing.T) {
	p := NewPressureSignal(time.Hour, 0.75) // never ticks during the test
	defer p.Close()

	c := New[int](Soft, 9, p)
	runtime.GC()
	v, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, 9, v)
}

func TestSoftCellDropsStrongHoldUnderPressure(t *testing.T) {
	p := NewPressureSignal(time.Hour, 0.75)
	defer p.Close()
	p.active.Store(true) // simulate a pressure sample firing

	c := New[int](Soft, 11, p)
	// The cell still has a fresh weak pointer to a reachable box in this
	// goroutine's stack shadow, so Get should still succeed once, but it
	// must have released its own strong field.
	sc := c.(*softCell[int])
	_, _ = sc.Get()
	sc.mu.Lock()
	boxNil := sc.box == nil
	sc.mu.Unlock()
	assert.True(t, boxNil, "soft cell should release its strong hold once pressure is active")
}
