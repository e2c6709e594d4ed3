package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateRejectsNonPositiveCapacity(t *testing.T) {
	o := Options[int]{Capacity: 0, Factory: func() (int, error) { return 0, nil }}
	assert.ErrorIs(t, o.validate(), ErrInvalidOptions)

	o.Capacity = -1
	assert.ErrorIs(t, o.validate(), ErrInvalidOptions)
}

func TestValidateRejectsNilFactory(t *testing.T) {
	o := Options[int]{Capacity: 1, Factory: nil}
	assert.ErrorIs(t, o.validate(), ErrInvalidOptions)
}

func TestValidateAcceptsMinimalOptions(t *testing.T) {
	o := Options[int]{Capacity: 1, Factory: func() (int, error) { return 0, nil }}
	assert.NoError(t, o.validate())
}

func TestNoIdleTimeoutIsTheZeroValue(t *testing.T) {
	var o Options[int]
	assert.Equal(t, NoIdleTimeout, o.MaxIdleTime)
	assert.Equal(t, time.Duration(0), o.MaxIdleTime)
}

func TestOrNoopHandlesNil(t *testing.T) {
	f := orNoop[int](nil)
	assert.NotPanics(t, func() { f(5) })
}

func TestOrAlwaysTrueHandlesNil(t *testing.T) {
	f := orAlwaysTrue[int](nil)
	assert.True(t, f(5))
}

func TestOrAlwaysTruePassesThroughProvided(t *testing.T) {
	f := orAlwaysTrue[int](func(v int) bool { return v > 0 })
	assert.False(t, f(-1))
	assert.True(t, f(1))
}
