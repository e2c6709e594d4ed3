// File: pool/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package pool

import "errors"

// The spec's two structural error conditions map directly to sentinel
// errors, checked with errors.Is — CapacityExhausted is deliberately not
// among them: it is never raised, only ever represented as a nil Lease
// from TryAcquire/TryAcquireTimeout.
var (
	// ErrClosed is returned by any acquire/drain/fill call made after Close.
	ErrClosed = errors.New("pool: closed")

	// ErrLeaseConsumed is returned by Lease.Get once the lease has been
	// released or invalidated.
	ErrLeaseConsumed = errors.New("pool: lease already released or invalidated")

	// ErrInvalidOptions is returned by New when capacity or factory are
	// missing or nonsensical.
	ErrInvalidOptions = errors.New("pool: invalid options")
)
