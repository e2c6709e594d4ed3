// File: pool/doc.go
// Package pool is a generic, thread-safe object pool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// It amortizes the cost of constructing expensive objects (database
// connections, byte buffers, parsers) by reusing a bounded population of
// live instances. A Lease grants exclusive use of one pooled object;
// callers release it for reuse or invalidate it to force disposal.
//
// The public surface is small: New constructs a Pool from Options,
// Acquire/TryAcquire/TryAcquireTimeout hand out Leases, and Fill/Drain/
// Close manage the pool's population. Everything else — the bounded
// idle queue, the live counter, the reference-cell retention modes, the
// eviction scheduler — lives under internal/ and is wired together by
// this package.
package pool
