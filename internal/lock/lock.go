// Package lock serializes import commits across service replicas.
//
// Two commits for the same business and kind must not run at once, or a
// double-clicked "Import" writes every row twice. Redis is the preferred
// backend; PostgreSQL advisory locks work when Redis is not deployed, and
// the in-process Local locker covers tests and single-binary runs.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotObtained is returned when the lock is held by someone else.
var ErrNotObtained = errors.New("import already in progress")

// Locker hands out exclusive locks by key.
type Locker interface {
	// Obtain takes the lock without waiting. It returns ErrNotObtained if
	// another holder has it.
	Obtain(ctx context.Context, key string) (Lock, error)
}

// Lock is a held lock.
type Lock interface {
	// Release gives the lock up. Releasing a lock that has expired or was
	// taken over is not an error.
	Release(ctx context.Context) error

	// Extend keeps the lock for ttl from now. It returns ErrNotObtained
	// when the lock has already expired or changed hands. Locks that never
	// expire only report whether they are still held.
	Extend(ctx context.Context, ttl time.Duration) error
}
