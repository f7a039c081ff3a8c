package lock

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGLocker uses session-level advisory locks. Each held lock pins one pool
// connection until it is released; if the connection drops the server
// frees the lock.
type PGLocker struct {
	pool *pgxpool.Pool
}

// NewPGLocker creates a locker over pool.
func NewPGLocker(pool *pgxpool.Pool) *PGLocker {
	return &PGLocker{pool: pool}
}

// Obtain implements Locker.
func (l *PGLocker) Obtain(ctx context.Context, key string) (Lock, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection for lock: %w", err)
	}

	id := advisoryID(key)
	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", id).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		conn.Release()
		return nil, ErrNotObtained
	}
	return &pgLock{conn: conn, id: id, key: key}, nil
}

type pgLock struct {
	conn *pgxpool.Conn
	id   int64
	key  string
}

func (l *pgLock) Release(ctx context.Context) error {
	defer l.conn.Release()
	if _, err := l.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", l.id); err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	return nil
}

// Extend is a no-op: a session advisory lock lasts until it is released
// or its connection closes.
func (l *pgLock) Extend(context.Context, time.Duration) error {
	return nil
}

// advisoryID derives a stable 64-bit lock id from key.
func advisoryID(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64())
}
