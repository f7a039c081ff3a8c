package lock

import (
	"context"
	"sync"
	"time"
)

// Local is an in-process Locker. It only excludes callers within the same
// process.
type Local struct {
	mu   sync.Mutex
	held map[string]*localLock
}

// NewLocal creates an empty in-process locker.
func NewLocal() *Local {
	return &Local{held: make(map[string]*localLock)}
}

// Obtain implements Locker.
func (l *Local) Obtain(ctx context.Context, key string) (Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, ErrNotObtained
	}
	lk := &localLock{owner: l, key: key}
	l.held[key] = lk
	return lk, nil
}

// Held reports whether key is currently locked.
func (l *Local) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

type localLock struct {
	owner *Local
	key   string
}

func (lk *localLock) Release(context.Context) error {
	lk.owner.mu.Lock()
	defer lk.owner.mu.Unlock()
	if lk.owner.held[lk.key] == lk {
		delete(lk.owner.held, lk.key)
	}
	return nil
}

func (lk *localLock) Extend(context.Context, time.Duration) error {
	lk.owner.mu.Lock()
	defer lk.owner.mu.Unlock()
	if lk.owner.held[lk.key] != lk {
		return ErrNotObtained
	}
	return nil
}
