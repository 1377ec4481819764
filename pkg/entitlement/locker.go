package entitlement

import (
	"context"
	"sync"
)

// Locker serializes work on one key across callers. The engine locks an
// account id around every read-modify-write cycle and "team:<id>" around seat
// allocation.
//
// Account writes are already safe under optimistic versioning; their lock only
// trades retries for waiting. Seat allocation spans several records, so the
// team lock is what keeps a team within its member limit. The default Locker
// is process local; deployments running more than one process must install a
// shared one (see the redislock package).
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// NewLocalLocker returns an in-process Locker keyed by string.
func NewLocalLocker() Locker {
	return &localLocker{keys: make(map[string]*localLock)}
}

type localLock struct {
	ch   chan struct{}
	refs int
}

type localLocker struct {
	mu   sync.Mutex
	keys map[string]*localLock
}

// Lock waits for key or for ctx to end.
func (l *localLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.keys[key]
	if !ok {
		lk = &localLock{ch: make(chan struct{}, 1)}
		l.keys[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, lk)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lk.ch
			l.release(key, lk)
		})
	}, nil
}

func (l *localLocker) release(key string, lk *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.keys, key)
	}
}

func teamLockKey(teamID string) string {
	return "team:" + teamID
}
