package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotObtained = errors.New("lock not obtained")

const lockRetryInterval = 50 * time.Millisecond

type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out exclusive named locks. Obtain waits until the lock is
// free or ctx is done, in which case it returns ErrLockNotObtained.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

type redisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{client: redislock.New(client)}
}

func (l *redisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := l.client.Obtain(ctx, "lock:"+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(lockRetryInterval),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return lock, nil
}

// localLocker serializes holders inside one process.
type localLocker struct {
	mu    sync.Mutex
	locks map[string]*localEntry
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

type localLock struct {
	owner *localLocker
	key   string
	entry *localEntry
	once  sync.Once
}

func NewLocalLocker() Locker {
	return &localLocker{locks: make(map[string]*localEntry)}
}

func (l *localLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &localEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
		return &localLock{owner: l, key: key, entry: entry}, nil
	case <-ctx.Done():
		l.drop(key, entry)
		return nil, ErrLockNotObtained
	}
}

func (l *localLocker) drop(key string, entry *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

func (k *localLock) Release(ctx context.Context) error {
	k.once.Do(func() {
		<-k.entry.ch
		k.owner.drop(k.key, k.entry)
	})
	return nil
}
