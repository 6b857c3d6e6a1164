package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrLockNotAcquired is returned when the slot stays locked for the whole wait window.
// A caller whose context ends first gets the context error instead.
var ErrLockNotAcquired = errors.New("slot lock not acquired")

const (
	// Prefix for slot lock keys in Redis
	RedisSlotLockPrefix = "lock:"

	// Poll interval while waiting for a held Redis lock
	lockRetryInterval = 25 * time.Millisecond

	// Timeout for releasing a lock after the guarded work finished
	lockReleaseTimeout = 2 * time.Second
)

// SlotLocker serializes critical sections per slot key.
// fn runs only while the caller holds the lock for key.
type SlotLocker interface {
	WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// =============================================================================
// Redis locker
// =============================================================================

type redisSlotLocker struct {
	client *redis.Client
	log    *logrus.Logger
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisSlotLocker creates a locker backed by one Redis key per slot.
// The lock expires after ttl even if the holder dies; callers wait at most wait for it.
func NewRedisSlotLocker(client *redis.Client, log *logrus.Logger, ttl, wait time.Duration) SlotLocker {
	return &redisSlotLocker{
		client: client,
		log:    log,
		ttl:    ttl,
		wait:   wait,
	}
}

func (l *redisSlotLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lockKey := RedisSlotLockPrefix + key
	token := uuid.NewString()

	if err := l.acquire(ctx, lockKey, token); err != nil {
		return err
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
		defer cancel()
		if err := l.release(releaseCtx, lockKey, token); err != nil {
			l.log.Warnf("Failed to release slot lock %s: %+v", lockKey, err)
		}
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

func (l *redisSlotLocker) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire slot lock: %w", err)
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// unlockScript deletes the key only when it still holds our token, so an
// expired lock taken over by another holder is never released by us.
var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisSlotLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}

// =============================================================================
// In-process locker
// =============================================================================

// LocalSlotLocker serializes slots inside one process. Only valid for a
// single instance deployment; the database advisory lock still guards
// other writers.
type LocalSlotLocker struct {
	mu    sync.Mutex
	locks map[string]*slotMutex
	wait  time.Duration
}

// slotMutex is a one-slot semaphore so acquisition can give up after a deadline.
// refs counts holders and waiters; the entry is dropped when it reaches zero.
type slotMutex struct {
	sem  chan struct{}
	refs int
}

func NewLocalSlotLocker(wait time.Duration) *LocalSlotLocker {
	return &LocalSlotLocker{
		locks: make(map[string]*slotMutex),
		wait:  wait,
	}
}

func (l *LocalSlotLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	sm := l.getSlotMutex(key)
	defer l.putSlotMutex(key, sm)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case sm.sem <- struct{}{}:
	case <-timer.C:
		return ErrLockNotAcquired
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sm.sem }()

	return fn(ctx)
}

// Size returns the number of slot keys currently held or awaited
func (l *LocalSlotLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *LocalSlotLocker) getSlotMutex(key string) *slotMutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	sm, ok := l.locks[key]
	if !ok {
		sm = &slotMutex{sem: make(chan struct{}, 1)}
		l.locks[key] = sm
	}
	sm.refs++
	return sm
}

func (l *LocalSlotLocker) putSlotMutex(key string, sm *slotMutex) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sm.refs--
	if sm.refs == 0 {
		delete(l.locks, key)
	}
}
