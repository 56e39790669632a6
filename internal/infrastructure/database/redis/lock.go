package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "lock not acquired")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held")
)

// Mutex is a single-holder distributed lock. The expired-record sweep
// runs from both the worker and the CLI; the mutex keeps concurrent
// sweeps from racing each other over the same index batches.
type Mutex struct {
	client *Client
	logger logging.Logger
	key    string
	value  string
	ttl    time.Duration
}

type MutexOption func(*Mutex)

func WithMutexTTL(ttl time.Duration) MutexOption {
	return func(m *Mutex) { m.ttl = ttl }
}

func NewMutex(client *Client, log logging.Logger, name string, opts ...MutexOption) *Mutex {
	m := &Mutex{
		client: client,
		logger: log,
		key:    "lock:" + name,
		value:  uuid.NewString(),
		ttl:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var mutexUnlockScript = goredis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var mutexExtendScript = goredis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// TryLock attempts a single non-blocking acquisition.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	ok, err := m.client.Underlying().SetNX(ctx, m.key, m.value, m.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to acquire lock")
	}
	return ok, nil
}

// Lock blocks until the lock is acquired, retrying on an interval, or
// until the context is cancelled.
func (m *Mutex) Lock(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		ok, err := m.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Unlock releases the lock if this mutex still holds it.
func (m *Mutex) Unlock(ctx context.Context) error {
	res, err := mutexUnlockScript.Run(ctx, m.client.Underlying(), []string{m.key}, m.value).Result()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to release lock")
	}
	if n, ok := res.(int64); !ok || n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Extend pushes the expiry forward while the holder is still working.
func (m *Mutex) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	res, err := mutexExtendScript.Run(ctx, m.client.Underlying(), []string{m.key}, m.value, ttl.Milliseconds()).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to extend lock")
	}
	n, ok := res.(int64)
	return ok && n == 1, nil
}
