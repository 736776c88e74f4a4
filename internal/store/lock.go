package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/docaccess/authz-core/internal/apperr"
)

// ResourceLock guards a read-modify-write sequence against a policy
// document (see policydoc.Merge) across multiple authzd processes.
// SaveResourcePolicy/SaveUserPolicy are each a single atomic upsert and
// need no external lock; the lock only matters for a caller that reads
// a document, merges into it, and writes it back.
type ResourceLock interface {
	// Lock blocks (honoring ctx) until it acquires the lock for key, then
	// returns a release function. The lock auto-expires after ttl even if
	// release is never called, so a crashed holder cannot wedge the key.
	Lock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// RedisLock implements ResourceLock with a Redis SET NX PX token and a
// Lua compare-and-delete unlock, grounded in the teacher's
// internal/ratelimit/redis_limiter.go use of redis.NewScript for
// atomic multi-step operations.
type RedisLock struct {
	client     redis.UniversalClient
	keyPrefix  string
	retryDelay time.Duration
}

var unlockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// NewRedisLock wraps an existing go-redis client. keyPrefix namespaces
// lock keys the same way the teacher's RedisConfig.KeyPrefix does for
// cache keys.
func NewRedisLock(client redis.UniversalClient, keyPrefix string) *RedisLock {
	return &RedisLock{client: client, keyPrefix: keyPrefix, retryDelay: 25 * time.Millisecond}
}

func (l *RedisLock) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	redisKey := l.keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
		if err != nil {
			return nil, apperr.Store(err, "acquire lock %s", key)
		}
		if ok {
			release := func(releaseCtx context.Context) error {
				if err := unlockScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
					return apperr.Store(err, "release lock %s", key)
				}
				return nil
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, apperr.Store(ctx.Err(), "acquire lock %s: %s", key, ctx.Err())
		case <-time.After(l.retryDelay):
		}
	}
}

// WithResourceLock runs fn while holding the lock for key, guaranteeing
// release even if fn panics or returns an error.
func WithResourceLock(ctx context.Context, lock ResourceLock, key string, ttl time.Duration, fn func(context.Context) error) error {
	release, err := lock.Lock(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = release(releaseCtx)
	}()
	return fn(ctx)
}

// LockKeyForResource builds the ResourceLock key guarding a
// read-modify-write against a resource policy document.
func LockKeyForResource(resourceID string) string {
	return fmt.Sprintf("resource-policy:%s", resourceID)
}

// LockKeyForUser builds the ResourceLock key guarding a
// read-modify-write against a user policy document.
func LockKeyForUser(userID string) string {
	return fmt.Sprintf("user-policy:%s", userID)
}
