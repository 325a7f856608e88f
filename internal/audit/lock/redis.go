package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "qualityaudit/pkg/domain-errors"
	"qualityaudit/pkg/platform/sentinel"
)

const keyPrefix = "qualityaudit:lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis provides cross-process mutual exclusion per key with SET NX PX.
//
// The TTL bounds how long a crashed holder blocks others. fn must finish
// within the TTL; the lock is not extended.
type Redis struct {
	client        redis.UniversalClient
	ttl           time.Duration
	retryInterval time.Duration
}

func NewRedis(client redis.UniversalClient, ttl, retryInterval time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultTimeout
	}
	if retryInterval <= 0 {
		retryInterval = 50 * time.Millisecond
	}
	return &Redis{client: client, ttl: ttl, retryInterval: retryInterval}
}

func (l *Redis) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := uuid.NewString()
	redisKey := keyPrefix + key

	if err := l.acquire(ctx, redisKey, token); err != nil {
		return err
	}
	defer func() {
		// release on a fresh context so a cancelled caller still frees the key
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
	}()

	lockedCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()
	return fn(lockedCtx)
}

func (l *Redis) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return l.held(ctx, key)
			}
			return fmt.Errorf("acquire lock %s: %w", key, errors.Join(sentinel.ErrUnavailable, err))
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return l.held(ctx, key)
		case <-ticker.C:
		}
	}
}

func (l *Redis) held(ctx context.Context, key string) error {
	return dErrors.Wrap(errors.Join(sentinel.ErrLockHeld, ctx.Err()), dErrors.CodeTimeout, "lock "+key+" not acquired")
}
