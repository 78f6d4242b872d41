// Package lock provides the period locks that serialize postings and closures of one
// tenant month across processes.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/ports"
	"github.com/Fattieportal/boekhouding-saas/internal/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// DefaultTTL bounds how long a crashed holder can block a period.
const DefaultTTL = 30 * time.Second

// unlockScript deletes the key only while it still carries the holder's token.
// A holder whose TTL ran out must not release the next holder's lock.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// RedisLocker implements ports.PeriodLocker with SET NX EX.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker creates a locker on client. A non-positive ttl falls back to DefaultTTL.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

var _ ports.PeriodLocker = (*RedisLocker)(nil)

func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return nil, ports.ErrLockHeld
	}
	return func() {
		// The caller's ctx may already be cancelled; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := unlockScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			middleware.GetLoggerFromCtx(ctx).Warn("Failed to release period lock", slog.String("key", key), slog.String("error", err.Error()))
		}
	}, nil
}
