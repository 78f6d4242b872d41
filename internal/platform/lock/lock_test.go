package lock_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/ports"
	"github.com/Fattieportal/boekhouding-saas/internal/platform/lock"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Exclusive(t *testing.T) {
	l := lock.NewMemoryLocker()
	ctx := context.Background()

	unlock, err := l.TryLock(ctx, "ledger:lock:t1:2024-03")
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "ledger:lock:t1:2024-03")
	assert.ErrorIs(t, err, ports.ErrLockHeld)

	other, err := l.TryLock(ctx, "ledger:lock:t1:2024-04")
	require.NoError(t, err)
	other()

	unlock()
	unlock() // second release is a no-op

	again, err := l.TryLock(ctx, "ledger:lock:t1:2024-03")
	require.NoError(t, err)
	again()
}

func TestMemoryLocker_ConcurrentSingleWinner(t *testing.T) {
	l := lock.NewMemoryLocker()
	var wins int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := l.TryLock(context.Background(), "k"); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	close(start)
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

// Runs against a live Redis when REDIS_ADDR is set.
func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	key := "ledger:lock:test:" + time.Now().Format("150405.000000")

	l := lock.NewRedisLocker(client, time.Second)
	unlock, err := l.TryLock(ctx, key)
	require.NoError(t, err)

	_, err = l.TryLock(ctx, key)
	assert.ErrorIs(t, err, ports.ErrLockHeld)

	unlock()
	next, err := l.TryLock(ctx, key)
	require.NoError(t, err)
	next()
}
