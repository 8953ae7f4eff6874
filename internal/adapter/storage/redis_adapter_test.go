package storage

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisLocker_Exclusive(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	key := "library-ledger:test:exclusive"
	client.Del(ctx, key)
	locker := NewRedisLocker(client, key, 5*time.Second)

	unlock, err := locker.Lock(ctx)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock2, err := locker.Lock(ctx)
	require.NoError(t, err)
	unlock2()
}

func TestRedisLocker_StaleUnlockKeepsNewOwner(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	key := "library-ledger:test:stale"
	client.Del(ctx, key)
	locker := NewRedisLocker(client, key, 5*time.Second)

	staleUnlock, err := locker.Lock(ctx)
	require.NoError(t, err)
	// the lease lapses, e.g. the holder stalled past its TTL
	client.Del(ctx, key)

	unlock, err := locker.Lock(ctx)
	require.NoError(t, err)
	defer unlock()

	staleUnlock()
	assert.Equal(t, int64(1), client.Exists(ctx, key).Val())
}

func TestRedisLocker_LeaseRenewedWhileHeld(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	key := "library-ledger:test:renew"
	client.Del(ctx, key)
	locker := NewRedisLocker(client, key, 300*time.Millisecond)

	unlock, err := locker.Lock(ctx)
	require.NoError(t, err)

	// hold well past the TTL, as a slow whole-table save would
	time.Sleep(time.Second)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Equal(t, int64(0), client.Exists(ctx, key).Val())
}

func TestRedisLocker_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	key := "library-ledger:test:concurrent"
	client.Del(ctx, key)
	locker := NewRedisLocker(client, key, 5*time.Second)

	var (
		wg      sync.WaitGroup
		inside  atomic.Int32
		maxSeen atomic.Int32
		counter int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx)
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			defer unlock()

			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			counter++
			inside.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
	assert.Equal(t, 20, counter)
}
