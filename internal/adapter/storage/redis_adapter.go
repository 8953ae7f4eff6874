package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultLockKey   = "library-ledger:lock"
	lockRetryBackoff = 25 * time.Millisecond
	unlockTimeout    = 2 * time.Second
)

// Deletes the lock only while it still carries our token, so an expired lock
// taken over by another process is never released by us.
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

var extendLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker serializes ledger mutations across processes sharing one
// record store. The lease is renewed every third of its TTL while held, so a
// save slower than the TTL keeps the lock; the TTL only bounds how long a
// crashed holder blocks the others.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	if key == "" {
		key = DefaultLockKey
	}
	return &RedisLocker{client: client, key: key, ttl: ttl}
}

func (r *RedisLocker) Lock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	for {
		ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", r.key, err)
		}
		if ok {
			return r.hold(token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryBackoff):
		}
	}
}

// hold keeps the lease alive until the returned unlock runs.
func (r *RedisLocker) hold(token string) func() {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(max(r.ttl/3, time.Millisecond))
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !r.extend(token) {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			r.release(token)
		})
	}
}

// extend reports whether the lease is still ours.
func (r *RedisLocker) extend(token string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
	defer cancel()
	n, err := extendLockScript.Run(ctx, r.client, []string{r.key}, token, r.ttl.Milliseconds()).Int()
	// a transient error is retried on the next tick
	return err != nil || n == 1
}

func (r *RedisLocker) release(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
	defer cancel()
	// the TTL frees the key if this fails
	_ = releaseLockScript.Run(ctx, r.client, []string{r.key}, token).Err()
}
