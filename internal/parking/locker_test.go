package parking

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseLocker(t *testing.T, locks Locker) {
	key := "test:" + uuid.NewString()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locks.Lock(context.Background(), key)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestKeyedMutexExclusion(t *testing.T) {
	locks := NewKeyedMutex()
	exerciseLocker(t, locks)
	assert.Equal(t, 0, locks.Len())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	locks := NewKeyedMutex()

	unlockA, err := locks.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := locks.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	locks := NewKeyedMutex()

	unlock, err := locks.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // second call is a no-op
	assert.Equal(t, 0, locks.Len())

	again, err := locks.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
}

// Runs only against a real server: REDIS_ADDR=localhost:6379 go test ./...
func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()).Err())

	locks := NewRedisLocker(client, 2*time.Second)
	exerciseLocker(t, locks)

	t.Run("stale unlock keeps the new holder", func(t *testing.T) {
		key := "test:" + uuid.NewString()
		short := NewRedisLocker(client, 50*time.Millisecond)

		unlockOld, err := short.Lock(context.Background(), key)
		require.NoError(t, err)
		time.Sleep(100 * time.Millisecond)

		unlockNew, err := short.Lock(context.Background(), key)
		require.NoError(t, err)
		unlockOld()

		exists, err := client.Exists(context.Background(), key).Result()
		require.NoError(t, err)
		assert.EqualValues(t, 1, exists)
		unlockNew()
	})
}
