package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisSlotLockerExcludesSecondHolder(t *testing.T) {
	ctx := context.Background()
	locker := NewRedisSlotLocker(newTestRedis(t))

	release, err := locker.Acquire(ctx, "cal:1700000000", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "cal:1700000000", time.Minute)
	assert.ErrorIs(t, err, ErrSlotLocked)

	other, err := locker.Acquire(ctx, "cal:1700003600", time.Minute)
	require.NoError(t, err, "different slots must not contend")
	other()

	release()
	again, err := locker.Acquire(ctx, "cal:1700000000", time.Minute)
	require.NoError(t, err)
	again()
}

func TestRedisSlotLockerReleaseKeepsForeignLock(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	locker := NewRedisSlotLocker(rdb)

	release, err := locker.Acquire(ctx, "cal:1", time.Second)
	require.NoError(t, err)

	// Expire our lock and let someone else take it.
	mr.FastForward(2 * time.Second)
	_, err = locker.Acquire(ctx, "cal:1", time.Minute)
	require.NoError(t, err)

	release()
	assert.True(t, mr.Exists(slotLockKeyPrefix+"cal:1"), "stale release must not delete the new holder's lock")
}

func TestRedisSlotLockerSurfacesBackendErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	_, err := NewRedisSlotLocker(rdb).Acquire(context.Background(), "cal:1", time.Minute)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotLocked)
}

func TestNoopSlotLockerNeverBlocks(t *testing.T) {
	var l NoopSlotLocker
	for i := 0; i < 3; i++ {
		release, err := l.Acquire(context.Background(), "same", time.Minute)
		require.NoError(t, err)
		release()
	}
}
