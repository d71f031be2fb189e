package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSlotLocked means another call turn is checking or booking the same slot.
var ErrSlotLocked = errors.New("scheduling: slot locked by another caller")

// SlotLocker serializes check-and-book sequences per calendar slot. The
// returned release func is safe to call once the sequence finishes.
type SlotLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

const slotLockKeyPrefix = "callassistant:slotlock:"

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSlotLocker is an advisory lock built on SET NX PX.
type RedisSlotLocker struct {
	rdb *redis.Client
}

// NewRedisSlotLocker creates a locker backed by rdb.
func NewRedisSlotLocker(rdb *redis.Client) *RedisSlotLocker {
	return &RedisSlotLocker{rdb: rdb}
}

// Acquire takes the lock for key or returns ErrSlotLocked if it is held.
func (l *RedisSlotLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token := uuid.NewString()
	redisKey := slotLockKeyPrefix + key
	ok, err := l.rdb.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("scheduling: acquire slot lock: %w", err)
	}
	if !ok {
		return nil, ErrSlotLocked
	}
	return func() {
		// Release must run even if the turn's context is already done.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.rdb, []string{redisKey}, token).Err()
	}, nil
}

// NoopSlotLocker never blocks. Used when no Redis is configured.
type NoopSlotLocker struct{}

func (NoopSlotLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}
