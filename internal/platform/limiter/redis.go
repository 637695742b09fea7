package limiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares window budgets across processes using one sorted set
// per key: members are individual hits scored by their millisecond
// timestamp. Trim, count, and the admission decision run in a single
// script so two concurrent requests at the budget edge cannot both be
// admitted.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore builds a RedisStore. A nil now func means the wall clock.
func NewRedisStore(client *redis.Client, now func() time.Time) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{client: client, now: now}
}

// KEYS[1] window key; ARGV: cutoff ms, now ms, limit, window ms, member.
// Returns {admitted, count after trim (+1 when admitted), oldest score}.
// The oldest element is read before the insert; a missing third element
// means the window was empty.
var hitScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, ARGV[1])
local count = redis.call('ZCARD', KEYS[1])
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
if count >= tonumber(ARGV[3]) then
  return {0, count, oldest[2]}
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[5])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return {1, count + 1, oldest[2]}
`)

func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration, limit int) (Result, error) {
	now := s.now()
	member := uuid.NewString()

	raw, err := hitScript.Run(ctx, s.client, []string{key},
		now.Add(-window).UnixMilli(),
		now.UnixMilli(),
		limit,
		window.Milliseconds(),
		member,
	).Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis limiter: %w", err)
	}
	if len(raw) < 2 {
		return Result{}, fmt.Errorf("redis limiter: unexpected script reply %v", raw)
	}

	admitted, _ := raw[0].(int64)
	count, _ := raw[1].(int64)

	resetAt := now.Add(window)
	if len(raw) > 2 {
		if score, ok := raw[2].(string); ok {
			if ms, perr := strconv.ParseFloat(score, 64); perr == nil {
				resetAt = time.UnixMilli(int64(ms)).Add(window)
			}
		}
	}

	if admitted != 1 {
		return Result{Allowed: false, ResetAt: resetAt}, nil
	}
	return Result{
		Allowed:   true,
		Remaining: limit - int(count),
		ResetAt:   resetAt,
		Member:    member,
	}, nil
}

func (s *RedisStore) Forget(ctx context.Context, key, member string) error {
	if err := s.client.ZRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("redis limiter: %w", err)
	}
	return nil
}
