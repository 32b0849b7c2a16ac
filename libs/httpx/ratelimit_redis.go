package httpx

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter counts requests in clock-aligned windows stored in Redis,
// so every replica draws from the same budget. A counter key lives for one
// window plus a second of slack and is never reused.
type RedisRateLimiter struct {
	rdb    redis.Cmdable
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisRateLimiter(rdb redis.Cmdable, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = "rl"
	}
	return &RedisRateLimiter{rdb: rdb, limit: int64(limit), window: window, prefix: prefix, now: time.Now}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := rl.now().UnixMilli() / rl.window.Milliseconds()
	k := rl.prefix + ":" + key + ":" + strconv.FormatInt(bucket, 10)

	var incr *redis.IntCmd
	_, err := rl.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.PExpire(ctx, k, rl.window+time.Second)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= rl.limit, nil
}

// RedisReadyCheck pings the client for /readyz.
func RedisReadyCheck(rdb redis.Cmdable) func(context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
