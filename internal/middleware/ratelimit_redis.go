package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares fixed-window counters between processes. Counters live
// under prefix+key and expire with their window.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisLimiter(client *redis.Client, prefix string, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		logger: logger.With("component", "ratelimit"),
	}
}

// Allow fails open when Redis is unreachable so an outage does not lock
// everyone out of login.
func (rl *RedisLimiter) Allow(ctx context.Context, key string, limit int, period time.Duration) bool {
	k := rl.prefix + key

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, period)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Warn("rate limit check failed", "key", key, "error", err)
		return true
	}
	return incr.Val() <= int64(limit)
}
