// Package ratelimit provides distributed rate limiting backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/logigrain/portauth/internal/config"
	"github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/pkg/logger"
)

// Sliding fixed-window counter. INCR plus a first-hit PEXPIRE is atomic
// enough for a per-operator budget; token buckets would be overkill here.
const fixedWindowLuaScript = `
local current = redis.call('INCR', KEYS[1])
if current == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`

// RedisRateLimiter enforces a per-minute request budget per scope and key.
type RedisRateLimiter struct {
	client redis.UniversalClient
	limit  int64
	window time.Duration
	logger logger.Logger
}

// NewRedisRateLimiter creates a Redis-backed rate limiter from the rate limit
// configuration.
func NewRedisRateLimiter(client redis.UniversalClient, cfg *config.RateLimitConfig, log logger.Logger) *RedisRateLimiter {
	limit := int64(cfg.DefaultRPM)
	if limit <= 0 {
		limit = 60
	}
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: time.Minute,
		logger: log,
	}
}

// Allow reports whether one more request fits the budget for (scope, key).
// A Redis failure fails open: availability of the ticket path outranks strict
// enforcement of the budget.
func (rl *RedisRateLimiter) Allow(ctx context.Context, scope string, key string) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s:%s", scope, key)

	result, err := rl.client.Eval(ctx, fixedWindowLuaScript,
		[]string{redisKey}, rl.window.Milliseconds()).Result()
	if err != nil {
		rl.logger.Warn(ctx, "rate limit check failed, allowing request",
			logger.Fields{"scope": scope, "key": key, "error": err.Error()})
		return true, nil
	}

	current, ok := result.(int64)
	if !ok {
		return true, nil
	}

	if current > rl.limit {
		rl.logger.Debug(ctx, "rate limit exceeded",
			logger.Fields{"scope": scope, "key": key, "current": current, "limit": rl.limit})
		return false, nil
	}
	return true, nil
}

// Limit returns the configured per-window budget.
func (rl *RedisRateLimiter) Limit() int { return int(rl.limit) }

var _ service.RateLimitService = (*RedisRateLimiter)(nil)

// NoopRateLimiter allows every request. Used when rate limiting is disabled.
type NoopRateLimiter struct{}

// Allow always reports true.
func (NoopRateLimiter) Allow(ctx context.Context, scope string, key string) (bool, error) {
	return true, nil
}

var _ service.RateLimitService = (*NoopRateLimiter)(nil)
