package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// checkAndIncrementScript 与 MemoryLimiter 语义一致：
// 键不存在时开窗并计为 1，达到上限时不累加，INCR 保留原有过期时间。
var checkAndIncrementScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
  redis.call('SET', KEYS[1], '1', 'PX', ARGV[2])
  return 0
end
if tonumber(current) >= tonumber(ARGV[1]) then
  return 1
end
redis.call('INCR', KEYS[1])
return 0
`)

// RedisLimiter 基于 Redis 的共享限流器，多实例部署时计数全局一致
type RedisLimiter struct {
	client redis.Scripter
	max    int
	window time.Duration
}

// NewRedisLimiter 创建 Redis 限流器
func NewRedisLimiter(client redis.Scripter, max int, window time.Duration) *RedisLimiter {
	if max <= 0 {
		max = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisLimiter{
		client: client,
		max:    max,
		window: window,
	}
}

// CheckAndIncrement 原子地检查并累加计数
func (l *RedisLimiter) CheckAndIncrement(ctx context.Context, key string) (bool, error) {
	res, err := checkAndIncrementScript.Run(ctx, l.client,
		[]string{redisKeyPrefix + key},
		l.max, l.window.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit script: %w", err)
	}
	return res == 1, nil
}
