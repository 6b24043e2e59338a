package httpx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenBucketLua = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

if rate <= 0 or burst <= 0 then
  return {1, 0}
end

local data = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])
if tokens == nil then
  tokens = burst
end
if ts == nil then
  ts = now
end

local delta = math.max(0, now - ts)
tokens = math.min(burst, tokens + (delta * rate) / 1000.0)

local allowed = tokens >= 1
local wait_ms = 0
if allowed then
  tokens = tokens - 1
else
  wait_ms = math.ceil((1 - tokens) * 1000.0 / rate)
end

redis.call("HSET", key, "tokens", tostring(tokens), "ts", now)
redis.call("PEXPIRE", key, math.ceil((burst / rate) * 1000.0 * 2))

return {allowed and 1 or 0, wait_ms}
`

// RedisLimitStore runs a token bucket per key inside Redis so limits hold
// across replicas.
type RedisLimitStore struct {
	rdb    redis.Scripter
	prefix string
	script *redis.Script
	now    func() time.Time
}

func NewRedisLimitStore(rdb redis.Scripter, prefix string) *RedisLimitStore {
	if prefix == "" {
		prefix = "qwanyx:ratelimit:"
	}
	return &RedisLimitStore{
		rdb:    rdb,
		prefix: prefix,
		script: redis.NewScript(tokenBucketLua),
		now:    time.Now,
	}
}

// Allow implements LimitStore.
func (s *RedisLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, time.Duration, error) {
	ratePerMs := float64(config.RequestsPerWindow) / float64(config.Window.Milliseconds())
	res, err := s.script.Run(ctx, s.rdb, []string{s.prefix + key},
		ratePerMs*1000, config.Burst, s.now().UnixMilli()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("redis token bucket: %w", err)
	}
	if len(res) < 2 {
		return false, 0, fmt.Errorf("redis token bucket: unexpected reply %v", res)
	}
	return res[0] == 1, time.Duration(res[1]) * time.Millisecond, nil
}
