package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"patientcore/pkg/platform/sentinel"
)

const redisKeyPrefix = "patient:ratelimit:"

// slidingWindow trims, counts and conditionally adds in one round trip.
// Scores are microseconds. Returns {allowed, count, resetAtMicros}.
var slidingWindow = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	count = count + 1
	allowed = 1
end
redis.call('PEXPIRE', key, math.ceil(window / 1000))
local reset = now + window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
	reset = tonumber(oldest[2]) + window
end
return {allowed, count, reset}
`)

// RedisStore shares windows across replicas.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := time.Now()
	res, err := slidingWindow.Run(ctx, s.client, []string{redisKeyPrefix + key},
		now.UnixMicro(), window.Microseconds(), limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w: %w", sentinel.ErrUnavailable, err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("rate limit check: unexpected reply %v", res)
	}

	resetAt := time.UnixMicro(res[2])
	result := &Result{
		Allowed:   res[0] == 1,
		Limit:     limit,
		Remaining: max(limit-int(res[1]), 0),
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = retryAfter(now, resetAt)
	}
	return result, nil
}
