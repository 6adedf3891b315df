package redisrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	redisx "github.com/kirinyoku/showseat/internal/redis"
	"github.com/redis/go-redis/v9"
)

// Sliding window over a sorted set scored by call time in milliseconds.
// KEYS[1] key; ARGV now_ms, window_ms, limit, unique member.
// Returns {allowed, count, retry_ms}.
const luaSlidingWindow = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

-- remove expired
redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
-- add current hit
redis.call('ZADD', key, 'NX', now, member)
local count = redis.call('ZCARD', key)
-- keep TTL ~ window
redis.call('PEXPIRE', key, window)

if count > limit then
  local earliest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  local earliestScore = tonumber(earliest[2]) or (now - window)
  local retry_ms = window - (now - earliestScore)
  if retry_ms < 0 then retry_ms = 0 end
  return {0, count, retry_ms}
end
return {1, count, 0}
`

// SlidingWindowLimiter admits at most limit calls per key within any window.
type SlidingWindowLimiter struct {
	rdb    *redis.Client
	scope  string
	limit  int
	window time.Duration
	script *redis.Script
	now    func() time.Time
}

func NewSlidingWindowLimiter(
	rdb *redis.Client,
	scope string,
	limit int,
	window time.Duration,
) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		rdb:    rdb,
		scope:  scope,
		limit:  limit,
		window: window,
		script: redis.NewScript(luaSlidingWindow),
		now:    time.Now,
	}
}

// Allow records one call by id and reports whether it fits in the window.
// When it does not, retryAfter is the time until the oldest call expires.
// A nil limiter or a non-positive limit admits everything.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, id string) (allowed bool, current int64, retryAfter time.Duration, err error) {
	const op = "redisrepo.SlidingWindowLimiter.Allow"

	if l == nil || l.limit <= 0 {
		return true, 0, 0, nil
	}

	res, err := l.script.Run(
		ctx,
		l.rdb,
		[]string{redisx.KeyRateLimit(l.scope, id)},
		l.now().UnixMilli(), l.window.Milliseconds(), l.limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("%s:%w", op, err)
	}
	if len(res) != 3 {
		return false, 0, 0, fmt.Errorf("%s: unexpected script result %v", op, res)
	}

	return res[0] == 1, res[1], time.Duration(res[2]) * time.Millisecond, nil
}
