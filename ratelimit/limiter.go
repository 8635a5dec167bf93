// Package ratelimit is a sliding-window request limiter on Redis sorted sets.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow trims entries older than the window, then admits the
// request only if fewer than limit remain. Returns {allowed, remaining, resetAtMs}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local current = redis.call('ZCARD', key)

if current < limit then
	local counter = redis.call('INCR', key .. ':seq')
	redis.call('ZADD', key, now, now .. ':' .. counter)
	local ttl = math.ceil(window_ms / 1000)
	redis.call('EXPIRE', key, ttl)
	redis.call('EXPIRE', key .. ':seq', ttl)
	return {1, limit - current - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local reset_at = 0
if oldest and #oldest >= 2 then
	reset_at = tonumber(oldest[2]) + window_ms
end
return {0, 0, reset_at}
`)

type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

type Limiter struct {
	client    redis.Scripter
	keyPrefix string
	now       func() time.Time
}

func NewLimiter(client redis.Scripter, keyPrefix string) *Limiter {
	return &Limiter{client: client, keyPrefix: keyPrefix, now: time.Now}
}

// Allow records one request for key and reports whether it fits in limit
// requests per window.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := l.now()
	args := []any{now.UnixMilli(), now.Add(-window).UnixMilli(), limit, window.Milliseconds()}

	raw, err := slidingWindow.Run(ctx, l.client, []string{l.keyPrefix + key}, args...).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	return parseResult(raw, limit, now, window)
}

func parseResult(raw []int64, limit int, now time.Time, window time.Duration) (*Result, error) {
	if len(raw) != 3 {
		return nil, fmt.Errorf("rate limit script: unexpected reply length %d", len(raw))
	}
	r := &Result{
		Allowed:   raw[0] == 1,
		Remaining: int(raw[1]),
		Limit:     limit,
		ResetAt:   now.Add(window),
	}
	if raw[2] > 0 {
		r.ResetAt = time.UnixMilli(raw[2])
	}
	return r, nil
}
