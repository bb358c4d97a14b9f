// Package ratelimit provides fixed-window request throttling backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// INCR opens the window on the first hit; PTTL reports how long it has left.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// Decision is the outcome of one Consume call
type Decision struct {
	Allowed    bool
	Count      int
	RetryAfter time.Duration
}

// RedisLimiter counts hits per scope and subject in shared Redis windows
type RedisLimiter struct {
	client redis.Scripter
	prefix string
}

func NewRedisLimiter(client redis.Scripter, prefix string) *RedisLimiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "transfer_ledger:rate_limit"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

// Consume records one hit. A nil limiter, nil client or empty key always allows.
func (r *RedisLimiter) Consume(ctx context.Context, scope, subject string, limit int, window time.Duration) (Decision, error) {
	if r == nil || r.client == nil || limit <= 0 || window <= 0 {
		return Decision{Allowed: true}, nil
	}

	scope = strings.TrimSpace(scope)
	subject = strings.TrimSpace(subject)
	if scope == "" || subject == "" {
		return Decision{Allowed: true}, nil
	}

	windowMs := window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := fmt.Sprintf("%s:%s:%s", r.prefix, scope, subject)
	raw, err := fixedWindowScript.Run(ctx, r.client, []string{key}, windowMs).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}

	count, ttlMs, err := parseScriptResult(raw)
	if err != nil {
		return Decision{}, err
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	retryAfter := time.Duration(ttlMs) * time.Millisecond
	if retryAfter < time.Second {
		retryAfter = time.Second
	}

	return Decision{
		Allowed:    int(count) <= limit,
		Count:      int(count),
		RetryAfter: retryAfter,
	}, nil
}

func parseScriptResult(raw interface{}) (count int64, ttlMs int64, err error) {
	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected redis limiter response shape: %T", raw)
	}
	count, ok = values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}
	ttlMs, ok = values[1].(int64)
	if !ok {
		return count, 0, fmt.Errorf("unexpected redis limiter ttl type: %T", values[1])
	}
	return count, ttlMs, nil
}
