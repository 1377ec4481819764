package ratelimiter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// consume mirrors MemoryStore.ConsumeTokens atomically on the server.
// KEYS[1] bucket hash; ARGV: capacity, refill rate, interval ms, tokens, now ms.
var consume = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate     = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local cost     = tonumber(ARGV[4])
local now      = tonumber(ARGV[5])

local state  = redis.call("HMGET", KEYS[1], "tokens", "last")
local tokens = tonumber(state[1])
local last   = tonumber(state[2])
if tokens == nil or last == nil then
	tokens = capacity
	last = now
end

if now > last then
	local n = math.floor((now - last) / interval)
	local cap = math.floor(capacity / rate) + 1
	if n > cap then n = cap end
	if n > 0 then
		tokens = math.min(tokens + n * rate, capacity)
		last = last + n * interval
	end
end

local remaining = tokens - cost
if remaining >= 0 then
	tokens = remaining
else
	remaining = -1
end

redis.call("HSET", KEYS[1], "tokens", tokens, "last", last)
redis.call("PEXPIRE", KEYS[1], interval * (math.floor(capacity / rate) + 1))
return {remaining, last + interval}
`)

// RedisStore shares balances across instances through Redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a Store shared by every instance using client.
// Keys are namespaced with prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) (*RedisStore, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if prefix == "" {
		prefix = "lessonkit:ratelimit:"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// ConsumeTokens runs the refill-and-take script atomically on the server.
func (s *RedisStore) ConsumeTokens(ctx context.Context, key string, tokens int, cfg Config, now time.Time) (int, time.Time, error) {
	res, err := consume.Run(ctx, s.client, []string{s.prefix + key},
		cfg.Capacity,
		cfg.RefillRate,
		cfg.RefillInterval.Milliseconds(),
		tokens,
		now.UnixMilli(),
	).Int64Slice()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, ErrStoreUnavailable
	}
	return int(res[0]), time.UnixMilli(res[1]), nil
}

// Reset deletes the bucket for key.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
