package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/reservas-api/internal/application/ratelimit"
)

var _ ratelimit.Counter = (*RateCounter)(nil)

const rateKeyPrefix = "ratelimit:"

// fixedWindowScript mismo algoritmo que el contador en documento, atómico en Redis.
// Devuelve {allowed, count, retryAfterMs}.
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local count = tonumber(redis.call('HGET', key, 'count') or '0')
local start = tonumber(redis.call('HGET', key, 'windowStart') or '0')

if now - start > window then
	count = 0
	start = now
end

if count + 1 > limit then
	local retry = start + window - now
	if retry < 1 then
		retry = 1
	end
	return {0, count, retry}
end

count = count + 1
redis.call('HSET', key, 'count', count, 'windowStart', start)
redis.call('PEXPIRE', key, window * 2)
return {1, count, 0}
`)

// RateCounter contador de ventana fija sobre un hash de Redis.
type RateCounter struct {
	client redis.UniversalClient
}

// NewRateCounter construye el contador.
func NewRateCounter(client redis.UniversalClient) *RateCounter {
	return &RateCounter{client: client}
}

// Hit ejecuta el script para la clave.
func (c *RateCounter) Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (ratelimit.Decision, error) {
	res, err := fixedWindowScript.Run(ctx, c.client, []string{rateKeyPrefix + key},
		limit, window.Milliseconds(), now.UnixMilli()).Int64Slice()
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("redis rate counter: %w", err)
	}
	if len(res) != 3 {
		return ratelimit.Decision{}, fmt.Errorf("redis rate counter: respuesta inesperada %v", res)
	}
	return ratelimit.Decision{
		Allowed:    res[0] == 1,
		Count:      int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// NewClient abre el cliente desde una URL redis:// y verifica la conexión.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
