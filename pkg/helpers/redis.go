package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds the client shared by the rate limiter and the pet cache.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func RedisGetJSON[T any](ctx context.Context, rdb *redis.Client, key string, dest *T) (bool, error) {
	res, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(res, dest); err != nil {
		return false, err
	}
	return true, nil
}

// setIfCurrentScript writes KEYS[1] unless the version mark in KEYS[2] is
// newer than the version the value was read at.
var setIfCurrentScript = redis.NewScript(`
local mark = redis.call("GET", KEYS[2])
if mark and tonumber(mark) > tonumber(ARGV[1]) then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// markVersionScript raises the version mark in KEYS[2] and drops KEYS[1].
var markVersionScript = redis.NewScript(`
local mark = redis.call("GET", KEYS[2])
if (not mark) or tonumber(mark) < tonumber(ARGV[1]) then
  redis.call("SET", KEYS[2], ARGV[1], "PX", ARGV[2])
end
redis.call("DEL", KEYS[1])
return 1
`)

// RedisSetJSONIfCurrent caches value read at version. It reports false when a
// writer has already marked a newer version, so a slow reader never puts a
// stale copy back after an invalidation.
func RedisSetJSONIfCurrent(ctx context.Context, rdb *redis.Client, key, markKey string, version int64, value any, ttl time.Duration) (bool, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	n, err := setIfCurrentScript.Run(ctx, rdb, []string{key, markKey}, version, b, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RedisInvalidateVersion records version as the latest committed one and
// deletes the cached value. markTTL must outlive any in-flight read.
func RedisInvalidateVersion(ctx context.Context, rdb *redis.Client, key, markKey string, version int64, markTTL time.Duration) error {
	return markVersionScript.Run(ctx, rdb, []string{key, markKey}, version, markTTL.Milliseconds()).Err()
}
