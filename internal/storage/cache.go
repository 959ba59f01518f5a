package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	KeyTracksActive = "tracks_active"
	KeyGamesActive  = "games_active"

	// reset_throttle:{email}
	KeyResetThrottle = "reset_throttle:%s"
)

var (
	TTLCatalog       = time.Hour
	TTLResetThrottle = 15 * time.Minute
)

// CacheGetJSON loads key into dst. It reports false on a miss or when the cache is off.
func CacheGetJSON(ctx context.Context, key string, dst interface{}) bool {
	if RedisClient == nil {
		return false
	}
	cached, err := RedisClient.Get(ctx, key).Result()
	if err != nil || cached == "" {
		return false
	}
	if err := json.Unmarshal([]byte(cached), dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache entry is not valid JSON")
		return false
	}
	return true
}

// CacheSetJSON stores v under key. Failures are logged and otherwise ignored.
func CacheSetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if RedisClient == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := RedisClient.Set(ctx, key, b, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// CacheDelete drops keys after a write that makes them stale.
func CacheDelete(ctx context.Context, keys ...string) {
	if RedisClient == nil || len(keys) == 0 {
		return
	}
	if err := RedisClient.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}

// Throttle counts hits on key inside a fixed window and reports whether limit is exceeded.
// Without a cache nothing is ever throttled.
func Throttle(ctx context.Context, key string, limit int64, window time.Duration) bool {
	if RedisClient == nil {
		return false
	}
	n, err := RedisClient.Incr(ctx, key).Result()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("throttle counter failed")
		return false
	}
	if n == 1 {
		RedisClient.Expire(ctx, key, window)
	}
	return n > limit
}

func ResetThrottleKey(email string) string {
	return fmt.Sprintf(KeyResetThrottle, email)
}
