package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter builds a rate-limit middleware for one route or group.
type Limiter func(max int, window time.Duration, keyFn KeyFunc) gin.HandlerFunc

// NewLimiter counts in Redis when rdb is set and in process otherwise.
func NewLimiter(rdb *redis.Client, allow AllowFunc) Limiter {
	if rdb == nil {
		return func(max int, window time.Duration, keyFn KeyFunc) gin.HandlerFunc {
			return LocalRateLimit(max, window, keyFn, allow)
		}
	}
	return func(max int, window time.Duration, keyFn KeyFunc) gin.HandlerFunc {
		return RateLimit(rdb, max, window, keyFn, allow)
	}
}
