package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/repavi/lodges-backend/internal/common/response"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	RedisClient *redis.Client
	Limit       int                       // 限制次数
	Window      time.Duration             // 时间窗口
	KeyFunc     func(*gin.Context) string // 限流键
}

// RateLimit 固定窗口限流中间件
func RateLimit(config *RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.RedisClient == nil {
			c.Next()
			return
		}

		key := config.KeyFunc(c)
		ctx := c.Request.Context()

		count, err := config.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			// Redis 错误时放行
			c.Next()
			return
		}

		// 首次请求设置过期时间
		if count == 1 {
			config.RedisClient.Expire(ctx, key, config.Window)
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.Limit))

		if int(count) > config.Limit {
			ttl, _ := config.RedisClient.TTL(ctx, key).Result()
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))

			response.TooManyRequests(c, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", config.Limit-int(count)))
		c.Next()
	}
}

// IPRateLimit IP 限流中间件
func IPRateLimit(redisClient *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(&RateLimitConfig{
		RedisClient: redisClient,
		Limit:       limit,
		Window:      window,
		KeyFunc: func(c *gin.Context) string {
			return "ratelimit:ip:" + c.ClientIP()
		},
	})
}

// UserRateLimit 用户限流中间件，未认证时退化为按 IP
func UserRateLimit(redisClient *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(&RateLimitConfig{
		RedisClient: redisClient,
		Limit:       limit,
		Window:      window,
		KeyFunc: func(c *gin.Context) string {
			if userID := GetUserID(c); userID > 0 {
				return fmt.Sprintf("ratelimit:user:%d", userID)
			}
			return "ratelimit:ip:" + c.ClientIP()
		},
	})
}
