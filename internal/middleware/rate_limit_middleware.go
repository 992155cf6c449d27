package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RateLimitConfig содержит настройки rate limiting
type RateLimitConfig struct {
	// MaxRequests максимальное количество запросов за Window
	MaxRequests int
	// Window временное окно для подсчёта запросов
	Window time.Duration
	// KeyPrefix префикс для ключей в Redis
	KeyPrefix string
}

// EvidenceRateLimitConfig лимит на отправку доказательств одним пользователем
func EvidenceRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 10,
		Window:      time.Minute,
		KeyPrefix:   "rl:evidence",
	}
}

// AdminRateLimitConfig лимит на ручной запуск операций администратора
func AdminRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 5,
		Window:      time.Minute,
		KeyPrefix:   "rl:admin",
	}
}

// RateLimiter ограничивает частоту запросов счётчиками в Redis
type RateLimiter struct {
	redisClient redis.UniversalClient
	log         *logrus.Entry
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(redisClient redis.UniversalClient, log *logrus.Entry) *RateLimiter {
	return &RateLimiter{redisClient: redisClient, log: log.WithField("component", "RateLimiter")}
}

// Limit возвращает Gin middleware. Ключ строится из пользователя (или IP, если
// пользователь не аутентифицирован) и шаблона маршрута.
func (rl *RateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := "ip:" + c.ClientIP()
		if userID, ok := UserID(c); ok {
			subject = fmt.Sprintf("user:%d", userID)
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		key := fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, subject, path)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := rl.redisClient.Incr(ctx, key).Result()
		if err != nil {
			// Redis недоступен: пропускаем запрос
			rl.log.WithError(err).WithField("key", key).Warn("[RateLimiter] Ошибка Redis, запрос пропущен")
			c.Next()
			return
		}
		if count == 1 {
			if err := rl.redisClient.Expire(ctx, key, cfg.Window).Err(); err != nil {
				rl.log.WithError(err).WithField("key", key).Warn("[RateLimiter] Не удалось установить TTL")
			}
		}

		remaining := cfg.MaxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		ttl, _ := rl.redisClient.TTL(ctx, key).Result()
		retryAfter := int(ttl.Seconds())
		if retryAfter < 0 {
			retryAfter = int(cfg.Window.Seconds())
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", retryAfter))

		if int(count) > cfg.MaxRequests {
			rl.log.WithFields(logrus.Fields{
				"subject": subject,
				"path":    path,
				"count":   count,
			}).Warn("[RateLimiter] Превышен лимит запросов")
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"error_type":  "rate_limited",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
