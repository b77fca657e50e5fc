package middleware

import (
	"net/http"
	"strconv"
	"time"

	"ship-swift/internal/logger"
	"ship-swift/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UserIDHeader содержит ID пользователя, проставленный шлюзом идентификации
const UserIDHeader = "X-User-ID"

// Subject возвращает субъект ограничения: ID пользователя или IP адрес
func Subject(c *gin.Context) string {
	if userID := c.GetHeader(UserIDHeader); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}

// RateLimit ограничивает количество запросов субъекта в минуту
func RateLimit(rateLimiter *services.RateLimiterService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := Subject(c)

		result, err := rateLimiter.CheckLimit(c.Request.Context(), subject, rateLimiter.IsVIP(c.GetHeader(UserIDHeader)))
		if err != nil {
			log.WithError(err).WithField("subject", subject).Error("Rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.ResetAt.IsZero() {
			c.Header("X-RateLimit-Reset", result.ResetAt.Format(time.RFC3339))
		}

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(result.RetryAfter))

			details := gin.H{
				"limit":       result.Limit,
				"retry_after": result.RetryAfter,
			}
			if !result.BannedUntil.IsZero() {
				details["banned_until"] = result.BannedUntil.Format(time.RFC3339)
			}

			log.WithFields(logrus.Fields{
				"subject":     subject,
				"path":        c.Request.URL.Path,
				"retry_after": result.RetryAfter,
			}).Warn("Request blocked by rate limiter")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate limit exceeded",
				"details": details,
			})
			return
		}

		c.Next()
	}
}
