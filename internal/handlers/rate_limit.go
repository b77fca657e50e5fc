package handlers

import (
	"net/http"

	"ship-swift/internal/logger"
	"ship-swift/internal/middleware"
	"ship-swift/internal/services"

	"github.com/gin-gonic/gin"
)

// RateLimitHandler обрабатывает запросы связанные с rate limiting
type RateLimitHandler struct {
	rateLimiter *services.RateLimiterService
	log         *logger.Logger
}

// NewRateLimitHandler создает новый RateLimitHandler
func NewRateLimitHandler(rateLimiter *services.RateLimiterService, log *logger.Logger) *RateLimitHandler {
	return &RateLimitHandler{
		rateLimiter: rateLimiter,
		log:         log,
	}
}

// GetStatus возвращает текущий статус rate limit для вызывающего без инкремента счетчика
func (h *RateLimitHandler) GetStatus(c *gin.Context) {
	subject := middleware.Subject(c)

	result, err := h.rateLimiter.GetStatus(c.Request.Context(), subject, h.rateLimiter.IsVIP(c.GetHeader(middleware.UserIDHeader)))
	if err != nil {
		fail(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"subject":    subject,
		"rate_limit": result,
	})
}
