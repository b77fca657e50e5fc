package handlers

import (
	"context"
	"net/http"
	"time"

	"ship-swift/internal/logger"
	"ship-swift/internal/redis"
	"ship-swift/internal/services"

	"github.com/gin-gonic/gin"
)

// CacheHandler представляет обработчик для кеша
type CacheHandler struct {
	cacheService *services.CacheService
	log          *logger.Logger
}

// NewCacheHandler создает новый обработчик кеша
func NewCacheHandler(cacheService *services.CacheService, log *logger.Logger) *CacheHandler {
	return &CacheHandler{
		cacheService: cacheService,
		log:          log,
	}
}

// GetMetrics возвращает метрики кеширования
func (h *CacheHandler) GetMetrics(c *gin.Context) {
	metrics, err := h.cacheService.GetMetrics(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, metrics)
}

func jobKey(id string) string {
	return services.BuildKey(redis.KeyPrefixJob, id)
}

// OpenJobsKey хранит первую страницу открытых заказов
func OpenJobsKey() string {
	return services.BuildKey(redis.KeyPrefixJob, "list:open")
}

func driverKey(id string) string {
	return services.BuildKey(redis.KeyPrefixDriver, id)
}

func clientKey(id string) string {
	return services.BuildKey(redis.KeyPrefixClient, id)
}

func driverRatingKey(id string) string {
	return services.BuildKey(redis.KeyPrefixRating, "driver:"+id)
}

func clientRatingKey(id string) string {
	return services.BuildKey(redis.KeyPrefixRating, "client:"+id)
}

// cached возвращает значение из кеша или загружает его и кладет в кеш
func cached[T any](ctx context.Context, cache *services.CacheService, log *logger.Logger, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var value T
	if found, _ := cache.Get(ctx, key, &value); found {
		log.WithField("key", key).Debug("Served from cache")
		return value, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if err := cache.Set(ctx, key, value, ttl); err != nil {
		log.WithError(err).WithField("key", key).Error("Failed to cache value")
	}
	return value, nil
}

// invalidate удаляет ключи; ошибка не прерывает запрос
func invalidate(ctx context.Context, cache *services.CacheService, log *logger.Logger, keys ...string) {
	if err := cache.Delete(ctx, keys...); err != nil {
		log.WithError(err).WithField("keys", keys).Error("Failed to invalidate cache")
	}
}
