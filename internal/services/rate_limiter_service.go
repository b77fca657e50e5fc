package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"ship-swift/internal/config"
	"ship-swift/internal/logger"
	"ship-swift/internal/redis"

	"github.com/sirupsen/logrus"
)

// Lua скрипт для атомарной проверки и инкремента счетчика
const rateLimitLuaScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local current = redis.call('INCR', key)
if current == 1 then
    redis.call('EXPIRE', key, ttl)
end

if current > limit then
    return {0, current, limit}
end
return {1, current, limit}
`

// rateLimitWindow длительность окна подсчета запросов (секунды)
const rateLimitWindow = 60

// RateLimiterService управляет rate limiting с использованием Redis.
// Субъектом ограничения выступает ID пользователя или IP адрес.
type RateLimiterService struct {
	redis  *redis.Client
	config *config.RateLimitConfig
	log    *logger.Logger
}

// RateLimitResult содержит результат проверки rate limit
type RateLimitResult struct {
	Allowed     bool      `json:"allowed"`
	Remaining   int       `json:"remaining"`
	Limit       int       `json:"limit"`
	ResetAt     time.Time `json:"reset_at,omitempty"`
	BannedUntil time.Time `json:"banned_until,omitempty"`
	RetryAfter  int       `json:"retry_after,omitempty"`
}

// NewRateLimiterService создает сервис ограничения запросов
func NewRateLimiterService(redis *redis.Client, cfg *config.RateLimitConfig, log *logger.Logger) *RateLimiterService {
	return &RateLimiterService{
		redis:  redis,
		config: cfg,
		log:    log,
	}
}

func counterKey(subject string) string {
	return fmt.Sprintf("rate_limit:subject:%s", subject)
}

func banKey(subject string) string {
	return fmt.Sprintf("rate_limit:ban:%s", subject)
}

// IsVIP сообщает, входит ли субъект в список с повышенным лимитом
func (s *RateLimiterService) IsVIP(subject string) bool {
	for _, vip := range s.config.VIPSubjects {
		if vip == subject {
			return true
		}
	}
	return false
}

func (s *RateLimiterService) limitFor(isVIP bool) int {
	if isVIP {
		return s.config.VIPRPM
	}
	return s.config.DefaultRPM
}

func unlimited() *RateLimitResult {
	return &RateLimitResult{
		Allowed:   true,
		Remaining: math.MaxInt,
		Limit:     math.MaxInt,
	}
}

// bannedResult возвращает результат для забаненного субъекта или nil
func (s *RateLimiterService) bannedResult(ctx context.Context, subject string, limit int) *RateLimitResult {
	client := s.redis.GetClient()

	ttl, err := client.TTL(ctx, banKey(subject)).Result()
	if err != nil || ttl <= 0 {
		return nil
	}
	return &RateLimitResult{
		Allowed:     false,
		Remaining:   0,
		Limit:       limit,
		BannedUntil: time.Now().Add(ttl),
		RetryAfter:  int(math.Ceil(ttl.Seconds())),
	}
}

// CheckLimit учитывает запрос субъекта и сообщает, разрешен ли он
func (s *RateLimiterService) CheckLimit(ctx context.Context, subject string, isVIP bool) (*RateLimitResult, error) {
	if !s.config.Enabled || s.redis == nil {
		return unlimited(), nil
	}

	limit := s.limitFor(isVIP)
	if banned := s.bannedResult(ctx, subject, limit); banned != nil {
		return banned, nil
	}

	client := s.redis.GetClient()
	key := counterKey(subject)

	result, err := client.Eval(ctx, rateLimitLuaScript, []string{key}, limit, rateLimitWindow).Result()
	if err != nil {
		// При ошибке Redis пропускаем запрос (fail-open)
		s.log.WithError(err).WithField("subject", subject).Error("Rate limit script failed")
		return &RateLimitResult{Allowed: true, Remaining: limit, Limit: limit}, nil
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		s.log.WithFields(logrus.Fields{"subject": subject, "result": result}).Error("Unexpected rate limit script result")
		return &RateLimitResult{Allowed: true, Remaining: limit, Limit: limit}, nil
	}

	allowed := values[0].(int64) == 1
	count := int(values[1].(int64))

	if !allowed {
		ban := time.Duration(s.config.BanDuration) * time.Second
		if err := client.Set(ctx, banKey(subject), "1", ban).Err(); err != nil {
			s.log.WithError(err).WithField("subject", subject).Error("Failed to store rate limit ban")
		}

		s.log.WithFields(logrus.Fields{
			"subject":      subject,
			"count":        count,
			"limit":        limit,
			"ban_duration": s.config.BanDuration,
		}).Warn("Rate limit exceeded, subject banned")

		return &RateLimitResult{
			Allowed:     false,
			Remaining:   0,
			Limit:       limit,
			BannedUntil: time.Now().Add(ban),
			RetryAfter:  s.config.BanDuration,
		}, nil
	}

	ttl, _ := client.TTL(ctx, key).Result()
	return &RateLimitResult{
		Allowed:   true,
		Remaining: limit - count,
		Limit:     limit,
		ResetAt:   time.Now().Add(ttl),
	}, nil
}

// GetStatus возвращает текущий статус rate limit без изменения счетчика
func (s *RateLimiterService) GetStatus(ctx context.Context, subject string, isVIP bool) (*RateLimitResult, error) {
	if !s.config.Enabled || s.redis == nil {
		return unlimited(), nil
	}

	limit := s.limitFor(isVIP)
	if banned := s.bannedResult(ctx, subject, limit); banned != nil {
		return banned, nil
	}

	client := s.redis.GetClient()
	key := counterKey(subject)

	// Ключа нет: запросов в текущем окне еще не было
	count, err := client.Get(ctx, key).Int()
	if err != nil {
		count = 0
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	result := &RateLimitResult{
		Allowed:   count < limit,
		Remaining: remaining,
		Limit:     limit,
	}
	if ttl, _ := client.TTL(ctx, key).Result(); ttl > 0 {
		result.ResetAt = time.Now().Add(ttl)
	}
	return result, nil
}

// ResetLimit сбрасывает счетчик и бан субъекта
func (s *RateLimiterService) ResetLimit(ctx context.Context, subject string) error {
	if s.redis == nil {
		return nil
	}

	pipe := s.redis.GetClient().Pipeline()
	pipe.Del(ctx, counterKey(subject))
	pipe.Del(ctx, banKey(subject))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.WithError(err).WithField("subject", subject).Error("Failed to reset rate limit")
		return err
	}

	s.log.WithField("subject", subject).Info("Rate limit reset")
	return nil
}
