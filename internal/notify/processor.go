package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"ship-swift/internal/config"
	"ship-swift/internal/logger"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Processor доставляет уведомления на webhook внешнего сервиса
type Processor struct {
	webhookURL string
	apiKey     string
	client     *http.Client
	log        *logrus.Entry
}

// NewProcessor создает обработчик задач уведомлений
func NewProcessor(cfg *config.NotificationsConfig, log *logger.Logger) *Processor {
	return &Processor{
		webhookURL: cfg.WebhookURL,
		apiKey:     cfg.APIKey,
		client:     &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		log:        log.ForComponent("notify-worker"),
	}
}

// Handler регистрирует обработчики задач
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeTrigger, p.HandleTrigger)
	return mux
}

// HandleTrigger отправляет уведомление; ошибка приводит к повтору задачи
func (p *Processor) HandleTrigger(ctx context.Context, task *asynq.Task) error {
	var n Notification
	if err := json.Unmarshal(task.Payload(), &n); err != nil {
		// Битая нагрузка не исправится повтором
		return fmt.Errorf("failed to decode notification: %v: %w", err, asynq.SkipRetry)
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %v: %w", err, asynq.SkipRetry)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "ApiKey "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	fields := logrus.Fields{
		"workflow_id":   n.WorkflowID,
		"subscriber_id": n.SubscriberID,
		"status":        resp.StatusCode,
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		p.log.WithFields(fields).Info("Notification delivered")
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		p.log.WithFields(fields).Error("Notification rejected by webhook")
		return fmt.Errorf("webhook rejected notification with status %d: %w", resp.StatusCode, asynq.SkipRetry)
	default:
		p.log.WithFields(fields).Warn("Notification delivery failed, will retry")
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
}
