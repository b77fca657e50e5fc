// Package notify передает события жизненного цикла доставки во внешний сервис
// уведомлений. Запросы ставят задачу в очередь asynq, worker доставляет ее на webhook.
package notify

import (
	"context"
	"fmt"

	"ship-swift/internal/config"
	"ship-swift/internal/logger"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// TypeTrigger представляет тип задачи запуска workflow уведомлений
const TypeTrigger = "notification:trigger"

// Идентификаторы workflow во внешнем сервисе уведомлений
const (
	WorkflowRequestApproved       = "request-approved"
	WorkflowDeliveryStatusChanged = "delivery-status-changed"
	WorkflowDirectRequestCreated  = "direct-request-created"
)

// Notification представляет полезную нагрузку задачи
type Notification struct {
	WorkflowID   string                 `json:"workflow_id"`
	SubscriberID string                 `json:"subscriber_id"`
	Payload      map[string]interface{} `json:"payload"`
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher ставит уведомления в очередь
type Dispatcher struct {
	client   enqueuer
	maxRetry int
	log      *logrus.Entry
}

// RedisOpt возвращает параметры подключения asynq к Redis очереди
func RedisOpt(redisCfg *config.RedisConfig, queueCfg *config.QueueConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     redisCfg.Addr(),
		Password: redisCfg.Password,
		DB:       queueCfg.RedisDB,
	}
}

// NewDispatcher создает диспетчер поверх asynq клиента.
// Клиент nil означает, что уведомления выключены.
func NewDispatcher(client *asynq.Client, cfg *config.QueueConfig, log *logger.Logger) *Dispatcher {
	d := &Dispatcher{maxRetry: cfg.MaxRetry, log: log.ForComponent("notify")}
	if client != nil {
		d.client = client
	}
	return d
}

// Trigger ставит в очередь запуск workflow для подписчика
func (d *Dispatcher) Trigger(ctx context.Context, workflowID, subscriberID string, payload map[string]interface{}) error {
	if d.client == nil {
		return nil
	}

	task, err := NewTriggerTask(Notification{
		WorkflowID:   workflowID,
		SubscriberID: subscriberID,
		Payload:      payload,
	})
	if err != nil {
		return err
	}

	info, err := d.client.EnqueueContext(ctx, task, asynq.MaxRetry(d.maxRetry))
	if err != nil {
		return fmt.Errorf("failed to enqueue notification %s: %w", workflowID, err)
	}

	d.log.WithFields(logrus.Fields{
		"workflow_id":   workflowID,
		"subscriber_id": subscriberID,
		"task_id":       info.ID,
	}).Debug("Notification enqueued")
	return nil
}

// NewTriggerTask сериализует уведомление в задачу asynq
func NewTriggerTask(n Notification) (*asynq.Task, error) {
	if n.WorkflowID == "" {
		return nil, fmt.Errorf("workflow id is required")
	}
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return asynq.NewTask(TypeTrigger, data), nil
}
