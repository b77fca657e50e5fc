package realtime

import (
	"context"

	"ship-swift/internal/kafka"
	"ship-swift/internal/models"
)

// Router переводит доменные события из Kafka в топики подписчиков
type Router struct {
	hub *Hub
}

// NewRouter создает маршрутизатор событий для хаба
func NewRouter(hub *Hub) *Router {
	return &Router{hub: hub}
}

// Register подписывает маршрутизатор на события consumer-а
func (r *Router) Register(consumer *kafka.Consumer) {
	consumer.RegisterHandler(models.EventTypeLocationUpdated, r.HandleLocationUpdated)
	consumer.RegisterHandler(models.EventTypeMessageSent, r.HandleMessageSent)
	consumer.RegisterHandler(models.EventTypeActiveJobStatusChanged, r.HandleStatusChanged)
	consumer.RegisterHandler(models.EventTypeRequestApproved, r.HandleRequestApproved)
	consumer.RegisterHandler(models.EventTypeJobDelivered, r.HandleJobDelivered)
}

// HandleLocationUpdated пересылает координаты подписчикам водителя и заказа
func (r *Router) HandleLocationUpdated(ctx context.Context, event *models.Event) error {
	var payload models.LocationUpdatedEvent
	if err := kafka.DecodeData(event, &payload); err != nil {
		return err
	}

	if err := r.hub.Publish(Topic(TopicDriver, payload.DriverID), string(event.Type), payload); err != nil {
		return err
	}
	if payload.CourierJobID != "" {
		return r.hub.Publish(Topic(TopicJob, payload.CourierJobID), string(event.Type), payload)
	}
	return nil
}

// HandleMessageSent пересылает сообщение участникам переписки
func (r *Router) HandleMessageSent(ctx context.Context, event *models.Event) error {
	var payload models.MessageSentEvent
	if err := kafka.DecodeData(event, &payload); err != nil {
		return err
	}
	return r.hub.Publish(Topic(TopicContact, payload.ContactID), string(event.Type), payload)
}

// HandleStatusChanged пересылает изменение статуса подписчикам заказа
func (r *Router) HandleStatusChanged(ctx context.Context, event *models.Event) error {
	var payload models.ActiveJobStatusChangedEvent
	if err := kafka.DecodeData(event, &payload); err != nil {
		return err
	}
	return r.hub.Publish(Topic(TopicJob, payload.CourierJobID), string(event.Type), payload)
}

// HandleRequestApproved уведомляет подписчиков заказа и выбранного водителя
func (r *Router) HandleRequestApproved(ctx context.Context, event *models.Event) error {
	var payload models.RequestApprovedEvent
	if err := kafka.DecodeData(event, &payload); err != nil {
		return err
	}

	if err := r.hub.Publish(Topic(TopicJob, payload.CourierJobID), string(event.Type), payload); err != nil {
		return err
	}
	return r.hub.Publish(Topic(TopicDriver, payload.DriverID), string(event.Type), payload)
}

// HandleJobDelivered пересылает подтверждение доставки подписчикам заказа
func (r *Router) HandleJobDelivered(ctx context.Context, event *models.Event) error {
	var payload models.JobDeliveredEvent
	if err := kafka.DecodeData(event, &payload); err != nil {
		return err
	}
	if payload.CourierJobID == "" {
		return nil
	}
	return r.hub.Publish(Topic(TopicJob, payload.CourierJobID), string(event.Type), payload)
}
