package kafka

import (
	"fmt"
	"time"

	"ship-swift/internal/config"
	"ship-swift/internal/logger"
	"ship-swift/internal/models"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Producer представляет Kafka producer доменных событий
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   config.Topics
}

// NewProducer создает новый Kafka producer
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll       // Ждем подтверждения от всех реплик
	config.Producer.Retry.Max = 3                          // Максимум 3 попытки
	config.Producer.Return.Successes = true                // Возвращаем успешные результаты
	config.Producer.Compression = sarama.CompressionSnappy // Сжатие данных

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Info("Kafka producer created successfully")
	return NewProducerWith(producer, cfg.Topics, log), nil
}

// NewProducerWith оборачивает готовый sarama.SyncProducer
func NewProducerWith(producer sarama.SyncProducer, topics config.Topics, log *logger.Logger) *Producer {
	return &Producer{
		producer: producer,
		log:      log,
		topics:   topics,
	}
}

// Close закрывает producer
func (p *Producer) Close() error {
	return p.producer.Close()
}

// PublishJobPosted публикует событие публикации заказа
func (p *Producer) PublishJobPosted(job *models.CourierJob) error {
	return p.publish(p.topics.Jobs, job.ID, models.EventTypeJobPosted, models.JobPostedEvent{
		CourierJobID:    job.ID,
		ClientID:        job.ClientID,
		PickupDistrict:  job.PickupDistrict,
		DropoffDistrict: job.DropoffDistrict,
		Budget:          job.Budget,
	})
}

// PublishRequestCreated публикует событие отклика водителя
func (p *Producer) PublishRequestCreated(req *models.JobRequest) error {
	return p.publish(p.topics.Jobs, req.CourierJobID, models.EventTypeRequestCreated, models.RequestCreatedEvent{
		RequestID:    req.ID,
		CourierJobID: req.CourierJobID,
		DriverID:     req.DriverID,
	})
}

// PublishDirectRequestCreated публикует событие прямого приглашения
func (p *Producer) PublishDirectRequestCreated(req *models.DirectRequest) error {
	return p.publish(p.topics.Jobs, req.CourierJobID, models.EventTypeRequestCreated, models.RequestCreatedEvent{
		RequestID:    req.ID,
		CourierJobID: req.CourierJobID,
		DriverID:     req.DriverID,
		ClientID:     req.ClientID,
		IsDirect:     true,
	})
}

// PublishRequestApproved публикует событие одобрения отклика
func (p *Producer) PublishRequestApproved(a *models.Approval) error {
	requestID := a.JobRequest.ID
	if a.IsDirect() {
		requestID = a.DirectRequest.ID
	}

	return p.publish(p.topics.Jobs, a.CourierJob.ID, models.EventTypeRequestApproved, models.RequestApprovedEvent{
		RequestID:          requestID,
		CanonicalRequestID: a.JobRequest.ID,
		CourierJobID:       a.CourierJob.ID,
		ActiveJobID:        a.ActiveJob.ID,
		DriverID:           a.ActiveJob.DriverID,
		ClientID:           a.ActiveJob.ClientID,
		IsDirect:           a.IsDirect(),
		Timestamp:          time.Now(),
	})
}

// PublishStatusChanged публикует событие изменения статуса доставки
func (p *Producer) PublishStatusChanged(change *models.StatusChange) error {
	active := change.ActiveJob
	return p.publish(p.topics.Deliveries, active.CourierJobID, models.EventTypeActiveJobStatusChanged, models.ActiveJobStatusChangedEvent{
		ActiveJobID:  active.ID,
		CourierJobID: active.CourierJobID,
		DriverID:     active.DriverID,
		ClientID:     active.ClientID,
		OldStatus:    change.Previous,
		NewStatus:    active.JobStatus,
		Timestamp:    time.Now(),
	})
}

// PublishJobDelivered публикует событие подтверждения доставки
func (p *Producer) PublishJobDelivered(delivered *models.DeliveredJob) error {
	event := models.JobDeliveredEvent{
		DeliveredJobID:     delivered.ID,
		ActiveJobID:        delivered.ActiveJobID,
		ProofOfDeliveryURL: delivered.ProofOfDeliveryURL,
		Timestamp:          time.Now(),
	}
	key := delivered.ActiveJobID
	if delivered.ActiveJob != nil {
		event.CourierJobID = delivered.ActiveJob.CourierJobID
		key = event.CourierJobID
	}

	return p.publish(p.topics.Deliveries, key, models.EventTypeJobDelivered, event)
}

// PublishLocationUpdated публикует событие обновления местоположения
func (p *Producer) PublishLocationUpdated(loc *models.Location) error {
	event := models.LocationUpdatedEvent{
		LocationID: loc.ID,
		DriverID:   loc.DriverID,
		Lat:        loc.Lat,
		Lng:        loc.Lng,
		Timestamp:  loc.RecordedAt,
	}
	if loc.ActiveJobID != nil {
		event.ActiveJobID = *loc.ActiveJobID
	}
	if loc.CourierJobID != nil {
		event.CourierJobID = *loc.CourierJobID
	}

	return p.publish(p.topics.Locations, loc.DriverID, models.EventTypeLocationUpdated, event)
}

// PublishMessageSent публикует событие нового сообщения в переписке
func (p *Producer) PublishMessageSent(msg *models.Message) error {
	return p.publish(p.topics.Messages, msg.ContactID, models.EventTypeMessageSent, models.MessageSentEvent{
		MessageID: msg.ID,
		ContactID: msg.ContactID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		Timestamp: msg.CreatedAt,
	})
}

// publish сериализует событие и отправляет его в топик.
// Ключ сообщения задает партицию, поэтому события одного заказа идут по порядку.
func (p *Producer) publish(topic, key string, eventType models.EventType, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	event := models.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(event.Type),
			},
			{
				Key:   []byte("timestamp"),
				Value: []byte(event.Timestamp.Format(time.RFC3339)),
			},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}

	p.log.WithField("topic", topic).
		WithField("partition", partition).
		WithField("offset", offset).
		WithField("event_type", event.Type).
		WithField("event_id", event.ID).
		Debug("Event published successfully")

	return nil
}
