package models

import (
	"encoding/json"
	"time"
)

// EventType представляет тип события
type EventType string

const (
	EventTypeJobPosted              EventType = "job.posted"
	EventTypeRequestCreated         EventType = "request.created"
	EventTypeRequestApproved        EventType = "request.approved"
	EventTypeActiveJobStatusChanged EventType = "active_job.status_changed"
	EventTypeJobDelivered           EventType = "job.delivered"
	EventTypeLocationUpdated        EventType = "location.updated"
	EventTypeMessageSent            EventType = "message.sent"
)

// Event представляет базовое событие; Data содержит сериализованную полезную нагрузку
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// JobPostedEvent представляет событие публикации заказа
type JobPostedEvent struct {
	CourierJobID    string  `json:"courier_job_id"`
	ClientID        string  `json:"client_id"`
	PickupDistrict  string  `json:"pickup_district"`
	DropoffDistrict string  `json:"dropoff_district"`
	Budget          float64 `json:"budget"`
}

// RequestCreatedEvent представляет событие отклика или прямого приглашения
type RequestCreatedEvent struct {
	RequestID    string `json:"request_id"`
	CourierJobID string `json:"courier_job_id"`
	DriverID     string `json:"driver_id"`
	ClientID     string `json:"client_id,omitempty"`
	IsDirect     bool   `json:"is_direct"`
}

// RequestApprovedEvent представляет событие одобрения отклика
type RequestApprovedEvent struct {
	RequestID          string    `json:"request_id"`
	CanonicalRequestID string    `json:"canonical_request_id"`
	CourierJobID       string    `json:"courier_job_id"`
	ActiveJobID        string    `json:"active_job_id"`
	DriverID           string    `json:"driver_id"`
	ClientID           string    `json:"client_id"`
	IsDirect           bool      `json:"is_direct"`
	Timestamp          time.Time `json:"timestamp"`
}

// ActiveJobStatusChangedEvent представляет событие изменения статуса доставки
type ActiveJobStatusChangedEvent struct {
	ActiveJobID  string        `json:"active_job_id"`
	CourierJobID string        `json:"courier_job_id"`
	DriverID     string        `json:"driver_id"`
	ClientID     string        `json:"client_id"`
	OldStatus    PackageStatus `json:"old_status"`
	NewStatus    PackageStatus `json:"new_status"`
	Timestamp    time.Time     `json:"timestamp"`
}

// JobDeliveredEvent представляет событие подтверждения доставки
type JobDeliveredEvent struct {
	DeliveredJobID     string    `json:"delivered_job_id"`
	ActiveJobID        string    `json:"active_job_id"`
	CourierJobID       string    `json:"courier_job_id"`
	ProofOfDeliveryURL string    `json:"proof_of_delivery_url"`
	Timestamp          time.Time `json:"timestamp"`
}

// LocationUpdatedEvent представляет событие обновления местоположения
type LocationUpdatedEvent struct {
	LocationID   string    `json:"location_id"`
	DriverID     string    `json:"driver_id"`
	ActiveJobID  string    `json:"active_job_id,omitempty"`
	CourierJobID string    `json:"courier_job_id,omitempty"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Timestamp    time.Time `json:"timestamp"`
}

// MessageSentEvent представляет событие отправки сообщения
type MessageSentEvent struct {
	MessageID string    `json:"message_id"`
	ContactID string    `json:"contact_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
