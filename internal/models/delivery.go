package models

import "time"

// ActiveJob представляет заказ в процессе доставки после одобрения отклика
type ActiveJob struct {
	ID           string        `json:"id" gorm:"primaryKey"`
	CourierJobID string        `json:"courier_job_id" gorm:"not null;uniqueIndex"`
	DriverID     string        `json:"driver_id" gorm:"not null;index"`
	ClientID     string        `json:"client_id" gorm:"not null;index"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      *time.Time    `json:"end_date,omitempty"`
	JobStatus    PackageStatus `json:"job_status" gorm:"not null"`
}

// DeliveredJob представляет итоговую запись о доставке с подтверждением
type DeliveredJob struct {
	ID                 string    `json:"id" gorm:"primaryKey"`
	ActiveJobID        string    `json:"active_job_id" gorm:"not null;uniqueIndex"`
	LocationID         *string   `json:"location_id,omitempty"`
	ProofOfDeliveryURL string    `json:"proof_of_delivery_url"`
	ClientConfirmed    bool      `json:"client_confirmed"`
	DriverConfirmed    bool      `json:"driver_confirmed"`
	CreatedAt          time.Time `json:"created_at"`

	ActiveJob *ActiveJob `json:"active_job,omitempty" gorm:"-"`
}

// StatusChange представляет результат изменения статуса доставки
type StatusChange struct {
	ActiveJob *ActiveJob    `json:"active_job"`
	Previous  PackageStatus `json:"previous_status"`
}

// Changed сообщает, изменился ли статус
func (c *StatusChange) Changed() bool {
	return c.Previous != c.ActiveJob.JobStatus
}

// ActiveJobFilter представляет параметры выборки активных доставок
type ActiveJobFilter struct {
	DriverID string
	ClientID string
	Status   *PackageStatus
}

// Party представляет сторону сделки
type Party string

const (
	PartyClient Party = "client"
	PartyDriver Party = "driver"
)

// UpdateActiveJobStatusRequest представляет запрос на изменение статуса доставки
type UpdateActiveJobStatusRequest struct {
	Status PackageStatus `json:"status" binding:"required"`
}

// ConfirmDeliveryRequest представляет подтверждение доставки одной из сторон
type ConfirmDeliveryRequest struct {
	Party Party `json:"party" binding:"required,oneof=client driver"`
}
