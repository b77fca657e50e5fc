package models

import "time"

// JobRequest представляет отклик водителя на открытый заказ
type JobRequest struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	CourierJobID string    `json:"courier_job_id" gorm:"not null;uniqueIndex:idx_job_requests_job_driver"`
	DriverID     string    `json:"driver_id" gorm:"not null;index;uniqueIndex:idx_job_requests_job_driver"`
	IsApproved   bool      `json:"is_approved" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
}

// DirectRequest представляет приглашение клиентом конкретного водителя на заказ
type DirectRequest struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	CourierJobID string    `json:"courier_job_id" gorm:"not null;uniqueIndex:idx_direct_requests_job_driver"`
	ClientID     string    `json:"client_id" gorm:"not null;index"`
	DriverID     string    `json:"driver_id" gorm:"not null;index;uniqueIndex:idx_direct_requests_job_driver"`
	IsApproved   bool      `json:"is_approved" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
}

// ApplyForJobRequest представляет запрос водителя на отклик
type ApplyForJobRequest struct {
	DriverID string `json:"driver_id" binding:"required"`
}

// CreateDirectRequestRequest представляет запрос на создание прямого приглашения
type CreateDirectRequestRequest struct {
	CourierJobID string `json:"courier_job_id" binding:"required"`
	ClientID     string `json:"client_id" binding:"required"`
	DriverID     string `json:"driver_id" binding:"required"`
}

// Approval представляет результат одобрения отклика или прямого приглашения
type Approval struct {
	JobRequest    *JobRequest    `json:"job_request"`
	DirectRequest *DirectRequest `json:"direct_request,omitempty"`
	CourierJob    *CourierJob    `json:"courier_job"`
	ActiveJob     *ActiveJob     `json:"active_job"`
}

// IsDirect сообщает, что одобрено прямое приглашение
func (a *Approval) IsDirect() bool {
	return a.DirectRequest != nil
}
