package models

import "time"

// DriverReview представляет отзыв клиента о водителе
type DriverReview struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	ActiveJobID string    `json:"active_job_id" gorm:"not null;uniqueIndex"`
	DriverID    string    `json:"driver_id" gorm:"not null;index"`
	ClientID    string    `json:"client_id" gorm:"not null"`
	Rating      int       `json:"rating" gorm:"not null"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClientReview представляет отзыв водителя о клиенте
type ClientReview struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	ActiveJobID string    `json:"active_job_id" gorm:"not null;uniqueIndex"`
	DriverID    string    `json:"driver_id" gorm:"not null"`
	ClientID    string    `json:"client_id" gorm:"not null;index"`
	Rating      int       `json:"rating" gorm:"not null"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateReviewRequest представляет запрос на создание отзыва
type CreateReviewRequest struct {
	ActiveJobID string `json:"active_job_id" binding:"required"`
	Rating      int    `json:"rating" binding:"required"`
	Comment     string `json:"comment" binding:"max=2000"`
}

// Rating представляет агрегированный рейтинг
type Rating struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}
