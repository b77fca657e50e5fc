package models

import "time"

// Location представляет точку местоположения водителя
type Location struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	DriverID     string    `json:"driver_id" gorm:"not null;index"`
	ActiveJobID  *string   `json:"active_job_id,omitempty" gorm:"index"`
	CourierJobID *string   `json:"courier_job_id,omitempty"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	RecordedAt   time.Time `json:"recorded_at" gorm:"index"`
}

// RecordLocationRequest представляет запрос на запись местоположения
type RecordLocationRequest struct {
	DriverID string   `json:"driver_id" binding:"required"`
	Lat      *float64 `json:"lat" binding:"required,latitude"`
	Lng      *float64 `json:"lng" binding:"required,longitude"`
}
