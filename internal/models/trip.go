package models

import "time"

// ScheduledTrip представляет запланированную поездку водителя между районами
type ScheduledTrip struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	DriverID      string    `json:"driver_id" gorm:"not null;index"`
	FromDistrict  string    `json:"from_district" gorm:"index"`
	ToDistrict    string    `json:"to_district" gorm:"index"`
	DepartureDate time.Time `json:"departure_date"`
	CapacityNote  string    `json:"capacity_note"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateTripRequest представляет запрос на публикацию поездки
type CreateTripRequest struct {
	DriverID      string    `json:"driver_id" binding:"required"`
	FromDistrict  string    `json:"from_district" binding:"required"`
	ToDistrict    string    `json:"to_district" binding:"required"`
	DepartureDate time.Time `json:"departure_date" binding:"required"`
	CapacityNote  string    `json:"capacity_note" binding:"max=500"`
}
