package models

import (
	"time"
)

// PackageStatus представляет статус посылки в заказе на доставку
type PackageStatus string

const (
	PackageStatusUnclaimed PackageStatus = "unclaimed"
	PackageStatusClaimed   PackageStatus = "claimed"
	PackageStatusCollected PackageStatus = "collected"
	PackageStatusDelivered PackageStatus = "delivered"
)

// packageStatusOrder задает порядок статусов; переходы возможны только вперед
var packageStatusOrder = map[PackageStatus]int{
	PackageStatusUnclaimed: 0,
	PackageStatusClaimed:   1,
	PackageStatusCollected: 2,
	PackageStatusDelivered: 3,
}

// IsValid проверяет, что статус известен
func (s PackageStatus) IsValid() bool {
	_, ok := packageStatusOrder[s]
	return ok
}

// CanAdvanceTo сообщает, допустим ли переход из s в next.
// Повтор текущего статуса допустим, откат назад запрещен.
func (s PackageStatus) CanAdvanceTo(next PackageStatus) bool {
	from, ok := packageStatusOrder[s]
	if !ok {
		return false
	}
	to, ok := packageStatusOrder[next]
	if !ok {
		return false
	}
	return to >= from
}

// ParcelSize представляет габарит посылки
type ParcelSize string

const (
	ParcelSizeSmall  ParcelSize = "small"
	ParcelSizeMedium ParcelSize = "medium"
	ParcelSizeLarge  ParcelSize = "large"
)

// CourierJob представляет заказ на доставку, опубликованный клиентом
type CourierJob struct {
	ID                string        `json:"id" gorm:"primaryKey"`
	ClientID          string        `json:"client_id" gorm:"index;not null"`
	Title             string        `json:"title" gorm:"not null"`
	Description       string        `json:"description"`
	PickupAddress     string        `json:"pickup_address" gorm:"not null"`
	PickupDistrict    string        `json:"pickup_district" gorm:"index"`
	DropoffAddress    string        `json:"dropoff_address" gorm:"not null"`
	DropoffDistrict   string        `json:"dropoff_district" gorm:"index"`
	Budget            float64       `json:"budget"`
	ParcelSize        ParcelSize    `json:"parcel_size"`
	ParcelWeight      float64       `json:"parcel_weight"`
	ParcelImageURL    string        `json:"parcel_image_url,omitempty"`
	CollectionDate    *time.Time    `json:"collection_date,omitempty"`
	PackageStatus     PackageStatus `json:"package_status" gorm:"index;not null;default:unclaimed"`
	ApprovedRequestID *string       `json:"approved_request_id,omitempty"`
	IsDirect          bool          `json:"is_direct"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// CreateCourierJobRequest представляет запрос на публикацию заказа
type CreateCourierJobRequest struct {
	ClientID        string     `json:"client_id" binding:"required"`
	Title           string     `json:"title" binding:"required,max=200"`
	Description     string     `json:"description" binding:"max=2000"`
	PickupAddress   string     `json:"pickup_address" binding:"required"`
	PickupDistrict  string     `json:"pickup_district" binding:"required"`
	DropoffAddress  string     `json:"dropoff_address" binding:"required"`
	DropoffDistrict string     `json:"dropoff_district" binding:"required"`
	Budget          float64    `json:"budget" binding:"gte=0"`
	ParcelSize      ParcelSize `json:"parcel_size" binding:"required,oneof=small medium large"`
	ParcelWeight    float64    `json:"parcel_weight" binding:"gte=0"`
	ParcelImageURL  string     `json:"parcel_image_url" binding:"omitempty,url"`
	CollectionDate  *time.Time `json:"collection_date"`
}

// UpdateCourierJobRequest перечисляет поля заказа, которые можно изменить.
// Поля, равные nil, не изменяются.
type UpdateCourierJobRequest struct {
	Title           *string     `json:"title" binding:"omitempty,min=1,max=200"`
	Description     *string     `json:"description" binding:"omitempty,max=2000"`
	PickupAddress   *string     `json:"pickup_address" binding:"omitempty,min=1"`
	PickupDistrict  *string     `json:"pickup_district" binding:"omitempty,min=1"`
	DropoffAddress  *string     `json:"dropoff_address" binding:"omitempty,min=1"`
	DropoffDistrict *string     `json:"dropoff_district" binding:"omitempty,min=1"`
	Budget          *float64    `json:"budget" binding:"omitempty,gte=0"`
	ParcelSize      *ParcelSize `json:"parcel_size" binding:"omitempty,oneof=small medium large"`
	ParcelWeight    *float64    `json:"parcel_weight" binding:"omitempty,gte=0"`
	ParcelImageURL  *string     `json:"parcel_image_url" binding:"omitempty,url"`
	CollectionDate  *time.Time  `json:"collection_date"`
}

// Columns возвращает набор колонок для обновления
func (r *UpdateCourierJobRequest) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if r.Title != nil {
		cols["title"] = *r.Title
	}
	if r.Description != nil {
		cols["description"] = *r.Description
	}
	if r.PickupAddress != nil {
		cols["pickup_address"] = *r.PickupAddress
	}
	if r.PickupDistrict != nil {
		cols["pickup_district"] = *r.PickupDistrict
	}
	if r.DropoffAddress != nil {
		cols["dropoff_address"] = *r.DropoffAddress
	}
	if r.DropoffDistrict != nil {
		cols["dropoff_district"] = *r.DropoffDistrict
	}
	if r.Budget != nil {
		cols["budget"] = *r.Budget
	}
	if r.ParcelSize != nil {
		cols["parcel_size"] = *r.ParcelSize
	}
	if r.ParcelWeight != nil {
		cols["parcel_weight"] = *r.ParcelWeight
	}
	if r.ParcelImageURL != nil {
		cols["parcel_image_url"] = *r.ParcelImageURL
	}
	if r.CollectionDate != nil {
		cols["collection_date"] = *r.CollectionDate
	}
	return cols
}

// JobFilter представляет параметры фильтрации списка заказов
type JobFilter struct {
	Status   *PackageStatus
	District string
	ClientID string
	OpenOnly bool // только не назначенные и не прямые заказы
	Limit    int
	Offset   int
}

// Quote представляет рекомендуемый бюджет доставки
type Quote struct {
	PickupDistrict  string     `json:"pickup_district"`
	DropoffDistrict string     `json:"dropoff_district"`
	ParcelSize      ParcelSize `json:"parcel_size"`
	SuggestedBudget float64    `json:"suggested_budget"`
}
