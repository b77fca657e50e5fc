package models

import "time"

// Driver представляет водителя; ID выдается внешним провайдером идентификации
type Driver struct {
	ID                  string    `json:"id" gorm:"primaryKey"`
	FirstName           string    `json:"first_name"`
	LastName            string    `json:"last_name"`
	Email               string    `json:"email" gorm:"index"`
	Phone               string    `json:"phone"`
	VehicleType         string    `json:"vehicle_type"`
	VehicleRegistration string    `json:"vehicle_registration"`
	IDDocumentURL       string    `json:"id_document_url,omitempty"`
	VehiclePhotoURL     string    `json:"vehicle_photo_url,omitempty"`
	ProfilePhotoURL     string    `json:"profile_photo_url,omitempty"`
	IsVerified          bool      `json:"is_verified" gorm:"not null;default:false"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Client представляет клиента; ID выдается внешним провайдером идентификации
type Client struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email" gorm:"index"`
	Phone           string    `json:"phone"`
	ProfilePhotoURL string    `json:"profile_photo_url,omitempty"`
	IsVerified      bool      `json:"is_verified" gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateDriverRequest представляет запрос на регистрацию водителя
type CreateDriverRequest struct {
	ID                  string `json:"id" binding:"required"`
	FirstName           string `json:"first_name" binding:"required"`
	LastName            string `json:"last_name" binding:"required"`
	Email               string `json:"email" binding:"required,email"`
	Phone               string `json:"phone" binding:"required"`
	VehicleType         string `json:"vehicle_type" binding:"required"`
	VehicleRegistration string `json:"vehicle_registration"`
}

// UpdateDriverRequest перечисляет изменяемые поля водителя
type UpdateDriverRequest struct {
	FirstName           *string `json:"first_name" binding:"omitempty,min=1"`
	LastName            *string `json:"last_name" binding:"omitempty,min=1"`
	Email               *string `json:"email" binding:"omitempty,email"`
	Phone               *string `json:"phone" binding:"omitempty,min=1"`
	VehicleType         *string `json:"vehicle_type" binding:"omitempty,min=1"`
	VehicleRegistration *string `json:"vehicle_registration"`
}

// Columns возвращает набор колонок для обновления
func (r *UpdateDriverRequest) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if r.FirstName != nil {
		cols["first_name"] = *r.FirstName
	}
	if r.LastName != nil {
		cols["last_name"] = *r.LastName
	}
	if r.Email != nil {
		cols["email"] = *r.Email
	}
	if r.Phone != nil {
		cols["phone"] = *r.Phone
	}
	if r.VehicleType != nil {
		cols["vehicle_type"] = *r.VehicleType
	}
	if r.VehicleRegistration != nil {
		cols["vehicle_registration"] = *r.VehicleRegistration
	}
	return cols
}

// CreateClientRequest представляет запрос на регистрацию клиента
type CreateClientRequest struct {
	ID        string `json:"id" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
}

// UpdateClientRequest перечисляет изменяемые поля клиента
type UpdateClientRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,min=1"`
	LastName  *string `json:"last_name" binding:"omitempty,min=1"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Phone     *string `json:"phone" binding:"omitempty,min=1"`
}

// Columns возвращает набор колонок для обновления
func (r *UpdateClientRequest) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if r.FirstName != nil {
		cols["first_name"] = *r.FirstName
	}
	if r.LastName != nil {
		cols["last_name"] = *r.LastName
	}
	if r.Email != nil {
		cols["email"] = *r.Email
	}
	if r.Phone != nil {
		cols["phone"] = *r.Phone
	}
	return cols
}

// SetVerificationRequest представляет решение администратора о верификации
type SetVerificationRequest struct {
	IsVerified *bool `json:"is_verified" binding:"required"`
}

// DocumentKind представляет тип загружаемого документа
type DocumentKind string

const (
	DocumentIDCard       DocumentKind = "id_document"
	DocumentVehiclePhoto DocumentKind = "vehicle_photo"
	DocumentProfilePhoto DocumentKind = "profile_photo"
	DocumentProof        DocumentKind = "proof_of_delivery"
)
