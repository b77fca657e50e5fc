package models

import "time"

// Contact представляет переписку между клиентом и водителем
type Contact struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	ClientID  string    `json:"client_id" gorm:"not null;uniqueIndex:idx_contacts_pair"`
	DriverID  string    `json:"driver_id" gorm:"not null;index;uniqueIndex:idx_contacts_pair"`
	CreatedAt time.Time `json:"created_at"`
}

// HasParty проверяет, является ли пользователь участником переписки
func (c *Contact) HasParty(userID string) bool {
	return c.ClientID == userID || c.DriverID == userID
}

// Message представляет сообщение в переписке
type Message struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	ContactID string    `json:"contact_id" gorm:"not null;index"`
	SenderID  string    `json:"sender_id" gorm:"not null"`
	Content   string    `json:"content" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// CreateContactRequest представляет запрос на получение или создание переписки
type CreateContactRequest struct {
	ClientID string `json:"client_id" binding:"required"`
	DriverID string `json:"driver_id" binding:"required"`
}

// SendMessageRequest представляет запрос на отправку сообщения
type SendMessageRequest struct {
	SenderID string `json:"sender_id" binding:"required"`
	Content  string `json:"content" binding:"required,max=4000"`
}
