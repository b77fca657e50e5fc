package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ship-swift/internal/apperrors"
	"ship-swift/internal/database"
	"ship-swift/internal/logger"
	"ship-swift/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ContactService представляет сервис переписки между клиентом и водителем
type ContactService struct {
	db  *database.DB
	log *logger.Logger
}

// NewContactService создает новый экземпляр сервиса переписки
func NewContactService(db *database.DB, log *logger.Logger) *ContactService {
	return &ContactService{
		db:  db,
		log: log,
	}
}

// GetOrCreateContact возвращает переписку пары клиент/водитель, создавая ее при первом обращении
func (s *ContactService) GetOrCreateContact(ctx context.Context, clientID, driverID string) (*models.Contact, error) {
	db := s.db.WithContext(ctx)

	contact, err := s.findContact(db, clientID, driverID)
	if err != nil || contact != nil {
		return contact, err
	}

	if err := db.Select("id").First(&models.Client{}, "id = ?", clientID).Error; err != nil {
		return nil, notFoundOr(err, "client", clientID)
	}
	if err := db.Select("id").First(&models.Driver{}, "id = ?", driverID).Error; err != nil {
		return nil, notFoundOr(err, "driver", driverID)
	}

	contact = &models.Contact{
		ID:       uuid.NewString(),
		ClientID: clientID,
		DriverID: driverID,
	}
	if err := db.Create(contact).Error; err != nil {
		if database.IsUniqueViolation(err) {
			// переписку создал параллельный запрос
			return s.findContact(db, clientID, driverID)
		}
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"contact_id": contact.ID,
		"client_id":  clientID,
		"driver_id":  driverID,
	}).Info("Contact created")

	return contact, nil
}

func (s *ContactService) findContact(db *gorm.DB, clientID, driverID string) (*models.Contact, error) {
	contact := &models.Contact{}
	err := db.Where("client_id = ? AND driver_id = ?", clientID, driverID).First(contact).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}
	return contact, nil
}

// GetContact получает переписку по ID
func (s *ContactService) GetContact(ctx context.Context, contactID string) (*models.Contact, error) {
	contact := &models.Contact{}
	if err := s.db.WithContext(ctx).First(contact, "id = ?", contactID).Error; err != nil {
		return nil, notFoundOr(err, "contact", contactID)
	}
	return contact, nil
}

// ListContacts получает переписки, в которых участвует пользователь
func (s *ContactService) ListContacts(ctx context.Context, userID string) ([]*models.Contact, error) {
	contacts := []*models.Contact{}
	err := s.db.WithContext(ctx).
		Where("client_id = ? OR driver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// SendMessage добавляет сообщение участника в переписку
func (s *ContactService) SendMessage(ctx context.Context, contactID, senderID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation(ErrEmptyMessage)
	}

	contact, err := s.GetContact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if !contact.HasParty(senderID) {
		return nil, apperrors.Forbidden(ErrNotParty)
	}

	message := &models.Message{
		ID:        uuid.NewString(),
		ContactID: contactID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"message_id": message.ID,
		"contact_id": contactID,
		"sender_id":  senderID,
	}).Debug("Message sent")

	return message, nil
}

// ListMessages получает последние сообщения переписки в хронологическом порядке
func (s *ContactService) ListMessages(ctx context.Context, contactID string, limit int) ([]*models.Message, error) {
	if _, err := s.GetContact(ctx, contactID); err != nil {
		return nil, err
	}

	messages := []*models.Message{}
	err := s.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Order("created_at DESC").
		Limit(pageLimit(limit)).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
