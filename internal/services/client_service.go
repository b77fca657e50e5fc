package services

import (
	"context"
	"fmt"
	"time"

	"ship-swift/internal/apperrors"
	"ship-swift/internal/database"
	"ship-swift/internal/logger"
	"ship-swift/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ClientService представляет сервис для работы с клиентами
type ClientService struct {
	db  *database.DB
	log *logger.Logger
}

// NewClientService создает новый экземпляр сервиса клиентов
func NewClientService(db *database.DB, log *logger.Logger) *ClientService {
	return &ClientService{
		db:  db,
		log: log,
	}
}

// CreateClient регистрирует клиента с ID от провайдера идентификации
func (s *ClientService) CreateClient(ctx context.Context, req *models.CreateClientRequest) (*models.Client, error) {
	client := &models.Client{
		ID:        req.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}

	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.Conflict(fmt.Errorf("client %s: %w", req.ID, ErrAlreadyExists))
		}
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.log.WithField("client_id", client.ID).Info("Client created successfully")
	return client, nil
}

// GetClient получает клиента по ID
func (s *ClientService) GetClient(ctx context.Context, clientID string) (*models.Client, error) {
	client := &models.Client{}
	if err := s.db.WithContext(ctx).First(client, "id = ?", clientID).Error; err != nil {
		return nil, notFoundOr(err, "client", clientID)
	}
	return client, nil
}

// ListClients получает список клиентов с фильтром по верификации
func (s *ClientService) ListClients(ctx context.Context, verified *bool, limit, offset int) ([]*models.Client, error) {
	query := s.db.WithContext(ctx).Model(&models.Client{})
	if verified != nil {
		query = query.Where("is_verified = ?", *verified)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	clients := []*models.Client{}
	if err := query.Order("created_at DESC").Limit(pageLimit(limit)).Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// UpdateClient изменяет переданные поля клиента
func (s *ClientService) UpdateClient(ctx context.Context, clientID string, req *models.UpdateClientRequest) (*models.Client, error) {
	cols := req.Columns()
	if len(cols) == 0 {
		return nil, apperrors.Validation(ErrNoChanges)
	}
	if err := s.update(ctx, clientID, cols); err != nil {
		return nil, err
	}

	s.log.WithField("client_id", clientID).Info("Client updated")
	return s.GetClient(ctx, clientID)
}

// SetVerification устанавливает признак верификации клиента
func (s *ClientService) SetVerification(ctx context.Context, clientID string, verified bool) (*models.Client, error) {
	if err := s.update(ctx, clientID, map[string]interface{}{"is_verified": verified}); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"client_id":   clientID,
		"is_verified": verified,
	}).Info("Client verification changed")
	return s.GetClient(ctx, clientID)
}

// SetProfilePhoto сохраняет публичный URL фотографии профиля
func (s *ClientService) SetProfilePhoto(ctx context.Context, clientID, url string) (*models.Client, error) {
	if err := s.update(ctx, clientID, map[string]interface{}{"profile_photo_url": url}); err != nil {
		return nil, err
	}
	return s.GetClient(ctx, clientID)
}

// DeleteClient удаляет клиента
func (s *ClientService) DeleteClient(ctx context.Context, clientID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireNoOpenDeliveries(tx, "client_id", clientID); err != nil {
			return err
		}

		res := tx.Where("id = ?", clientID).Delete(&models.Client{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete client: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFoundf("client %s not found", clientID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("client_id", clientID).Info("Client deleted")
	return nil
}

func (s *ClientService) update(ctx context.Context, clientID string, cols map[string]interface{}) error {
	cols["updated_at"] = time.Now()
	res := s.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", clientID).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("failed to update client: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("client %s not found", clientID)
	}
	return nil
}
