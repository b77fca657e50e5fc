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

// DriverService представляет сервис для работы с водителями
type DriverService struct {
	db  *database.DB
	log *logger.Logger
}

// NewDriverService создает новый экземпляр сервиса водителей
func NewDriverService(db *database.DB, log *logger.Logger) *DriverService {
	return &DriverService{
		db:  db,
		log: log,
	}
}

// CreateDriver регистрирует водителя с ID от провайдера идентификации
func (s *DriverService) CreateDriver(ctx context.Context, req *models.CreateDriverRequest) (*models.Driver, error) {
	driver := &models.Driver{
		ID:                  req.ID,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Email:               req.Email,
		Phone:               req.Phone,
		VehicleType:         req.VehicleType,
		VehicleRegistration: req.VehicleRegistration,
	}

	if err := s.db.WithContext(ctx).Create(driver).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.Conflict(fmt.Errorf("driver %s: %w", req.ID, ErrAlreadyExists))
		}
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"driver_id":    driver.ID,
		"vehicle_type": driver.VehicleType,
	}).Info("Driver created successfully")

	return driver, nil
}

// GetDriver получает водителя по ID
func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*models.Driver, error) {
	driver := &models.Driver{}
	if err := s.db.WithContext(ctx).First(driver, "id = ?", driverID).Error; err != nil {
		return nil, notFoundOr(err, "driver", driverID)
	}
	return driver, nil
}

// ListDrivers получает список водителей с фильтром по верификации
func (s *DriverService) ListDrivers(ctx context.Context, verified *bool, limit, offset int) ([]*models.Driver, error) {
	query := s.db.WithContext(ctx).Model(&models.Driver{})
	if verified != nil {
		query = query.Where("is_verified = ?", *verified)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	drivers := []*models.Driver{}
	if err := query.Order("created_at DESC").Limit(pageLimit(limit)).Find(&drivers).Error; err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	return drivers, nil
}

// UpdateDriver изменяет переданные поля водителя
func (s *DriverService) UpdateDriver(ctx context.Context, driverID string, req *models.UpdateDriverRequest) (*models.Driver, error) {
	cols := req.Columns()
	if len(cols) == 0 {
		return nil, apperrors.Validation(ErrNoChanges)
	}
	if err := s.update(ctx, driverID, cols); err != nil {
		return nil, err
	}

	s.log.WithField("driver_id", driverID).Info("Driver updated")
	return s.GetDriver(ctx, driverID)
}

// SetVerification устанавливает признак верификации водителя
func (s *DriverService) SetVerification(ctx context.Context, driverID string, verified bool) (*models.Driver, error) {
	if err := s.update(ctx, driverID, map[string]interface{}{"is_verified": verified}); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"driver_id":   driverID,
		"is_verified": verified,
	}).Info("Driver verification changed")
	return s.GetDriver(ctx, driverID)
}

// SetDocument сохраняет публичный URL загруженного документа водителя
func (s *DriverService) SetDocument(ctx context.Context, driverID string, kind models.DocumentKind, url string) (*models.Driver, error) {
	var column string
	switch kind {
	case models.DocumentIDCard:
		column = "id_document_url"
	case models.DocumentVehiclePhoto:
		column = "vehicle_photo_url"
	case models.DocumentProfilePhoto:
		column = "profile_photo_url"
	default:
		return nil, apperrors.Validationf("document kind %q is not supported for drivers", kind)
	}

	if err := s.update(ctx, driverID, map[string]interface{}{column: url}); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"driver_id": driverID,
		"kind":      kind,
	}).Info("Driver document stored")
	return s.GetDriver(ctx, driverID)
}

// DeleteDriver удаляет водителя
func (s *DriverService) DeleteDriver(ctx context.Context, driverID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireNoOpenDeliveries(tx, "driver_id", driverID); err != nil {
			return err
		}

		res := tx.Where("id = ?", driverID).Delete(&models.Driver{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete driver: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFoundf("driver %s not found", driverID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("driver_id", driverID).Info("Driver deleted")
	return nil
}

func (s *DriverService) update(ctx context.Context, driverID string, cols map[string]interface{}) error {
	cols["updated_at"] = time.Now()
	res := s.db.WithContext(ctx).Model(&models.Driver{}).Where("id = ?", driverID).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("failed to update driver: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("driver %s not found", driverID)
	}
	return nil
}
