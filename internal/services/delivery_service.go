package services

import (
	"context"
	"fmt"
	"time"

	"ship-swift/internal/apperrors"
	"ship-swift/internal/database"
	"ship-swift/internal/logger"
	"ship-swift/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DeliveryService представляет сервис активных доставок
type DeliveryService struct {
	db  *database.DB
	log *logger.Logger
}

// NewDeliveryService создает новый экземпляр сервиса доставок
func NewDeliveryService(db *database.DB, log *logger.Logger) *DeliveryService {
	return &DeliveryService{
		db:  db,
		log: log,
	}
}

// GetActiveJob получает активную доставку по ID
func (s *DeliveryService) GetActiveJob(ctx context.Context, activeJobID string) (*models.ActiveJob, error) {
	active := &models.ActiveJob{}
	if err := s.db.WithContext(ctx).First(active, "id = ?", activeJobID).Error; err != nil {
		return nil, notFoundOr(err, "active job", activeJobID)
	}
	return active, nil
}

// ListActiveJobs получает активные доставки водителя или клиента
func (s *DeliveryService) ListActiveJobs(ctx context.Context, filter models.ActiveJobFilter) ([]*models.ActiveJob, error) {
	query := s.db.WithContext(ctx).Model(&models.ActiveJob{})
	if filter.DriverID != "" {
		query = query.Where("driver_id = ?", filter.DriverID)
	}
	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("job_status = ?", *filter.Status)
	}

	jobs := []*models.ActiveJob{}
	if err := query.Order("start_date DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list active jobs: %w", err)
	}
	return jobs, nil
}

// UpdateStatus продвигает статус активной доставки вперед.
// Статус delivered фиксирует дату завершения и не затрагивает заказ,
// остальные статусы дублируются в заказ в той же транзакции.
func (s *DeliveryService) UpdateStatus(ctx context.Context, activeJobID string, status models.PackageStatus) (*models.StatusChange, error) {
	if !status.IsValid() {
		return nil, apperrors.Validation(fmt.Errorf("%w: %q", ErrUnknownStatus, status))
	}

	var change *models.StatusChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		change, err = advanceStatus(tx, activeJobID, status)
		return err
	})
	if err != nil {
		return nil, err
	}

	if change.Changed() {
		s.log.WithFields(logrus.Fields{
			"active_job_id": activeJobID,
			"job_id":        change.ActiveJob.CourierJobID,
			"old_status":    change.Previous,
			"new_status":    change.ActiveJob.JobStatus,
		}).Info("Active job status updated")
	}

	return change, nil
}

func advanceStatus(tx *gorm.DB, activeJobID string, status models.PackageStatus) (*models.StatusChange, error) {
	active := &models.ActiveJob{}
	if err := tx.First(active, "id = ?", activeJobID).Error; err != nil {
		return nil, notFoundOr(err, "active job", activeJobID)
	}

	return applyStatus(tx, active, status)
}

// applyStatus записывает новый статус, если он не изменился с момента чтения active
func applyStatus(tx *gorm.DB, active *models.ActiveJob, status models.PackageStatus) (*models.StatusChange, error) {
	change := &models.StatusChange{ActiveJob: active, Previous: active.JobStatus}
	if active.JobStatus == status {
		return change, nil
	}
	if !active.JobStatus.CanAdvanceTo(status) {
		return nil, apperrors.Conflict(fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, active.JobStatus, status))
	}

	cols := map[string]interface{}{"job_status": status}
	var endDate time.Time
	if status == models.PackageStatusDelivered {
		endDate = time.Now()
		cols["end_date"] = endDate
	}

	// условие на текущий статус защищает от параллельного изменения
	res := tx.Model(&models.ActiveJob{}).
		Where("id = ? AND job_status = ?", active.ID, active.JobStatus).
		Updates(cols)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update active job status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.Conflict(fmt.Errorf("active job %s: %w", active.ID, ErrInvalidTransition))
	}

	if status != models.PackageStatusDelivered {
		res := tx.Model(&models.CourierJob{}).
			Where("id = ?", active.CourierJobID).
			Update("package_status", status)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update courier job status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, apperrors.NotFoundf("courier job %s not found", active.CourierJobID)
		}
	}

	active.JobStatus = status
	if !endDate.IsZero() {
		active.EndDate = &endDate
	}
	return change, nil
}

// checkProofLocation проверяет, что точка записана в рамках этой доставки
func checkProofLocation(tx *gorm.DB, locationID, activeJobID string) error {
	var count int64
	err := tx.Model(&models.Location{}).
		Where("id = ? AND active_job_id = ?", locationID, activeJobID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check proof location: %w", err)
	}
	if count == 0 {
		return apperrors.Validation(fmt.Errorf("location %s: %w", locationID, ErrLocationMismatch))
	}
	return nil
}

// SubmitProofOfDelivery фиксирует подтверждение доставки водителем
// и переводит активную доставку в delivered
func (s *DeliveryService) SubmitProofOfDelivery(ctx context.Context, activeJobID, proofURL string, locationID *string) (*models.DeliveredJob, error) {
	delivered := &models.DeliveredJob{
		ID:                 uuid.NewString(),
		ActiveJobID:        activeJobID,
		LocationID:         locationID,
		ProofOfDeliveryURL: proofURL,
		DriverConfirmed:    true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.DeliveredJob{}).Where("active_job_id = ?", activeJobID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check delivered job: %w", err)
		}
		if count > 0 {
			return apperrors.Conflict(ErrAlreadyDelivered)
		}

		change, err := advanceStatus(tx, activeJobID, models.PackageStatusDelivered)
		if err != nil {
			return err
		}
		delivered.ActiveJob = change.ActiveJob
		if locationID != nil {
			if err := checkProofLocation(tx, *locationID, activeJobID); err != nil {
				return err
			}
		}

		if err := tx.Create(delivered).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.Conflict(ErrAlreadyDelivered)
			}
			return fmt.Errorf("failed to create delivered job: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"delivered_job_id": delivered.ID,
		"active_job_id":    activeJobID,
	}).Info("Proof of delivery submitted")

	return delivered, nil
}

// ConfirmDelivery отмечает подтверждение доставки клиентом или водителем
func (s *DeliveryService) ConfirmDelivery(ctx context.Context, deliveredJobID string, party models.Party) (*models.DeliveredJob, error) {
	var column string
	switch party {
	case models.PartyClient:
		column = "client_confirmed"
	case models.PartyDriver:
		column = "driver_confirmed"
	default:
		return nil, apperrors.Validationf("unknown party %q", party)
	}

	db := s.db.WithContext(ctx)
	res := db.Model(&models.DeliveredJob{}).Where("id = ?", deliveredJobID).Update(column, true)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to confirm delivery: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFoundf("delivered job %s not found", deliveredJobID)
	}

	s.log.WithFields(logrus.Fields{
		"delivered_job_id": deliveredJobID,
		"party":            party,
	}).Info("Delivery confirmed")

	return s.GetDeliveredJob(ctx, deliveredJobID)
}

// GetDeliveredJob получает запись о доставке вместе с активной доставкой
func (s *DeliveryService) GetDeliveredJob(ctx context.Context, deliveredJobID string) (*models.DeliveredJob, error) {
	db := s.db.WithContext(ctx)

	delivered := &models.DeliveredJob{}
	if err := db.First(delivered, "id = ?", deliveredJobID).Error; err != nil {
		return nil, notFoundOr(err, "delivered job", deliveredJobID)
	}

	active := &models.ActiveJob{}
	if err := db.First(active, "id = ?", delivered.ActiveJobID).Error; err != nil {
		return nil, notFoundOr(err, "active job", delivered.ActiveJobID)
	}
	delivered.ActiveJob = active

	return delivered, nil
}
