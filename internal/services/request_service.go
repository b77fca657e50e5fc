package services

import (
	"context"
	"fmt"

	"ship-swift/internal/apperrors"
	"ship-swift/internal/database"
	"ship-swift/internal/logger"
	"ship-swift/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RequestService представляет сервис откликов водителей и прямых приглашений
type RequestService struct {
	db  *database.DB
	log *logger.Logger
}

// NewRequestService создает новый экземпляр сервиса откликов
func NewRequestService(db *database.DB, log *logger.Logger) *RequestService {
	return &RequestService{
		db:  db,
		log: log,
	}
}

// HasRequest проверяет, откликался ли водитель на заказ
func (s *RequestService) HasRequest(ctx context.Context, jobID, driverID string) (bool, error) {
	return hasRequest(s.db.WithContext(ctx), jobID, driverID)
}

func hasRequest(tx *gorm.DB, jobID, driverID string) (bool, error) {
	var count int64
	err := tx.Model(&models.JobRequest{}).
		Where("courier_job_id = ? AND driver_id = ?", jobID, driverID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check job request: %w", err)
	}
	return count > 0, nil
}

// ApplyForJob создает отклик верифицированного водителя на открытый заказ
func (s *RequestService) ApplyForJob(ctx context.Context, jobID, driverID string) (*models.JobRequest, error) {
	request := &models.JobRequest{
		ID:           uuid.NewString(),
		CourierJobID: jobID,
		DriverID:     driverID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Проверка верификации до любой записи
		if _, err := requireVerifiedDriver(tx, driverID); err != nil {
			return err
		}

		job := &models.CourierJob{}
		if err := tx.First(job, "id = ?", jobID).Error; err != nil {
			return notFoundOr(err, "courier job", jobID)
		}
		if job.PackageStatus != models.PackageStatusUnclaimed || job.IsDirect {
			return apperrors.Conflict(fmt.Errorf("courier job %s: %w", jobID, ErrJobNotOpen))
		}

		exists, err := hasRequest(tx, jobID, driverID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Conflict(ErrAlreadyApplied)
		}

		if err := tx.Create(request).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.Conflict(ErrAlreadyApplied)
			}
			return fmt.Errorf("failed to create job request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": request.ID,
		"job_id":     jobID,
		"driver_id":  driverID,
	}).Info("Job request created")

	return request, nil
}

// CreateDirectRequest создает приглашение водителя клиентом на его заказ
func (s *RequestService) CreateDirectRequest(ctx context.Context, req *models.CreateDirectRequestRequest) (*models.DirectRequest, error) {
	request := &models.DirectRequest{
		ID:           uuid.NewString(),
		CourierJobID: req.CourierJobID,
		ClientID:     req.ClientID,
		DriverID:     req.DriverID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := requireVerifiedClient(tx, req.ClientID); err != nil {
			return err
		}

		job := &models.CourierJob{}
		if err := tx.First(job, "id = ?", req.CourierJobID).Error; err != nil {
			return notFoundOr(err, "courier job", req.CourierJobID)
		}
		if job.ClientID != req.ClientID {
			return apperrors.Forbidden(ErrNotJobOwner)
		}
		if job.PackageStatus != models.PackageStatusUnclaimed {
			return apperrors.Conflict(fmt.Errorf("courier job %s: %w", job.ID, ErrJobNotOpen))
		}

		if err := tx.Select("id").First(&models.Driver{}, "id = ?", req.DriverID).Error; err != nil {
			return notFoundOr(err, "driver", req.DriverID)
		}

		if err := tx.Create(request).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.Conflict(ErrAlreadyInvited)
			}
			return fmt.Errorf("failed to create direct request: %w", err)
		}

		if !job.IsDirect {
			err := tx.Model(&models.CourierJob{}).Where("id = ?", job.ID).Update("is_direct", true).Error
			if err != nil {
				return fmt.Errorf("failed to mark courier job as direct: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": request.ID,
		"job_id":     request.CourierJobID,
		"client_id":  request.ClientID,
		"driver_id":  request.DriverID,
	}).Info("Direct request created")

	return request, nil
}

// GetJobRequest получает отклик по ID
func (s *RequestService) GetJobRequest(ctx context.Context, requestID string) (*models.JobRequest, error) {
	request := &models.JobRequest{}
	if err := s.db.WithContext(ctx).First(request, "id = ?", requestID).Error; err != nil {
		return nil, notFoundOr(err, "job request", requestID)
	}
	return request, nil
}

// GetDirectRequest получает прямое приглашение по ID
func (s *RequestService) GetDirectRequest(ctx context.Context, requestID string) (*models.DirectRequest, error) {
	request := &models.DirectRequest{}
	if err := s.db.WithContext(ctx).First(request, "id = ?", requestID).Error; err != nil {
		return nil, notFoundOr(err, "direct request", requestID)
	}
	return request, nil
}

// WithdrawRequest удаляет неодобренный отклик
func (s *RequestService) WithdrawRequest(ctx context.Context, requestID string) error {
	db := s.db.WithContext(ctx)

	res := db.Where("id = ? AND is_approved = ?", requestID, false).Delete(&models.JobRequest{})
	if res.Error != nil {
		return fmt.Errorf("failed to withdraw job request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if err := db.Select("id").First(&models.JobRequest{}, "id = ?", requestID).Error; err != nil {
			return notFoundOr(err, "job request", requestID)
		}
		return apperrors.Conflict(ErrAlreadyApproved)
	}

	s.log.WithField("request_id", requestID).Info("Job request withdrawn")
	return nil
}

// ListRequestsForJob получает отклики на заказ
func (s *RequestService) ListRequestsForJob(ctx context.Context, jobID string) ([]*models.JobRequest, error) {
	requests := []*models.JobRequest{}
	err := s.db.WithContext(ctx).
		Where("courier_job_id = ?", jobID).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list job requests: %w", err)
	}
	return requests, nil
}

// ListRequestsForDriver получает отклики водителя
func (s *RequestService) ListRequestsForDriver(ctx context.Context, driverID string) ([]*models.JobRequest, error) {
	requests := []*models.JobRequest{}
	err := s.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list job requests: %w", err)
	}
	return requests, nil
}

// ListDirectRequestsForDriver получает приглашения, адресованные водителю
func (s *RequestService) ListDirectRequestsForDriver(ctx context.Context, driverID string) ([]*models.DirectRequest, error) {
	requests := []*models.DirectRequest{}
	err := s.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list direct requests: %w", err)
	}
	return requests, nil
}
