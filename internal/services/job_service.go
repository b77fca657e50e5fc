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

// JobService представляет сервис для работы с заказами на доставку
type JobService struct {
	db  *database.DB
	log *logger.Logger
}

// NewJobService создает новый экземпляр сервиса заказов
func NewJobService(db *database.DB, log *logger.Logger) *JobService {
	return &JobService{
		db:  db,
		log: log,
	}
}

// CreateJob публикует новый заказ от имени верифицированного клиента
func (s *JobService) CreateJob(ctx context.Context, req *models.CreateCourierJobRequest) (*models.CourierJob, error) {
	job := &models.CourierJob{
		ID:              uuid.NewString(),
		ClientID:        req.ClientID,
		Title:           req.Title,
		Description:     req.Description,
		PickupAddress:   req.PickupAddress,
		PickupDistrict:  req.PickupDistrict,
		DropoffAddress:  req.DropoffAddress,
		DropoffDistrict: req.DropoffDistrict,
		Budget:          req.Budget,
		ParcelSize:      req.ParcelSize,
		ParcelWeight:    req.ParcelWeight,
		ParcelImageURL:  req.ParcelImageURL,
		CollectionDate:  req.CollectionDate,
		PackageStatus:   models.PackageStatusUnclaimed,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := requireVerifiedClient(tx, req.ClientID); err != nil {
			return err
		}
		if err := tx.Create(job).Error; err != nil {
			return fmt.Errorf("failed to create courier job: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"job_id":    job.ID,
		"client_id": job.ClientID,
		"pickup":    job.PickupDistrict,
		"dropoff":   job.DropoffDistrict,
	}).Info("Courier job created successfully")

	return job, nil
}

// GetJob получает заказ по ID
func (s *JobService) GetJob(ctx context.Context, jobID string) (*models.CourierJob, error) {
	job := &models.CourierJob{}
	if err := s.db.WithContext(ctx).First(job, "id = ?", jobID).Error; err != nil {
		return nil, notFoundOr(err, "courier job", jobID)
	}
	return job, nil
}

// ListJobs получает список заказов с фильтрацией
func (s *JobService) ListJobs(ctx context.Context, filter models.JobFilter) ([]*models.CourierJob, error) {
	query := s.db.WithContext(ctx).Model(&models.CourierJob{})

	if filter.Status != nil {
		query = query.Where("package_status = ?", *filter.Status)
	}
	if filter.OpenOnly {
		query = query.Where("package_status = ? AND is_direct = ?", models.PackageStatusUnclaimed, false)
	}
	if filter.District != "" {
		query = query.Where("pickup_district = ? OR dropoff_district = ?", filter.District, filter.District)
	}
	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	jobs := []*models.CourierJob{}
	err := query.Order("created_at DESC").Limit(pageLimit(filter.Limit)).Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list courier jobs: %w", err)
	}
	return jobs, nil
}

// UpdateJob изменяет поля заказа, пока он не назначен водителю
func (s *JobService) UpdateJob(ctx context.Context, jobID string, req *models.UpdateCourierJobRequest) (*models.CourierJob, error) {
	cols := req.Columns()
	if len(cols) == 0 {
		return nil, apperrors.Validation(ErrNoChanges)
	}
	cols["updated_at"] = time.Now()

	job := &models.CourierJob{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CourierJob{}).
			Where("id = ? AND package_status = ?", jobID, models.PackageStatusUnclaimed).
			Updates(cols)
		if res.Error != nil {
			return fmt.Errorf("failed to update courier job: %w", res.Error)
		}
		if err := tx.First(job, "id = ?", jobID).Error; err != nil {
			return notFoundOr(err, "courier job", jobID)
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict(fmt.Errorf("courier job %s: %w", jobID, ErrJobLocked))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("job_id", jobID).Info("Courier job updated")
	return job, nil
}

// DeleteJob удаляет заказ вместе с откликами; назначенный заказ удалить нельзя
func (s *JobService) DeleteJob(ctx context.Context, jobID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND package_status = ?", jobID, models.PackageStatusUnclaimed).
			Delete(&models.CourierJob{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete courier job: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			if err := tx.Select("id").First(&models.CourierJob{}, "id = ?", jobID).Error; err != nil {
				return notFoundOr(err, "courier job", jobID)
			}
			return apperrors.Conflict(fmt.Errorf("courier job %s: %w", jobID, ErrJobLocked))
		}

		if err := tx.Where("courier_job_id = ?", jobID).Delete(&models.JobRequest{}).Error; err != nil {
			return fmt.Errorf("failed to delete job requests: %w", err)
		}
		if err := tx.Where("courier_job_id = ?", jobID).Delete(&models.DirectRequest{}).Error; err != nil {
			return fmt.Errorf("failed to delete direct requests: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("job_id", jobID).Info("Courier job deleted")
	return nil
}
