package services

import (
	"context"
	"fmt"
	"time"

	"ship-swift/internal/apperrors"
	"ship-swift/internal/database"
	"ship-swift/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ApproveJobRequest одобряет отклик водителя: заказ переходит в claimed
// и создается активная доставка. Все записи выполняются в одной транзакции.
func (s *RequestService) ApproveJobRequest(ctx context.Context, requestID string) (*models.Approval, error) {
	approval := &models.Approval{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request := &models.JobRequest{}
		if err := tx.First(request, "id = ?", requestID).Error; err != nil {
			return notFoundOr(err, "job request", requestID)
		}
		if err := markApproved(tx, &models.JobRequest{}, request.ID); err != nil {
			return err
		}
		request.IsApproved = true
		approval.JobRequest = request

		job, err := claimJob(tx, request.CourierJobID, request.ID)
		if err != nil {
			return err
		}
		approval.CourierJob = job

		active, err := createActiveJob(tx, job, request.DriverID, job.ClientID)
		if err != nil {
			return err
		}
		approval.ActiveJob = active
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logApproval(approval)
	return approval, nil
}

// ApproveDirectRequest одобряет прямое приглашение. Для него создается
// каноническая запись JobRequest, на которую ссылается заказ.
func (s *RequestService) ApproveDirectRequest(ctx context.Context, requestID string) (*models.Approval, error) {
	approval := &models.Approval{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		direct := &models.DirectRequest{}
		if err := tx.First(direct, "id = ?", requestID).Error; err != nil {
			return notFoundOr(err, "direct request", requestID)
		}
		if err := markApproved(tx, &models.DirectRequest{}, direct.ID); err != nil {
			return err
		}
		direct.IsApproved = true
		approval.DirectRequest = direct

		canonical, err := canonicalJobRequest(tx, direct)
		if err != nil {
			return err
		}
		approval.JobRequest = canonical

		job, err := claimJob(tx, direct.CourierJobID, canonical.ID)
		if err != nil {
			return err
		}
		approval.CourierJob = job

		active, err := createActiveJob(tx, job, direct.DriverID, direct.ClientID)
		if err != nil {
			return err
		}
		approval.ActiveJob = active
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logApproval(approval)
	return approval, nil
}

// markApproved выставляет is_approved только для еще не одобренной записи
func markApproved(tx *gorm.DB, model interface{}, id string) error {
	res := tx.Model(model).
		Where("id = ? AND is_approved = ?", id, false).
		Update("is_approved", true)
	if res.Error != nil {
		return fmt.Errorf("failed to approve request %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict(fmt.Errorf("request %s: %w", id, ErrAlreadyApproved))
	}
	return nil
}

// canonicalJobRequest возвращает одобренный JobRequest для прямого приглашения.
// Если водитель уже откликался на этот заказ, используется его отклик.
func canonicalJobRequest(tx *gorm.DB, direct *models.DirectRequest) (*models.JobRequest, error) {
	request := &models.JobRequest{}
	err := tx.Where("courier_job_id = ? AND driver_id = ?", direct.CourierJobID, direct.DriverID).
		First(request).Error
	switch {
	case err == nil:
		if err := markApproved(tx, &models.JobRequest{}, request.ID); err != nil {
			return nil, err
		}
		request.IsApproved = true
		return request, nil
	case database.IsNotFound(err):
	default:
		return nil, fmt.Errorf("failed to look up job request: %w", err)
	}

	request = &models.JobRequest{
		ID:           uuid.NewString(),
		CourierJobID: direct.CourierJobID,
		DriverID:     direct.DriverID,
		IsApproved:   true,
	}
	if err := tx.Create(request).Error; err != nil {
		return nil, fmt.Errorf("failed to create canonical job request: %w", err)
	}
	return request, nil
}

// claimJob переводит заказ из unclaimed в claimed условным обновлением.
// Ноль затронутых строк означает, что заказ уже назначен или не существует.
func claimJob(tx *gorm.DB, jobID, requestID string) (*models.CourierJob, error) {
	res := tx.Model(&models.CourierJob{}).
		Where("id = ? AND package_status = ?", jobID, models.PackageStatusUnclaimed).
		Updates(map[string]interface{}{
			"package_status":      models.PackageStatusClaimed,
			"approved_request_id": requestID,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to claim courier job %s: %w", jobID, res.Error)
	}

	job := &models.CourierJob{}
	if err := tx.First(job, "id = ?", jobID).Error; err != nil {
		return nil, notFoundOr(err, "courier job", jobID)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.Conflict(fmt.Errorf("courier job %s: %w", jobID, ErrAlreadyClaimed))
	}
	return job, nil
}

func createActiveJob(tx *gorm.DB, job *models.CourierJob, driverID, clientID string) (*models.ActiveJob, error) {
	active := &models.ActiveJob{
		ID:           uuid.NewString(),
		CourierJobID: job.ID,
		DriverID:     driverID,
		ClientID:     clientID,
		StartDate:    time.Now(),
		JobStatus:    models.PackageStatusClaimed,
	}
	if err := tx.Create(active).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.Conflict(fmt.Errorf("courier job %s: %w", job.ID, ErrAlreadyClaimed))
		}
		return nil, fmt.Errorf("failed to create active job: %w", err)
	}
	return active, nil
}

func (s *RequestService) logApproval(a *models.Approval) {
	s.log.WithFields(logrus.Fields{
		"request_id":    a.JobRequest.ID,
		"job_id":        a.CourierJob.ID,
		"active_job_id": a.ActiveJob.ID,
		"driver_id":     a.ActiveJob.DriverID,
		"is_direct":     a.IsDirect(),
	}).Info("Request approved, courier job claimed")
}
