package services

import (
	"errors"
	"fmt"

	"ship-swift/internal/apperrors"
	"ship-swift/internal/database"
	"ship-swift/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAlreadyClaimed    = errors.New("courier job already claimed")
	ErrAlreadyApproved   = errors.New("request already approved")
	ErrAlreadyApplied    = errors.New("driver already applied for this job")
	ErrAlreadyInvited    = errors.New("driver already invited to this job")
	ErrAlreadyDelivered  = errors.New("proof of delivery already submitted")
	ErrAlreadyReviewed   = errors.New("review already submitted for this delivery")
	ErrAlreadyExists     = errors.New("record already exists")
	ErrNotVerified       = errors.New("account is not verified")
	ErrJobNotOpen        = errors.New("courier job is not open for requests")
	ErrJobLocked         = errors.New("courier job can only be changed while unclaimed")
	ErrNotJobOwner       = errors.New("courier job belongs to another client")
	ErrNotParty          = errors.New("user is not a party of this conversation")
	ErrNotAssigned       = errors.New("active job is assigned to another driver")
	ErrNotDelivered      = errors.New("active job is not delivered yet")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownStatus     = errors.New("unknown package status")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrEmptyMessage      = errors.New("message content is empty")
	ErrNoChanges         = errors.New("no fields to update")
	ErrLocationMismatch  = errors.New("location was not recorded for this active job")
	ErrHasActiveJobs     = errors.New("party has deliveries in progress")
)

// notFoundOr превращает gorm.ErrRecordNotFound в ошибку NotFound, остальные ошибки оборачивает
func notFoundOr(err error, what, id string) error {
	if database.IsNotFound(err) {
		return apperrors.NotFoundf("%s %s not found", what, id)
	}
	return fmt.Errorf("failed to get %s %s: %w", what, id, err)
}

// requireVerifiedDriver загружает водителя и проверяет, что он верифицирован
func requireVerifiedDriver(tx *gorm.DB, driverID string) (*models.Driver, error) {
	driver := &models.Driver{}
	if err := tx.First(driver, "id = ?", driverID).Error; err != nil {
		return nil, notFoundOr(err, "driver", driverID)
	}
	if !driver.IsVerified {
		return nil, apperrors.Forbidden(fmt.Errorf("driver %s: %w", driverID, ErrNotVerified))
	}
	return driver, nil
}

// requireVerifiedClient загружает клиента и проверяет, что он верифицирован
func requireVerifiedClient(tx *gorm.DB, clientID string) (*models.Client, error) {
	client := &models.Client{}
	if err := tx.First(client, "id = ?", clientID).Error; err != nil {
		return nil, notFoundOr(err, "client", clientID)
	}
	if !client.IsVerified {
		return nil, apperrors.Forbidden(fmt.Errorf("client %s: %w", clientID, ErrNotVerified))
	}
	return client, nil
}

// pageLimit ограничивает размер страницы списка
func pageLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}

// requireNoOpenDeliveries запрещает операцию, пока у участника есть незавершенные доставки
func requireNoOpenDeliveries(tx *gorm.DB, column, id string) error {
	var count int64
	err := tx.Model(&models.ActiveJob{}).
		Where(column+" = ? AND job_status <> ?", id, models.PackageStatusDelivered).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to count open deliveries: %w", err)
	}
	if count > 0 {
		return apperrors.Conflict(fmt.Errorf("%d open deliveries: %w", count, ErrHasActiveJobs))
	}
	return nil
}
