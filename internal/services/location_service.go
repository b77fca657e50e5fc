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
)

// LocationService представляет сервис отслеживания местоположения водителей
type LocationService struct {
	db  *database.DB
	log *logger.Logger
}

// NewLocationService создает новый экземпляр сервиса местоположений
func NewLocationService(db *database.DB, log *logger.Logger) *LocationService {
	return &LocationService{
		db:  db,
		log: log,
	}
}

// RecordLocation сохраняет точку местоположения водителя.
// Если указана активная доставка, она должна принадлежать водителю.
func (s *LocationService) RecordLocation(ctx context.Context, activeJobID string, req *models.RecordLocationRequest) (*models.Location, error) {
	if req.Lat == nil || req.Lng == nil {
		return nil, apperrors.Validationf("lat and lng are required")
	}
	if *req.Lat < -90 || *req.Lat > 90 || *req.Lng < -180 || *req.Lng > 180 {
		return nil, apperrors.Validationf("coordinates out of range: %f, %f", *req.Lat, *req.Lng)
	}

	db := s.db.WithContext(ctx)
	location := &models.Location{
		ID:         uuid.NewString(),
		DriverID:   req.DriverID,
		Lat:        *req.Lat,
		Lng:        *req.Lng,
		RecordedAt: time.Now(),
	}

	if activeJobID != "" {
		active := &models.ActiveJob{}
		if err := db.First(active, "id = ?", activeJobID).Error; err != nil {
			return nil, notFoundOr(err, "active job", activeJobID)
		}
		if active.DriverID != req.DriverID {
			return nil, apperrors.Forbidden(ErrNotAssigned)
		}
		location.ActiveJobID = &active.ID
		location.CourierJobID = &active.CourierJobID
	}

	if err := db.Create(location).Error; err != nil {
		return nil, fmt.Errorf("failed to record location: %w", err)
	}

	s.log.WithField("driver_id", req.DriverID).Debug("Location recorded")
	return location, nil
}

// LatestLocation получает последнюю точку по активной доставке
func (s *LocationService) LatestLocation(ctx context.Context, activeJobID string) (*models.Location, error) {
	location := &models.Location{}
	err := s.db.WithContext(ctx).
		Where("active_job_id = ?", activeJobID).
		Order("recorded_at DESC").
		First(location).Error
	if err != nil {
		return nil, notFoundOr(err, "location for active job", activeJobID)
	}
	return location, nil
}

// ListLocations получает маршрут активной доставки в хронологическом порядке
func (s *LocationService) ListLocations(ctx context.Context, activeJobID string, limit int) ([]*models.Location, error) {
	locations := []*models.Location{}
	err := s.db.WithContext(ctx).
		Where("active_job_id = ?", activeJobID).
		Order("recorded_at ASC").
		Limit(pageLimit(limit)).
		Find(&locations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}
