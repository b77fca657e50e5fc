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
)

// TripService представляет сервис запланированных поездок водителей
type TripService struct {
	db  *database.DB
	log *logger.Logger
}

// NewTripService создает новый экземпляр сервиса поездок
func NewTripService(db *database.DB, log *logger.Logger) *TripService {
	return &TripService{
		db:  db,
		log: log,
	}
}

// CreateTrip публикует поездку верифицированного водителя
func (s *TripService) CreateTrip(ctx context.Context, req *models.CreateTripRequest) (*models.ScheduledTrip, error) {
	db := s.db.WithContext(ctx)
	if _, err := requireVerifiedDriver(db, req.DriverID); err != nil {
		return nil, err
	}

	trip := &models.ScheduledTrip{
		ID:            uuid.NewString(),
		DriverID:      req.DriverID,
		FromDistrict:  req.FromDistrict,
		ToDistrict:    req.ToDistrict,
		DepartureDate: req.DepartureDate,
		CapacityNote:  req.CapacityNote,
	}
	if err := db.Create(trip).Error; err != nil {
		return nil, fmt.Errorf("failed to create scheduled trip: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"trip_id":   trip.ID,
		"driver_id": trip.DriverID,
		"from":      trip.FromDistrict,
		"to":        trip.ToDistrict,
	}).Info("Scheduled trip created")
	return trip, nil
}

// ListTrips получает поездки по направлению; пустые районы не фильтруются
func (s *TripService) ListTrips(ctx context.Context, fromDistrict, toDistrict string) ([]*models.ScheduledTrip, error) {
	query := s.db.WithContext(ctx).Model(&models.ScheduledTrip{})
	if fromDistrict != "" {
		query = query.Where("from_district = ?", fromDistrict)
	}
	if toDistrict != "" {
		query = query.Where("to_district = ?", toDistrict)
	}

	trips := []*models.ScheduledTrip{}
	if err := query.Order("departure_date ASC").Find(&trips).Error; err != nil {
		return nil, fmt.Errorf("failed to list scheduled trips: %w", err)
	}
	return trips, nil
}

// DeleteTrip удаляет поездку
func (s *TripService) DeleteTrip(ctx context.Context, tripID string) error {
	res := s.db.WithContext(ctx).Where("id = ?", tripID).Delete(&models.ScheduledTrip{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete scheduled trip: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("scheduled trip %s not found", tripID)
	}

	s.log.WithField("trip_id", tripID).Info("Scheduled trip deleted")
	return nil
}
