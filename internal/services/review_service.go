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

// ReviewService представляет сервис отзывов после завершенной доставки
type ReviewService struct {
	db  *database.DB
	log *logger.Logger
}

// NewReviewService создает новый экземпляр сервиса отзывов
func NewReviewService(db *database.DB, log *logger.Logger) *ReviewService {
	return &ReviewService{
		db:  db,
		log: log,
	}
}

// ReviewDriver сохраняет отзыв клиента о водителе
func (s *ReviewService) ReviewDriver(ctx context.Context, req *models.CreateReviewRequest) (*models.DriverReview, error) {
	active, err := s.deliveredActiveJob(ctx, req)
	if err != nil {
		return nil, err
	}

	review := &models.DriverReview{
		ID:          uuid.NewString(),
		ActiveJobID: active.ID,
		DriverID:    active.DriverID,
		ClientID:    active.ClientID,
		Rating:      req.Rating,
		Comment:     req.Comment,
	}
	if err := s.create(ctx, review); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"review_id": review.ID,
		"driver_id": review.DriverID,
		"rating":    review.Rating,
	}).Info("Driver review created")
	return review, nil
}

// ReviewClient сохраняет отзыв водителя о клиенте
func (s *ReviewService) ReviewClient(ctx context.Context, req *models.CreateReviewRequest) (*models.ClientReview, error) {
	active, err := s.deliveredActiveJob(ctx, req)
	if err != nil {
		return nil, err
	}

	review := &models.ClientReview{
		ID:          uuid.NewString(),
		ActiveJobID: active.ID,
		DriverID:    active.DriverID,
		ClientID:    active.ClientID,
		Rating:      req.Rating,
		Comment:     req.Comment,
	}
	if err := s.create(ctx, review); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"review_id": review.ID,
		"client_id": review.ClientID,
		"rating":    review.Rating,
	}).Info("Client review created")
	return review, nil
}

func (s *ReviewService) deliveredActiveJob(ctx context.Context, req *models.CreateReviewRequest) (*models.ActiveJob, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.Validation(ErrInvalidRating)
	}

	active := &models.ActiveJob{}
	if err := s.db.WithContext(ctx).First(active, "id = ?", req.ActiveJobID).Error; err != nil {
		return nil, notFoundOr(err, "active job", req.ActiveJobID)
	}
	if active.JobStatus != models.PackageStatusDelivered {
		return nil, apperrors.Conflict(ErrNotDelivered)
	}
	return active, nil
}

func (s *ReviewService) create(ctx context.Context, review interface{}) error {
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.Conflict(ErrAlreadyReviewed)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// ListDriverReviews получает отзывы о водителе
func (s *ReviewService) ListDriverReviews(ctx context.Context, driverID string) ([]*models.DriverReview, error) {
	reviews := []*models.DriverReview{}
	err := s.db.WithContext(ctx).Where("driver_id = ?", driverID).Order("created_at DESC").Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list driver reviews: %w", err)
	}
	return reviews, nil
}

// DriverRating возвращает средний рейтинг водителя
func (s *ReviewService) DriverRating(ctx context.Context, driverID string) (*models.Rating, error) {
	return rating(s.db.WithContext(ctx).Model(&models.DriverReview{}).Where("driver_id = ?", driverID))
}

// ClientRating возвращает средний рейтинг клиента
func (s *ReviewService) ClientRating(ctx context.Context, clientID string) (*models.Rating, error) {
	return rating(s.db.WithContext(ctx).Model(&models.ClientReview{}).Where("client_id = ?", clientID))
}

func rating(query *gorm.DB) (*models.Rating, error) {
	r := &models.Rating{}
	err := query.Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").Scan(r).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rating: %w", err)
	}
	return r, nil
}
