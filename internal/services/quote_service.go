package services

import (
	"math"
	"strings"

	"ship-swift/internal/apperrors"
	"ship-swift/internal/config"
	"ship-swift/internal/logger"
	"ship-swift/internal/models"

	"github.com/sirupsen/logrus"
)

// sizeMultipliers задает коэффициент стоимости для габарита посылки
var sizeMultipliers = map[models.ParcelSize]float64{
	models.ParcelSizeSmall:  1.0,
	models.ParcelSizeMedium: 1.5,
	models.ParcelSizeLarge:  2.2,
}

// QuoteService рассчитывает рекомендуемый бюджет доставки
type QuoteService struct {
	config *config.PricingConfig
	log    *logger.Logger
}

// NewQuoteService создает сервис расчета бюджета
func NewQuoteService(cfg *config.PricingConfig, log *logger.Logger) *QuoteService {
	return &QuoteService{
		config: cfg,
		log:    log,
	}
}

// Quote рассчитывает рекомендуемый бюджет доставки
func (s *QuoteService) Quote(pickupDistrict, dropoffDistrict string, size models.ParcelSize) (*models.Quote, error) {
	pickupDistrict = strings.TrimSpace(pickupDistrict)
	dropoffDistrict = strings.TrimSpace(dropoffDistrict)
	if pickupDistrict == "" || dropoffDistrict == "" {
		return nil, apperrors.Validationf("districts cannot be empty")
	}

	multiplier, ok := sizeMultipliers[size]
	if !ok {
		return nil, apperrors.Validationf("unknown parcel size %q", size)
	}

	cost := s.config.BasePrice
	if !strings.EqualFold(pickupDistrict, dropoffDistrict) {
		cost += s.config.CrossDistrictFee
	}
	cost *= multiplier

	if cost < s.config.MinPrice {
		cost = s.config.MinPrice
	}

	if cost > s.config.MaxPrice {
		cost = s.config.MaxPrice
	}

	quote := &models.Quote{
		PickupDistrict:  pickupDistrict,
		DropoffDistrict: dropoffDistrict,
		ParcelSize:      size,
		SuggestedBudget: math.Round(cost*100) / 100,
	}

	s.log.WithFields(logrus.Fields{
		"pickup":  pickupDistrict,
		"dropoff": dropoffDistrict,
		"size":    size,
		"budget":  quote.SuggestedBudget,
	}).Debug("Delivery quote calculated")

	return quote, nil
}
