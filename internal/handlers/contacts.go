package handlers

import (
	"net/http"

	"ship-swift/internal/apperrors"
	"ship-swift/internal/logger"
	"ship-swift/internal/models"
	"ship-swift/internal/services"

	"github.com/gin-gonic/gin"
)

// ContactHandler представляет обработчик переписки, отзывов и поездок
type ContactHandler struct {
	contactService *services.ContactService
	reviewService  *services.ReviewService
	tripService    *services.TripService
	producer       EventPublisher
	cacheService   *services.CacheService
	log            *logger.Logger
}

// NewContactHandler создает новый обработчик переписки
func NewContactHandler(contactService *services.ContactService, reviewService *services.ReviewService, tripService *services.TripService, producer EventPublisher, cacheService *services.CacheService, log *logger.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		reviewService:  reviewService,
		tripService:    tripService,
		producer:       producer,
		cacheService:   cacheService,
		log:            log,
	}
}

// OpenContact возвращает переписку пары, создавая ее при первом обращении
func (h *ContactHandler) OpenContact(c *gin.Context) {
	var req models.CreateContactRequest
	if !bind(c, h.log, &req) {
		return
	}

	contact, err := h.contactService.GetOrCreateContact(c.Request.Context(), req.ClientID, req.DriverID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, contact)
}

// GetContact возвращает переписку по ID
func (h *ContactHandler) GetContact(c *gin.Context) {
	contact, err := h.contactService.GetContact(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, contact)
}

// ListContacts возвращает переписки пользователя
func (h *ContactHandler) ListContacts(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		fail(c, h.log, apperrors.Validationf("query parameter user_id is required"))
		return
	}

	contacts, err := h.contactService.ListContacts(c.Request.Context(), userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, contacts)
}

// SendMessage добавляет сообщение в переписку
func (h *ContactHandler) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if !bind(c, h.log, &req) {
		return
	}

	message, err := h.contactService.SendMessage(c.Request.Context(), c.Param("id"), req.SenderID, req.Content)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	if err := h.producer.PublishMessageSent(message); err != nil {
		h.log.WithError(err).WithField("message_id", message.ID).Error("Failed to publish message sent event")
	}
	respond(c, http.StatusCreated, message)
}

// ListMessages возвращает последние сообщения переписки
func (h *ContactHandler) ListMessages(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		fail(c, h.log, err)
		return
	}

	messages, err := h.contactService.ListMessages(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, messages)
}

// ReviewDriver сохраняет отзыв клиента о водителе
func (h *ContactHandler) ReviewDriver(c *gin.Context) {
	var req models.CreateReviewRequest
	if !bind(c, h.log, &req) {
		return
	}

	review, err := h.reviewService.ReviewDriver(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	invalidate(c.Request.Context(), h.cacheService, h.log, driverRatingKey(review.DriverID))
	respond(c, http.StatusCreated, review)
}

// ReviewClient сохраняет отзыв водителя о клиенте
func (h *ContactHandler) ReviewClient(c *gin.Context) {
	var req models.CreateReviewRequest
	if !bind(c, h.log, &req) {
		return
	}

	review, err := h.reviewService.ReviewClient(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	invalidate(c.Request.Context(), h.cacheService, h.log, clientRatingKey(review.ClientID))
	respond(c, http.StatusCreated, review)
}

// CreateTrip публикует запланированную поездку водителя
func (h *ContactHandler) CreateTrip(c *gin.Context) {
	var req models.CreateTripRequest
	if !bind(c, h.log, &req) {
		return
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, trip)
}

// ListTrips возвращает поездки по направлению
func (h *ContactHandler) ListTrips(c *gin.Context) {
	trips, err := h.tripService.ListTrips(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, trips)
}

// DeleteTrip удаляет поездку
func (h *ContactHandler) DeleteTrip(c *gin.Context) {
	if err := h.tripService.DeleteTrip(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
