package handlers

import (
	"net/http"

	"ship-swift/internal/logger"
	"ship-swift/internal/models"
	"ship-swift/internal/notify"
	"ship-swift/internal/services"
	"ship-swift/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DeliveryHandler представляет обработчик активных и завершенных доставок
type DeliveryHandler struct {
	deliveryService *services.DeliveryService
	locationService *services.LocationService
	producer        EventPublisher
	notifier        Notifier
	uploader        Uploader
	cacheService    *services.CacheService
	log             *logger.Logger
}

// NewDeliveryHandler создает новый обработчик доставок
func NewDeliveryHandler(
	deliveryService *services.DeliveryService,
	locationService *services.LocationService,
	producer EventPublisher,
	notifier Notifier,
	uploader Uploader,
	cacheService *services.CacheService,
	log *logger.Logger,
) *DeliveryHandler {
	return &DeliveryHandler{
		deliveryService: deliveryService,
		locationService: locationService,
		producer:        producer,
		notifier:        notifier,
		uploader:        uploader,
		cacheService:    cacheService,
		log:             log,
	}
}

// GetActiveJob возвращает активную доставку по ID
func (h *DeliveryHandler) GetActiveJob(c *gin.Context) {
	activeJob, err := h.deliveryService.GetActiveJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, activeJob)
}

// UpdateStatus продвигает статус доставки
func (h *DeliveryHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateActiveJobStatusRequest
	if !bind(c, h.log, &req) {
		return
	}

	change, err := h.deliveryService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	if change.Changed() {
		h.afterStatusChange(c, change)
	}
	respond(c, http.StatusOK, change.ActiveJob)
}

// afterStatusChange публикует событие, уведомляет клиента и сбрасывает кеш заказа
func (h *DeliveryHandler) afterStatusChange(c *gin.Context, change *models.StatusChange) {
	ctx := c.Request.Context()
	activeJob := change.ActiveJob
	log := h.log.WithFields(logrus.Fields{
		"active_job_id": activeJob.ID,
		"new_status":    activeJob.JobStatus,
	})

	if err := h.producer.PublishStatusChanged(change); err != nil {
		log.WithError(err).Error("Failed to publish status changed event")
	}
	if err := h.notifier.Trigger(ctx, notify.WorkflowDeliveryStatusChanged, activeJob.ClientID, map[string]interface{}{
		"courier_job_id": activeJob.CourierJobID,
		"active_job_id":  activeJob.ID,
		"old_status":     change.Previous,
		"new_status":     activeJob.JobStatus,
	}); err != nil {
		log.WithError(err).Error("Failed to enqueue status notification")
	}
	invalidate(ctx, h.cacheService, h.log, jobKey(activeJob.CourierJobID))
}

// SubmitProof принимает фото подтверждения доставки (multipart: file, location_id)
func (h *DeliveryHandler) SubmitProof(c *gin.Context) {
	ctx := c.Request.Context()
	activeJobID := c.Param("id")

	activeJob, err := h.deliveryService.GetActiveJob(ctx, activeJobID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	url, err := uploadFromForm(c, h.uploader, "file", storage.KindProof, activeJobID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	var locationID *string
	if id := c.PostForm("location_id"); id != "" {
		locationID = &id
	}

	delivered, err := h.deliveryService.SubmitProofOfDelivery(ctx, activeJobID, url, locationID)
	if err != nil {
		if rmErr := h.uploader.Remove(ctx, url); rmErr != nil {
			h.log.WithError(rmErr).WithField("url", url).Warn("Failed to remove orphaned proof upload")
		}
		fail(c, h.log, err)
		return
	}

	if err := h.producer.PublishJobDelivered(delivered); err != nil {
		h.log.WithError(err).WithField("delivered_job_id", delivered.ID).Error("Failed to publish job delivered event")
	}
	if delivered.ActiveJob != nil && activeJob.JobStatus != models.PackageStatusDelivered {
		h.afterStatusChange(c, &models.StatusChange{ActiveJob: delivered.ActiveJob, Previous: activeJob.JobStatus})
	}

	respond(c, http.StatusCreated, delivered)
}

// GetDeliveredJob возвращает завершенную доставку
func (h *DeliveryHandler) GetDeliveredJob(c *gin.Context) {
	delivered, err := h.deliveryService.GetDeliveredJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, delivered)
}

// ConfirmDelivery фиксирует подтверждение доставки одной из сторон
func (h *DeliveryHandler) ConfirmDelivery(c *gin.Context) {
	var req models.ConfirmDeliveryRequest
	if !bind(c, h.log, &req) {
		return
	}

	delivered, err := h.deliveryService.ConfirmDelivery(c.Request.Context(), c.Param("id"), req.Party)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, delivered)
}

// RecordJobLocation сохраняет координаты водителя в рамках доставки
func (h *DeliveryHandler) RecordJobLocation(c *gin.Context) {
	h.recordLocation(c, c.Param("id"))
}

// RecordLocation сохраняет координаты водителя вне доставки
func (h *DeliveryHandler) RecordLocation(c *gin.Context) {
	h.recordLocation(c, "")
}

func (h *DeliveryHandler) recordLocation(c *gin.Context, activeJobID string) {
	var req models.RecordLocationRequest
	if !bind(c, h.log, &req) {
		return
	}

	location, err := h.locationService.RecordLocation(c.Request.Context(), activeJobID, &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	if err := h.producer.PublishLocationUpdated(location); err != nil {
		h.log.WithError(err).WithField("location_id", location.ID).Error("Failed to publish location event")
	}
	respond(c, http.StatusCreated, location)
}

// ListLocations возвращает трек доставки
func (h *DeliveryHandler) ListLocations(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		fail(c, h.log, err)
		return
	}

	locations, err := h.locationService.ListLocations(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, locations)
}

// LatestLocation возвращает последние координаты доставки
func (h *DeliveryHandler) LatestLocation(c *gin.Context) {
	location, err := h.locationService.LatestLocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, location)
}
