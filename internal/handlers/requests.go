package handlers

import (
	"net/http"

	"ship-swift/internal/logger"
	"ship-swift/internal/models"
	"ship-swift/internal/notify"
	"ship-swift/internal/services"

	"github.com/gin-gonic/gin"
)

// RequestHandler представляет обработчик откликов и прямых приглашений
type RequestHandler struct {
	requestService *services.RequestService
	producer       EventPublisher
	notifier       Notifier
	cacheService   *services.CacheService
	log            *logger.Logger
}

// NewRequestHandler создает новый обработчик откликов
func NewRequestHandler(requestService *services.RequestService, producer EventPublisher, notifier Notifier, cacheService *services.CacheService, log *logger.Logger) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		producer:       producer,
		notifier:       notifier,
		cacheService:   cacheService,
		log:            log,
	}
}

// CreateDirectRequest приглашает конкретного водителя на заказ клиента
func (h *RequestHandler) CreateDirectRequest(c *gin.Context) {
	var req models.CreateDirectRequestRequest
	if !bind(c, h.log, &req) {
		return
	}

	direct, err := h.requestService.CreateDirectRequest(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.producer.PublishDirectRequestCreated(direct); err != nil {
		h.log.WithError(err).WithField("request_id", direct.ID).Error("Failed to publish direct request event")
	}
	if err := h.notifier.Trigger(ctx, notify.WorkflowDirectRequestCreated, direct.DriverID, map[string]interface{}{
		"request_id":     direct.ID,
		"courier_job_id": direct.CourierJobID,
		"client_id":      direct.ClientID,
	}); err != nil {
		h.log.WithError(err).WithField("request_id", direct.ID).Error("Failed to enqueue direct request notification")
	}
	// Заказ стал прямым и пропал из открытых
	invalidate(ctx, h.cacheService, h.log, jobKey(direct.CourierJobID), OpenJobsKey())

	respond(c, http.StatusCreated, direct)
}

// ApproveJobRequest одобряет отклик водителя
func (h *RequestHandler) ApproveJobRequest(c *gin.Context) {
	approval, err := h.requestService.ApproveJobRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	h.afterApproval(c, approval)
	respond(c, http.StatusOK, approval)
}

// ApproveDirectRequest одобряет прямое приглашение
func (h *RequestHandler) ApproveDirectRequest(c *gin.Context) {
	approval, err := h.requestService.ApproveDirectRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	h.afterApproval(c, approval)
	respond(c, http.StatusOK, approval)
}

// afterApproval выполняет побочные эффекты зафиксированного одобрения
func (h *RequestHandler) afterApproval(c *gin.Context, approval *models.Approval) {
	ctx := c.Request.Context()
	log := h.log.WithField("active_job_id", approval.ActiveJob.ID)

	if err := h.producer.PublishRequestApproved(approval); err != nil {
		log.WithError(err).Error("Failed to publish request approved event")
	}
	if err := h.notifier.Trigger(ctx, notify.WorkflowRequestApproved, approval.ActiveJob.DriverID, map[string]interface{}{
		"courier_job_id": approval.CourierJob.ID,
		"active_job_id":  approval.ActiveJob.ID,
		"client_id":      approval.ActiveJob.ClientID,
		"is_direct":      approval.IsDirect(),
	}); err != nil {
		log.WithError(err).Error("Failed to enqueue approval notification")
	}
	invalidate(ctx, h.cacheService, h.log, jobKey(approval.CourierJob.ID), OpenJobsKey())
}

// WithdrawRequest отзывает не одобренный отклик
func (h *RequestHandler) WithdrawRequest(c *gin.Context) {
	if err := h.requestService.WithdrawRequest(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetJobRequest возвращает отклик по ID
func (h *RequestHandler) GetJobRequest(c *gin.Context) {
	request, err := h.requestService.GetJobRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, request)
}

// GetDirectRequest возвращает прямое приглашение по ID
func (h *RequestHandler) GetDirectRequest(c *gin.Context) {
	direct, err := h.requestService.GetDirectRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, direct)
}
