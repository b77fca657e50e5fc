package handlers

import (
	"net/http"

	"ship-swift/internal/apperrors"
	"ship-swift/internal/logger"
	"ship-swift/internal/models"
	"ship-swift/internal/services"

	"github.com/gin-gonic/gin"
)

// JobHandler представляет обработчик заказов на доставку
type JobHandler struct {
	jobService     *services.JobService
	requestService *services.RequestService
	quoteService   *services.QuoteService
	producer       EventPublisher
	cacheService   *services.CacheService
	log            *logger.Logger
}

// NewJobHandler создает новый обработчик заказов
func NewJobHandler(jobService *services.JobService, requestService *services.RequestService, quoteService *services.QuoteService, producer EventPublisher, cacheService *services.CacheService, log *logger.Logger) *JobHandler {
	return &JobHandler{
		jobService:     jobService,
		requestService: requestService,
		quoteService:   quoteService,
		producer:       producer,
		cacheService:   cacheService,
		log:            log,
	}
}

// CreateJob публикует новый заказ
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req models.CreateCourierJobRequest
	if !bind(c, h.log, &req) {
		return
	}

	job, err := h.jobService.CreateJob(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	// Заказ уже создан: ошибки публикации только логируются
	if err := h.producer.PublishJobPosted(job); err != nil {
		h.log.WithError(err).WithField("courier_job_id", job.ID).Error("Failed to publish job posted event")
	}
	invalidate(c.Request.Context(), h.cacheService, h.log, OpenJobsKey())

	respond(c, http.StatusCreated, job)
}

// GetJob возвращает заказ по ID
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("id")
	job, err := cached(c.Request.Context(), h.cacheService, h.log, jobKey(jobID), h.cacheService.GetDefaultTTL(),
		func() (*models.CourierJob, error) {
			return h.jobService.GetJob(c.Request.Context(), jobID)
		})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, job)
}

// ListJobs возвращает заказы с фильтрацией
func (h *JobHandler) ListJobs(c *gin.Context) {
	filter, err := h.jobFilter(c)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	load := func() ([]*models.CourierJob, error) {
		return h.jobService.ListJobs(c.Request.Context(), filter)
	}

	var jobs []*models.CourierJob
	if isFirstOpenPage(filter) {
		jobs, err = cached(c.Request.Context(), h.cacheService, h.log, OpenJobsKey(), h.cacheService.GetHotDataTTL(), load)
	} else {
		jobs, err = load()
	}
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, jobs)
}

func (h *JobHandler) jobFilter(c *gin.Context) (models.JobFilter, error) {
	var filter models.JobFilter
	var err error

	if filter.Status, err = queryStatus(c); err != nil {
		return filter, err
	}
	open, err := queryBool(c, "open")
	if err != nil {
		return filter, err
	}
	filter.OpenOnly = open != nil && *open
	filter.District = c.Query("district")
	filter.ClientID = c.Query("client_id")
	filter.Limit, filter.Offset, err = pagination(c)
	return filter, err
}

// isFirstOpenPage сообщает, что запрошена кешируемая первая страница открытых заказов
func isFirstOpenPage(f models.JobFilter) bool {
	return f.OpenOnly && f.Status == nil && f.District == "" && f.ClientID == "" && f.Limit == 0 && f.Offset == 0
}

// UpdateJob изменяет поля заказа, пока он не назначен
func (h *JobHandler) UpdateJob(c *gin.Context) {
	var req models.UpdateCourierJobRequest
	if !bind(c, h.log, &req) {
		return
	}

	job, err := h.jobService.UpdateJob(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	invalidate(c.Request.Context(), h.cacheService, h.log, jobKey(job.ID), OpenJobsKey())
	respond(c, http.StatusOK, job)
}

// DeleteJob удаляет не назначенный заказ
func (h *JobHandler) DeleteJob(c *gin.Context) {
	jobID := c.Param("id")
	if err := h.jobService.DeleteJob(c.Request.Context(), jobID); err != nil {
		fail(c, h.log, err)
		return
	}

	invalidate(c.Request.Context(), h.cacheService, h.log, jobKey(jobID), OpenJobsKey())
	c.Status(http.StatusNoContent)
}

// ListRequests возвращает отклики на заказ
func (h *JobHandler) ListRequests(c *gin.Context) {
	requests, err := h.requestService.ListRequestsForJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, requests)
}

// Apply создает отклик водителя на заказ
func (h *JobHandler) Apply(c *gin.Context) {
	var req models.ApplyForJobRequest
	if !bind(c, h.log, &req) {
		return
	}

	request, err := h.requestService.ApplyForJob(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	if err := h.producer.PublishRequestCreated(request); err != nil {
		h.log.WithError(err).WithField("request_id", request.ID).Error("Failed to publish request created event")
	}
	respond(c, http.StatusCreated, request)
}

// CheckRequest сообщает, откликался ли водитель на заказ
func (h *JobHandler) CheckRequest(c *gin.Context) {
	driverID := c.Query("driver_id")
	if driverID == "" {
		fail(c, h.log, apperrors.Validationf("query parameter driver_id is required"))
		return
	}

	exists, err := h.requestService.HasRequest(c.Request.Context(), c.Param("id"), driverID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"has_request": exists})
}

// Quote рассчитывает рекомендуемый бюджет доставки
func (h *JobHandler) Quote(c *gin.Context) {
	quote, err := h.quoteService.Quote(
		c.Query("pickup_district"),
		c.Query("dropoff_district"),
		models.ParcelSize(c.DefaultQuery("parcel_size", string(models.ParcelSizeSmall))),
	)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, quote)
}
