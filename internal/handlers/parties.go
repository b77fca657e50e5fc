package handlers

import (
	"net/http"

	"ship-swift/internal/apperrors"
	"ship-swift/internal/logger"
	"ship-swift/internal/models"
	"ship-swift/internal/services"
	"ship-swift/internal/storage"

	"github.com/gin-gonic/gin"
)

var documentStorageKinds = map[models.DocumentKind]storage.Kind{
	models.DocumentIDCard:       storage.KindIDDocument,
	models.DocumentVehiclePhoto: storage.KindVehiclePhoto,
	models.DocumentProfilePhoto: storage.KindProfilePhoto,
}

// PartyHandler представляет обработчик водителей и клиентов
type PartyHandler struct {
	driverService   *services.DriverService
	clientService   *services.ClientService
	requestService  *services.RequestService
	deliveryService *services.DeliveryService
	reviewService   *services.ReviewService
	uploader        Uploader
	cacheService    *services.CacheService
	log             *logger.Logger
}

// NewPartyHandler создает новый обработчик участников
func NewPartyHandler(
	driverService *services.DriverService,
	clientService *services.ClientService,
	requestService *services.RequestService,
	deliveryService *services.DeliveryService,
	reviewService *services.ReviewService,
	uploader Uploader,
	cacheService *services.CacheService,
	log *logger.Logger,
) *PartyHandler {
	return &PartyHandler{
		driverService:   driverService,
		clientService:   clientService,
		requestService:  requestService,
		deliveryService: deliveryService,
		reviewService:   reviewService,
		uploader:        uploader,
		cacheService:    cacheService,
		log:             log,
	}
}

// CreateDriver регистрирует водителя
func (h *PartyHandler) CreateDriver(c *gin.Context) {
	var req models.CreateDriverRequest
	if !bind(c, h.log, &req) {
		return
	}

	driver, err := h.driverService.CreateDriver(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, driver)
}

// GetDriver возвращает водителя по ID
func (h *PartyHandler) GetDriver(c *gin.Context) {
	driverID := c.Param("id")
	driver, err := cached(c.Request.Context(), h.cacheService, h.log, driverKey(driverID), h.cacheService.GetDefaultTTL(),
		func() (*models.Driver, error) {
			return h.driverService.GetDriver(c.Request.Context(), driverID)
		})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, driver)
}

// ListDrivers возвращает водителей, опционально по признаку верификации
func (h *PartyHandler) ListDrivers(c *gin.Context) {
	verified, err := queryBool(c, "verified")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	limit, offset, err := pagination(c)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	drivers, err := h.driverService.ListDrivers(c.Request.Context(), verified, limit, offset)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, drivers)
}

// UpdateDriver изменяет профиль водителя
func (h *PartyHandler) UpdateDriver(c *gin.Context) {
	var req models.UpdateDriverRequest
	if !bind(c, h.log, &req) {
		return
	}

	driver, err := h.driverService.UpdateDriver(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	invalidate(c.Request.Context(), h.cacheService, h.log, driverKey(driver.ID))
	respond(c, http.StatusOK, driver)
}

// SetDriverVerification сохраняет решение о верификации водителя
func (h *PartyHandler) SetDriverVerification(c *gin.Context) {
	var req models.SetVerificationRequest
	if !bind(c, h.log, &req) {
		return
	}

	driver, err := h.driverService.SetVerification(c.Request.Context(), c.Param("id"), *req.IsVerified)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	invalidate(c.Request.Context(), h.cacheService, h.log, driverKey(driver.ID))
	respond(c, http.StatusOK, driver)
}

// UploadDriverDocument загружает документ водителя (multipart: kind, file)
func (h *PartyHandler) UploadDriverDocument(c *gin.Context) {
	ctx := c.Request.Context()
	driverID := c.Param("id")

	kind := models.DocumentKind(c.PostForm("kind"))
	storageKind, ok := documentStorageKinds[kind]
	if !ok {
		fail(c, h.log, apperrors.Validationf("unknown document kind %q", kind))
		return
	}
	if _, err := h.driverService.GetDriver(ctx, driverID); err != nil {
		fail(c, h.log, err)
		return
	}

	url, err := uploadFromForm(c, h.uploader, "file", storageKind, driverID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	driver, err := h.driverService.SetDocument(ctx, driverID, kind, url)
	if err != nil {
		h.removeUpload(c, url)
		fail(c, h.log, err)
		return
	}
	invalidate(ctx, h.cacheService, h.log, driverKey(driverID))
	respond(c, http.StatusOK, driver)
}

// DeleteDriver удаляет водителя
func (h *PartyHandler) DeleteDriver(c *gin.Context) {
	driverID := c.Param("id")
	if err := h.driverService.DeleteDriver(c.Request.Context(), driverID); err != nil {
		fail(c, h.log, err)
		return
	}
	invalidate(c.Request.Context(), h.cacheService, h.log, driverKey(driverID))
	c.Status(http.StatusNoContent)
}

// ListDriverRequests возвращает отклики водителя
func (h *PartyHandler) ListDriverRequests(c *gin.Context) {
	requests, err := h.requestService.ListRequestsForDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, requests)
}

// ListDriverDirectRequests возвращает приглашения водителя
func (h *PartyHandler) ListDriverDirectRequests(c *gin.Context) {
	requests, err := h.requestService.ListDirectRequestsForDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, requests)
}

// ListDriverActiveJobs возвращает доставки водителя
func (h *PartyHandler) ListDriverActiveJobs(c *gin.Context) {
	h.listActiveJobs(c, models.ActiveJobFilter{DriverID: c.Param("id")})
}

// ListDriverReviews возвращает отзывы о водителе
func (h *PartyHandler) ListDriverReviews(c *gin.Context) {
	reviews, err := h.reviewService.ListDriverReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, reviews)
}

// GetDriverRating возвращает средний рейтинг водителя
func (h *PartyHandler) GetDriverRating(c *gin.Context) {
	driverID := c.Param("id")
	rating, err := cached(c.Request.Context(), h.cacheService, h.log, driverRatingKey(driverID), h.cacheService.GetHotDataTTL(),
		func() (*models.Rating, error) {
			return h.reviewService.DriverRating(c.Request.Context(), driverID)
		})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, rating)
}

// CreateClient регистрирует клиента
func (h *PartyHandler) CreateClient(c *gin.Context) {
	var req models.CreateClientRequest
	if !bind(c, h.log, &req) {
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, client)
}

// GetClient возвращает клиента по ID
func (h *PartyHandler) GetClient(c *gin.Context) {
	clientID := c.Param("id")
	client, err := cached(c.Request.Context(), h.cacheService, h.log, clientKey(clientID), h.cacheService.GetDefaultTTL(),
		func() (*models.Client, error) {
			return h.clientService.GetClient(c.Request.Context(), clientID)
		})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, client)
}

// ListClients возвращает клиентов
func (h *PartyHandler) ListClients(c *gin.Context) {
	verified, err := queryBool(c, "verified")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	limit, offset, err := pagination(c)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	clients, err := h.clientService.ListClients(c.Request.Context(), verified, limit, offset)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, clients)
}

// UpdateClient изменяет профиль клиента
func (h *PartyHandler) UpdateClient(c *gin.Context) {
	var req models.UpdateClientRequest
	if !bind(c, h.log, &req) {
		return
	}

	client, err := h.clientService.UpdateClient(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	invalidate(c.Request.Context(), h.cacheService, h.log, clientKey(client.ID))
	respond(c, http.StatusOK, client)
}

// SetClientVerification сохраняет решение о верификации клиента
func (h *PartyHandler) SetClientVerification(c *gin.Context) {
	var req models.SetVerificationRequest
	if !bind(c, h.log, &req) {
		return
	}

	client, err := h.clientService.SetVerification(c.Request.Context(), c.Param("id"), *req.IsVerified)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	invalidate(c.Request.Context(), h.cacheService, h.log, clientKey(client.ID))
	respond(c, http.StatusOK, client)
}

// UploadClientPhoto загружает фото профиля клиента (multipart: file)
func (h *PartyHandler) UploadClientPhoto(c *gin.Context) {
	ctx := c.Request.Context()
	clientID := c.Param("id")

	if _, err := h.clientService.GetClient(ctx, clientID); err != nil {
		fail(c, h.log, err)
		return
	}

	url, err := uploadFromForm(c, h.uploader, "file", storage.KindProfilePhoto, clientID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	client, err := h.clientService.SetProfilePhoto(ctx, clientID, url)
	if err != nil {
		h.removeUpload(c, url)
		fail(c, h.log, err)
		return
	}
	invalidate(ctx, h.cacheService, h.log, clientKey(clientID))
	respond(c, http.StatusOK, client)
}

// DeleteClient удаляет клиента
func (h *PartyHandler) DeleteClient(c *gin.Context) {
	clientID := c.Param("id")
	if err := h.clientService.DeleteClient(c.Request.Context(), clientID); err != nil {
		fail(c, h.log, err)
		return
	}
	invalidate(c.Request.Context(), h.cacheService, h.log, clientKey(clientID))
	c.Status(http.StatusNoContent)
}

// ListClientActiveJobs возвращает доставки клиента
func (h *PartyHandler) ListClientActiveJobs(c *gin.Context) {
	h.listActiveJobs(c, models.ActiveJobFilter{ClientID: c.Param("id")})
}

// GetClientRating возвращает средний рейтинг клиента
func (h *PartyHandler) GetClientRating(c *gin.Context) {
	clientID := c.Param("id")
	rating, err := cached(c.Request.Context(), h.cacheService, h.log, clientRatingKey(clientID), h.cacheService.GetHotDataTTL(),
		func() (*models.Rating, error) {
			return h.reviewService.ClientRating(c.Request.Context(), clientID)
		})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, rating)
}

func (h *PartyHandler) listActiveJobs(c *gin.Context, filter models.ActiveJobFilter) {
	status, err := queryStatus(c)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	filter.Status = status

	jobs, err := h.deliveryService.ListActiveJobs(c.Request.Context(), filter)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, jobs)
}

// removeUpload удаляет файл, ссылка на который не была сохранена
func (h *PartyHandler) removeUpload(c *gin.Context, url string) {
	if err := h.uploader.Remove(c.Request.Context(), url); err != nil {
		h.log.WithError(err).WithField("url", url).Warn("Failed to remove orphaned upload")
	}
}
