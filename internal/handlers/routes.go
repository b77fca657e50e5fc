package handlers

import (
	"ship-swift/internal/config"
	"ship-swift/internal/database"
	"ship-swift/internal/logger"
	"ship-swift/internal/middleware"
	"ship-swift/internal/realtime"
	"ship-swift/internal/redis"
	"ship-swift/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps перечисляет зависимости HTTP слоя.
// Redis и Hub могут быть nil: кеш и rate limit выключаются, /ws не регистрируется.
type Deps struct {
	Config    *config.Config
	DB        *database.DB
	Redis     *redis.Client
	Publisher EventPublisher
	Notifier  Notifier
	Uploader  Uploader
	Hub       *realtime.Hub
	Log       *logger.Logger
}

// NewRouter создает gin движок со всеми маршрутами сервиса
func NewRouter(deps *Deps) *gin.Engine {
	cfg := deps.Config
	log := deps.Log

	cacheService := services.NewCacheService(deps.Redis, &cfg.Cache, log)
	rateLimiter := services.NewRateLimiterService(deps.Redis, &cfg.RateLimit, log)

	jobService := services.NewJobService(deps.DB, log)
	requestService := services.NewRequestService(deps.DB, log)
	deliveryService := services.NewDeliveryService(deps.DB, log)
	driverService := services.NewDriverService(deps.DB, log)
	clientService := services.NewClientService(deps.DB, log)
	contactService := services.NewContactService(deps.DB, log)
	reviewService := services.NewReviewService(deps.DB, log)
	locationService := services.NewLocationService(deps.DB, log)
	tripService := services.NewTripService(deps.DB, log)
	quoteService := services.NewQuoteService(&cfg.Pricing, log)

	healthHandler := NewHealthHandler(deps.DB, deps.Redis)
	cacheHandler := NewCacheHandler(cacheService, log)
	rateLimitHandler := NewRateLimitHandler(rateLimiter, log)
	jobHandler := NewJobHandler(jobService, requestService, quoteService, deps.Publisher, cacheService, log)
	requestHandler := NewRequestHandler(requestService, deps.Publisher, deps.Notifier, cacheService, log)
	partyHandler := NewPartyHandler(driverService, clientService, requestService, deliveryService, reviewService, deps.Uploader, cacheService, log)
	deliveryHandler := NewDeliveryHandler(deliveryService, locationService, deps.Publisher, deps.Notifier, deps.Uploader, cacheService, log)
	contactHandler := NewContactHandler(contactService, reviewService, tripService, deps.Publisher, cacheService, log)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS())
	r.MaxMultipartMemory = cfg.Storage.MaxUploadSize

	r.GET("/health", healthHandler.Health)
	r.GET("/health/readiness", healthHandler.Readiness)
	r.GET("/health/liveness", healthHandler.Liveness)
	if deps.Hub != nil {
		r.GET("/ws", gin.WrapF(deps.Hub.ServeWS))
	}

	api := r.Group("/api", middleware.RateLimit(rateLimiter, log))

	drivers := api.Group("/drivers")
	drivers.POST("", partyHandler.CreateDriver)
	drivers.GET("", partyHandler.ListDrivers)
	drivers.GET("/:id", partyHandler.GetDriver)
	drivers.PATCH("/:id", partyHandler.UpdateDriver)
	drivers.DELETE("/:id", partyHandler.DeleteDriver)
	drivers.PATCH("/:id/verification", partyHandler.SetDriverVerification)
	drivers.POST("/:id/documents", partyHandler.UploadDriverDocument)
	drivers.GET("/:id/requests", partyHandler.ListDriverRequests)
	drivers.GET("/:id/direct-requests", partyHandler.ListDriverDirectRequests)
	drivers.GET("/:id/active-jobs", partyHandler.ListDriverActiveJobs)
	drivers.GET("/:id/reviews", partyHandler.ListDriverReviews)
	drivers.GET("/:id/rating", partyHandler.GetDriverRating)

	clients := api.Group("/clients")
	clients.POST("", partyHandler.CreateClient)
	clients.GET("", partyHandler.ListClients)
	clients.GET("/:id", partyHandler.GetClient)
	clients.PATCH("/:id", partyHandler.UpdateClient)
	clients.DELETE("/:id", partyHandler.DeleteClient)
	clients.PATCH("/:id/verification", partyHandler.SetClientVerification)
	clients.POST("/:id/photo", partyHandler.UploadClientPhoto)
	clients.GET("/:id/active-jobs", partyHandler.ListClientActiveJobs)
	clients.GET("/:id/rating", partyHandler.GetClientRating)

	jobs := api.Group("/jobs")
	jobs.POST("", jobHandler.CreateJob)
	jobs.GET("", jobHandler.ListJobs)
	jobs.GET("/:id", jobHandler.GetJob)
	jobs.PATCH("/:id", jobHandler.UpdateJob)
	jobs.DELETE("/:id", jobHandler.DeleteJob)
	jobs.GET("/:id/requests", jobHandler.ListRequests)
	jobs.POST("/:id/requests", jobHandler.Apply)
	jobs.GET("/:id/requests/check", jobHandler.CheckRequest)
	api.GET("/quotes", jobHandler.Quote)

	api.POST("/direct-requests", requestHandler.CreateDirectRequest)
	api.GET("/direct-requests/:id", requestHandler.GetDirectRequest)
	api.POST("/direct-requests/:id/approve", requestHandler.ApproveDirectRequest)
	api.GET("/job-requests/:id", requestHandler.GetJobRequest)
	api.POST("/job-requests/:id/approve", requestHandler.ApproveJobRequest)
	api.DELETE("/job-requests/:id", requestHandler.WithdrawRequest)

	active := api.Group("/active-jobs")
	active.GET("/:id", deliveryHandler.GetActiveJob)
	active.PATCH("/:id/status", deliveryHandler.UpdateStatus)
	active.POST("/:id/proof", deliveryHandler.SubmitProof)
	active.POST("/:id/locations", deliveryHandler.RecordJobLocation)
	active.GET("/:id/locations", deliveryHandler.ListLocations)
	active.GET("/:id/locations/latest", deliveryHandler.LatestLocation)
	api.POST("/locations", deliveryHandler.RecordLocation)

	api.GET("/delivered-jobs/:id", deliveryHandler.GetDeliveredJob)
	api.POST("/delivered-jobs/:id/confirm", deliveryHandler.ConfirmDelivery)

	contacts := api.Group("/contacts")
	contacts.POST("", contactHandler.OpenContact)
	contacts.GET("", contactHandler.ListContacts)
	contacts.GET("/:id", contactHandler.GetContact)
	contacts.GET("/:id/messages", contactHandler.ListMessages)
	contacts.POST("/:id/messages", contactHandler.SendMessage)

	api.POST("/reviews/drivers", contactHandler.ReviewDriver)
	api.POST("/reviews/clients", contactHandler.ReviewClient)

	api.POST("/trips", contactHandler.CreateTrip)
	api.GET("/trips", contactHandler.ListTrips)
	api.DELETE("/trips/:id", contactHandler.DeleteTrip)

	api.GET("/cache/metrics", cacheHandler.GetMetrics)
	api.GET("/rate-limit/status", rateLimitHandler.GetStatus)

	return r
}
