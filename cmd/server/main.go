package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ship-swift/internal/config"
	"ship-swift/internal/database"
	"ship-swift/internal/handlers"
	"ship-swift/internal/kafka"
	"ship-swift/internal/logger"
	"ship-swift/internal/models"
	"ship-swift/internal/notify"
	"ship-swift/internal/realtime"
	"ship-swift/internal/redis"
	"ship-swift/internal/services"
	"ship-swift/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ship-swift: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ship-swift",
		Short: "Courier marketplace API server",
		Long: `ship-swift connects clients who post parcel delivery jobs with drivers
who apply for them. Without a sub-command it starts the HTTP API server.`,
		SilenceUsage: true,
		RunE:         runServer,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_FILE"), "Path to YAML config file")
	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API server",
			RunE:  runServer,
		},
		&cobra.Command{
			Use:   "worker",
			Short: "Process queued notification tasks",
			RunE:  runWorker,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database schema migrations and exit",
			RunE:  runMigrate,
		},
	)
	return cmd
}

// setup загружает конфигурацию и создает логгер
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(&cfg.Logger), nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	db, err := database.Connect(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("Database schema is up to date")
	return nil
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if !cfg.Notifications.Enabled {
		return errors.New("notifications are disabled in config")
	}

	srv := asynq.NewServer(notify.RedisOpt(&cfg.Redis, &cfg.Queue), asynq.Config{
		Concurrency: cfg.Queue.Concurrency,
		Logger:      log.ForComponent("asynq"),
	})
	processor := notify.NewProcessor(&cfg.Notifications, log)

	if err := srv.Start(processor.Handler()); err != nil {
		return fmt.Errorf("failed to start notification worker: %w", err)
	}
	log.WithField("concurrency", cfg.Queue.Concurrency).Info("Notification worker started")

	<-cmd.Context().Done()
	log.Info("Shutting down notification worker...")
	srv.Shutdown()
	return nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.Mode)
	log.Info("Starting ship-swift server...")

	// Подключение к базе данных
	db, err := database.Connect(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Подключение к Redis
	redisClient, err := redis.Connect(&cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	// Создание Kafka producer
	producer, err := kafka.NewProducer(&cfg.Kafka, log)
	if err != nil {
		return fmt.Errorf("failed to create kafka producer: %w", err)
	}
	defer producer.Close()

	// Хранилище загружаемых файлов
	store, err := storage.New(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to create object storage client: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to prepare storage bucket: %w", err)
	}

	// Очередь уведомлений
	var queue *asynq.Client
	if cfg.Notifications.Enabled {
		queue = asynq.NewClient(notify.RedisOpt(&cfg.Redis, &cfg.Queue))
		defer queue.Close()
	}
	dispatcher := notify.NewDispatcher(queue, &cfg.Queue, log)

	// Realtime хаб и Kafka consumer, который его наполняет
	hub := realtime.NewHub(log)
	go hub.Run(ctx)

	consumer, err := kafka.NewConsumer(&cfg.Kafka, log)
	if err != nil {
		return fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	defer consumer.Stop()

	realtime.NewRouter(hub).Register(consumer)
	if err := consumer.Start(); err != nil {
		return fmt.Errorf("failed to start kafka consumer: %w", err)
	}

	warmupCache(ctx, cfg, db, redisClient, log)

	router := handlers.NewRouter(&handlers.Deps{
		Config:    cfg,
		DB:        db,
		Redis:     redisClient,
		Publisher: producer,
		Notifier:  dispatcher,
		Uploader:  store,
		Hub:       hub,
		Log:       log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("address", server.Addr).Info("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Ожидание сигнала завершения
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("http server failed: %w", err)
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
	return nil
}

// warmupCache заранее кладет в кеш первую страницу открытых заказов
func warmupCache(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, log *logger.Logger) {
	cacheService := services.NewCacheService(redisClient, &cfg.Cache, log)
	jobService := services.NewJobService(db, log)

	cacheService.WarmupCache(ctx, map[string]func() (interface{}, error){
		handlers.OpenJobsKey(): func() (interface{}, error) {
			return jobService.ListJobs(ctx, models.JobFilter{OpenOnly: true})
		},
	})
}
