package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ship-swift/internal/config"
	"ship-swift/internal/logger"
	"ship-swift/internal/models"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB представляет подключение к базе данных через GORM.
// Один экземпляр создается при старте и передается во все сервисы.
type DB struct {
	*gorm.DB
	sql *sql.DB
}

// Connect создает подключение к PostgreSQL через lib/pq и оборачивает его в GORM
func Connect(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	sqlDB.SetMaxOpenConns(25)                 // Максимальное количество открытых соединений
	sqlDB.SetMaxIdleConns(5)                  // Максимальное количество неактивных соединений
	sqlDB.SetConnMaxLifetime(5 * time.Minute) // Максимальное время жизни соединения

	// Проверка подключения
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db, err := New(postgres.New(postgres.Config{Conn: sqlDB}), log)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	log.Info("Successfully connected to database")
	return db, nil
}

// New открывает GORM поверх указанного диалекта
func New(dialector gorm.Dialector, log *logger.Logger) (*DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	return &DB{DB: gdb, sql: sqlDB}, nil
}

// Migrate создает или обновляет схему базы данных
func (db *DB) Migrate(ctx context.Context) error {
	err := db.WithContext(ctx).AutoMigrate(
		&models.Driver{},
		&models.Client{},
		&models.CourierJob{},
		&models.JobRequest{},
		&models.DirectRequest{},
		&models.ActiveJob{},
		&models.DeliveredJob{},
		&models.Contact{},
		&models.Message{},
		&models.Location{},
		&models.DriverReview{},
		&models.ClientReview{},
		&models.ScheduledTrip{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close закрывает подключение к базе данных
func (db *DB) Close() error {
	return db.sql.Close()
}

// Health проверяет состояние базы данных
func (db *DB) Health(ctx context.Context) error {
	return db.sql.PingContext(ctx)
}

// IsUniqueViolation сообщает, что ошибка вызвана нарушением уникального индекса
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// IsNotFound сообщает, что запрос не нашел записи
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
