package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server        ServerConfig        `json:"server" yaml:"server"`
	Database      DatabaseConfig      `json:"database" yaml:"database"`
	Redis         RedisConfig         `json:"redis" yaml:"redis"`
	Kafka         KafkaConfig         `json:"kafka" yaml:"kafka"`
	Logger        LoggerConfig        `json:"logger" yaml:"logger"`
	Cache         CacheConfig         `json:"cache" yaml:"cache"`
	RateLimit     RateLimitConfig     `json:"rate_limit" yaml:"rate_limit"`
	Storage       StorageConfig       `json:"storage" yaml:"storage"`
	Queue         QueueConfig         `json:"queue" yaml:"queue"`
	Notifications NotificationsConfig `json:"notifications" yaml:"notifications"`
	Pricing       PricingConfig       `json:"pricing" yaml:"pricing"`
}

// CacheConfig представляет конфигурацию кеширования
type CacheConfig struct {
	Enabled    bool `json:"enabled" yaml:"enabled"`
	DefaultTTL int  `json:"default_ttl" yaml:"default_ttl"`   // TTL для обычных данных (секунды)
	HotDataTTL int  `json:"hot_data_ttl" yaml:"hot_data_ttl"` // TTL для горячих данных (секунды)
}

// RateLimitConfig представляет конфигурацию ограничения запросов
type RateLimitConfig struct {
	Enabled     bool `json:"enabled" yaml:"enabled"`
	DefaultRPM  int  `json:"default_rpm" yaml:"default_rpm"`
	VIPRPM      int  `json:"vip_rpm" yaml:"vip_rpm"`
	BanDuration int  `json:"ban_duration" yaml:"ban_duration"` // секунды
	// VIPSubjects перечисляет ID пользователей с лимитом VIPRPM
	VIPSubjects []string `json:"vip_subjects" yaml:"vip_subjects"`
}

// ServerConfig представляет конфигурацию HTTP сервера
type ServerConfig struct {
	Port         string `json:"port" yaml:"port"`
	Host         string `json:"host" yaml:"host"`
	ReadTimeout  int    `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int    `json:"write_timeout" yaml:"write_timeout"`
	Mode         string `json:"mode" yaml:"mode"` // debug | release | test
}

// DatabaseConfig представляет конфигурацию базы данных
type DatabaseConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	DBName   string `json:"db_name" yaml:"db_name"`
	SSLMode  string `json:"ssl_mode" yaml:"ssl_mode"`
}

// DSN возвращает строку подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// Addr возвращает адрес Redis в формате host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// KafkaConfig представляет конфигурацию Kafka
type KafkaConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	GroupID string   `json:"group_id" yaml:"group_id"`
	Topics  Topics   `json:"topics" yaml:"topics"`
}

// Topics представляет список топиков Kafka
type Topics struct {
	Jobs       string `json:"jobs" yaml:"jobs"`
	Deliveries string `json:"deliveries" yaml:"deliveries"`
	Locations  string `json:"locations" yaml:"locations"`
	Messages   string `json:"messages" yaml:"messages"`
}

// All возвращает все топики, на которые подписывается consumer
func (t Topics) All() []string {
	return []string{t.Jobs, t.Deliveries, t.Locations, t.Messages}
}

// LoggerConfig представляет конфигурацию логгера
type LoggerConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file" yaml:"file"`
}

// StorageConfig представляет конфигурацию объектного хранилища (MinIO/S3)
type StorageConfig struct {
	Endpoint      string `json:"endpoint" yaml:"endpoint"`
	AccessKey     string `json:"access_key" yaml:"access_key"`
	SecretKey     string `json:"secret_key" yaml:"secret_key"`
	UseSSL        bool   `json:"use_ssl" yaml:"use_ssl"`
	Region        string `json:"region" yaml:"region"`
	Bucket        string `json:"bucket" yaml:"bucket"`
	PublicBaseURL string `json:"public_base_url" yaml:"public_base_url"`
	MaxUploadSize int64  `json:"max_upload_size" yaml:"max_upload_size"` // байты
}

// QueueConfig представляет конфигурацию очереди фоновых задач (asynq)
type QueueConfig struct {
	RedisDB     int `json:"redis_db" yaml:"redis_db"`
	Concurrency int `json:"concurrency" yaml:"concurrency"`
	MaxRetry    int `json:"max_retry" yaml:"max_retry"`
}

// NotificationsConfig представляет конфигурацию внешнего сервиса уведомлений
type NotificationsConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	WebhookURL string `json:"webhook_url" yaml:"webhook_url"`
	APIKey     string `json:"api_key" yaml:"api_key"`
	Timeout    int    `json:"timeout" yaml:"timeout"` // секунды
}

// PricingConfig представляет параметры расчета рекомендуемого бюджета
type PricingConfig struct {
	BasePrice        float64 `json:"base_price" yaml:"base_price"`
	CrossDistrictFee float64 `json:"cross_district_fee" yaml:"cross_district_fee"`
	MinPrice         float64 `json:"min_price" yaml:"min_price"`
	MaxPrice         float64 `json:"max_price" yaml:"max_price"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			Host:         "0.0.0.0",
			ReadTimeout:  10,
			WriteTimeout: 10,
			Mode:         "release",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "shipswift",
			Password: "shipswift",
			DBName:   "shipswift",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			GroupID: "ship-swift",
			Topics: Topics{
				Jobs:       "courier-jobs",
				Deliveries: "deliveries",
				Locations:  "locations",
				Messages:   "messages",
			},
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: 300, // 5 минут
			HotDataTTL: 60,  // 1 минута
		},
		RateLimit: RateLimitConfig{
			Enabled:     true,
			DefaultRPM:  120,
			VIPRPM:      600,
			BanDuration: 300,
		},
		Storage: StorageConfig{
			Endpoint:      "localhost:9000",
			Region:        "us-east-1",
			Bucket:        "ship-swift-uploads",
			PublicBaseURL: "http://localhost:9000",
			MaxUploadSize: 10 << 20, // 10 MiB
		},
		Queue: QueueConfig{
			RedisDB:     1,
			Concurrency: 4,
			MaxRetry:    5,
		},
		Notifications: NotificationsConfig{
			Enabled: false,
			Timeout: 10,
		},
		Pricing: PricingConfig{
			BasePrice:        50,
			CrossDistrictFee: 40,
			MinPrice:         30,
			MaxPrice:         1500,
		},
	}
}

// Load загружает конфигурацию: значения по умолчанию, затем YAML файл (если указан),
// затем переменные окружения
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv перекрывает значения конфигурации переменными окружения
func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.ReadTimeout = getEnvAsInt("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvAsInt("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.Mode = getEnv("SERVER_MODE", cfg.Server.Mode)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", cfg.Database.SSLMode)

	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnv("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	cfg.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", cfg.Kafka.GroupID)
	cfg.Kafka.Topics.Jobs = getEnv("KAFKA_TOPIC_JOBS", cfg.Kafka.Topics.Jobs)
	cfg.Kafka.Topics.Deliveries = getEnv("KAFKA_TOPIC_DELIVERIES", cfg.Kafka.Topics.Deliveries)
	cfg.Kafka.Topics.Locations = getEnv("KAFKA_TOPIC_LOCATIONS", cfg.Kafka.Topics.Locations)
	cfg.Kafka.Topics.Messages = getEnv("KAFKA_TOPIC_MESSAGES", cfg.Kafka.Topics.Messages)

	cfg.Logger.Level = getEnv("LOG_LEVEL", cfg.Logger.Level)
	cfg.Logger.Format = getEnv("LOG_FORMAT", cfg.Logger.Format)
	cfg.Logger.File = getEnv("LOG_FILE", cfg.Logger.File)

	cfg.Cache.Enabled = getEnvAsBool("CACHE_ENABLED", cfg.Cache.Enabled)
	cfg.Cache.DefaultTTL = getEnvAsInt("CACHE_DEFAULT_TTL", cfg.Cache.DefaultTTL)
	cfg.Cache.HotDataTTL = getEnvAsInt("CACHE_HOT_DATA_TTL", cfg.Cache.HotDataTTL)

	cfg.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.DefaultRPM = getEnvAsInt("RATE_LIMIT_DEFAULT_RPM", cfg.RateLimit.DefaultRPM)
	cfg.RateLimit.VIPRPM = getEnvAsInt("RATE_LIMIT_VIP_RPM", cfg.RateLimit.VIPRPM)
	cfg.RateLimit.BanDuration = getEnvAsInt("RATE_LIMIT_BAN_DURATION", cfg.RateLimit.BanDuration)
	if vips := getEnv("RATE_LIMIT_VIP_SUBJECTS", ""); vips != "" {
		cfg.RateLimit.VIPSubjects = strings.Split(vips, ",")
	}

	cfg.Storage.Endpoint = getEnv("STORAGE_ENDPOINT", cfg.Storage.Endpoint)
	cfg.Storage.AccessKey = getEnv("STORAGE_ACCESS_KEY", cfg.Storage.AccessKey)
	cfg.Storage.SecretKey = getEnv("STORAGE_SECRET_KEY", cfg.Storage.SecretKey)
	cfg.Storage.UseSSL = getEnvAsBool("STORAGE_USE_SSL", cfg.Storage.UseSSL)
	cfg.Storage.Region = getEnv("STORAGE_REGION", cfg.Storage.Region)
	cfg.Storage.Bucket = getEnv("STORAGE_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.PublicBaseURL = getEnv("STORAGE_PUBLIC_BASE_URL", cfg.Storage.PublicBaseURL)

	cfg.Queue.RedisDB = getEnvAsInt("QUEUE_REDIS_DB", cfg.Queue.RedisDB)
	cfg.Queue.Concurrency = getEnvAsInt("QUEUE_CONCURRENCY", cfg.Queue.Concurrency)
	cfg.Queue.MaxRetry = getEnvAsInt("QUEUE_MAX_RETRY", cfg.Queue.MaxRetry)

	cfg.Notifications.Enabled = getEnvAsBool("NOTIFICATIONS_ENABLED", cfg.Notifications.Enabled)
	cfg.Notifications.WebhookURL = getEnv("NOTIFICATIONS_WEBHOOK_URL", cfg.Notifications.WebhookURL)
	cfg.Notifications.APIKey = getEnv("NOTIFICATIONS_API_KEY", cfg.Notifications.APIKey)
	cfg.Notifications.Timeout = getEnvAsInt("NOTIFICATIONS_TIMEOUT", cfg.Notifications.Timeout)
}

// getEnv получает значение переменной окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt получает значение переменной окружения как int с значением по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool получает значение переменной окружения как bool с значением по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
